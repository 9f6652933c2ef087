package store

import "testing"

func TestPromotionChainPreservesCount(t *testing.T) {
	s := New(4)
	s.Reset(4)
	for i := 0; i < 300; i++ {
		s.Increase(0)
	}
	if got := s.Depth(); got != Depth2 {
		t.Fatalf("depth after 300 increments = %v, want Depth2", got)
	}
	if got := s.Value(0); got != 300 {
		t.Fatalf("value = %v, want 300", got)
	}

	s.IncreaseWeighted(0, 0.5)
	if got := s.Depth(); got != DepthWeighted {
		t.Fatalf("depth after weighted fill = %v, want DepthWeighted", got)
	}
	if got := s.Value(0); got != 300.5 {
		t.Fatalf("value = %v, want 300.5", got)
	}
	if got := s.Variance(0); got != 300.25 {
		t.Fatalf("variance = %v, want 300.25", got)
	}
}

func TestPromotionPastUint8Max(t *testing.T) {
	s := New(1)
	s.Reset(1)
	for i := 0; i < 1<<9; i++ { // exceed uint8 max
		s.Increase(0)
	}
	if s.Depth() != Depth2 {
		t.Fatalf("depth = %v, want Depth2 after exceeding uint8", s.Depth())
	}
	if s.Value(0) != float64(1<<9) {
		t.Fatalf("value = %v, want %v", s.Value(0), 1<<9)
	}
}

func TestForcedPromotionPreservesValues(t *testing.T) {
	s := New(8)
	s.Reset(8)
	for i := 0; i < 8; i++ {
		for j := 0; j <= i*10; j++ {
			s.Increase(i)
		}
	}
	before := make([]float64, 8)
	for i := range before {
		before[i] = s.Value(i)
	}
	s.PromoteTo(Depth8)
	for i := range before {
		if s.Value(i) != before[i] {
			t.Fatalf("bin %d changed under forced promotion: %v -> %v", i, before[i], s.Value(i))
		}
	}
	s.PromoteTo(DepthWeighted)
	for i := range before {
		if s.Value(i) != before[i] || s.Variance(i) != before[i] {
			t.Fatalf("bin %d changed under forced weighted promotion", i)
		}
	}
}

func TestWeightedIdentity(t *testing.T) {
	s := New(1)
	s.Reset(1)
	weights := []float64{1.5, 2.5, -0.5, 3.0}
	var sumW, sumW2 float64
	for _, w := range weights {
		s.IncreaseWeighted(0, w)
		sumW += w
		sumW2 += w * w
	}
	if got := s.Value(0); got != sumW {
		t.Fatalf("value = %v, want %v", got, sumW)
	}
	if got := s.Variance(0); got != sumW2 {
		t.Fatalf("variance = %v, want %v", got, sumW2)
	}
}

func TestAddCommutativeAndAssociative(t *testing.T) {
	build := func(vals []uint64) *Store {
		s := New(len(vals))
		s.Reset(len(vals))
		for i, v := range vals {
			for j := uint64(0); j < v; j++ {
				s.Increase(i)
			}
		}
		return s
	}
	a := build([]uint64{1, 2, 3})
	b := build([]uint64{10, 20, 30})
	c := build([]uint64{100, 200, 300})

	ab := a.Clone()
	if err := ab.Add(b); err != nil {
		t.Fatal(err)
	}
	abc1 := ab.Clone()
	if err := abc1.Add(c); err != nil {
		t.Fatal(err)
	}

	bc := b.Clone()
	if err := bc.Add(c); err != nil {
		t.Fatal(err)
	}
	abc2 := a.Clone()
	if err := abc2.Add(bc); err != nil {
		t.Fatal(err)
	}

	cba := c.Clone()
	if err := cba.Add(b); err != nil {
		t.Fatal(err)
	}
	if err := cba.Add(a); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if abc1.Value(i) != abc2.Value(i) || abc1.Value(i) != cba.Value(i) {
			t.Fatalf("bin %d not associative/commutative: %v %v %v", i, abc1.Value(i), abc2.Value(i), cba.Value(i))
		}
	}
}

func TestAddShapeMismatch(t *testing.T) {
	a := New(3)
	a.Reset(3)
	b := New(4)
	b.Reset(4)
	if err := a.Add(b); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestScalePromotesAndScales(t *testing.T) {
	s := New(2)
	s.Reset(2)
	s.Increase(0)
	s.Increase(0)
	s.Increase(1)
	s.Scale(2.0)
	if s.Depth() != DepthWeighted {
		t.Fatalf("depth = %v, want DepthWeighted", s.Depth())
	}
	if got := s.Value(0); got != 4 {
		t.Fatalf("value(0) = %v, want 4", got)
	}
	if got := s.Variance(0); got != 8 {
		t.Fatalf("variance(0) = %v, want 8 (2^2 * 2)", got)
	}
}

func TestEqualAcrossDepths(t *testing.T) {
	a := New(2)
	a.Reset(2)
	a.Increase(0)
	a.Increase(0)
	a.Increase(0)

	b := a.Clone()
	b.PromoteTo(Depth8)

	if !a.Equal(b) {
		t.Fatal("stores with same logical values but different depths should be equal")
	}
}

func TestSerializationRoundTripRaw(t *testing.T) {
	s := New(1000)
	s.Reset(1000)
	for i := 0; i < 1000; i++ {
		s.Increase(i)
	}
	encoded := s.Bytes()
	decoded, err := FromBytes(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(decoded) {
		t.Fatal("dense round trip mismatch")
	}
}

func TestSerializationRoundTripZeroSuppressed(t *testing.T) {
	s := New(1000)
	s.Reset(1000)
	s.Increase(42)
	for i := 0; i < 41; i++ {
		s.Increase(42)
	}

	encoded := s.Bytes()
	decoded, err := FromBytes(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(decoded) {
		t.Fatal("sparse round trip mismatch")
	}
}

func TestZeroSuppressionTransparency(t *testing.T) {
	sparse := New(1000)
	sparse.Reset(1000)
	sparse.setRawUint(999, 42) // depth1 raw poke, still valid single-byte value

	dense := New(1000)
	dense.Reset(1000)
	for i := 0; i < 1000; i++ {
		dense.Increase(i)
	}

	sparseRT, err := FromBytes(sparse.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	denseRT, err := FromBytes(dense.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !sparse.Equal(sparseRT) {
		t.Fatal("sparse store did not round-trip")
	}
	if !dense.Equal(denseRT) {
		t.Fatal("dense store did not round-trip")
	}
}
