package histogram

import (
	"bytes"
	"testing"

	"github.com/tikkisean/nhist/axis"
)

func mustRegular(t *testing.T, n int, lo, hi float64, opts axis.Options) *axis.Regular {
	t.Helper()
	a, err := axis.NewRegular(n, lo, hi, opts)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestFillAtRoundTrip(t *testing.T) {
	a := mustRegular(t, 10, 0, 1, axis.Underflow|axis.Overflow)
	h, err := New(axis.NewStatic(a))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Fill(0.35); err != nil {
		t.Fatal(err)
	}
	if err := h.Fill(0.35); err != nil {
		t.Fatal(err)
	}
	// bin 3 covers [0.3, 0.4); biased by +1 for the reserved underflow slot.
	v, variance, err := h.At(4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 || variance != 2 {
		t.Fatalf("At(4) = (%v,%v), want (2,2)", v, variance)
	}
}

func TestUnderflowOverflowBins(t *testing.T) {
	a := mustRegular(t, 4, 0, 1, axis.Underflow|axis.Overflow)
	h, err := New(axis.NewStatic(a))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Fill(-5.0); err != nil {
		t.Fatal(err)
	}
	if err := h.Fill(5.0); err != nil {
		t.Fatal(err)
	}
	under, _, _ := h.At(0)
	over, _, _ := h.At(5)
	if under != 1 {
		t.Fatalf("underflow bin = %v, want 1", under)
	}
	if over != 1 {
		t.Fatalf("overflow bin = %v, want 1", over)
	}
	if h.DroppedFills() != 0 {
		t.Fatalf("DroppedFills() = %d, want 0 (both fills landed in reserved bins)", h.DroppedFills())
	}
}

func TestOutOfRangeWithoutReservedBinsIsDropped(t *testing.T) {
	a := mustRegular(t, 4, 0, 1, 0)
	h, err := New(axis.NewStatic(a))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Fill(-5.0); err != nil {
		t.Fatal(err)
	}
	if h.DroppedFills() != 1 {
		t.Fatalf("DroppedFills() = %d, want 1", h.DroppedFills())
	}
	total := 0.0
	h.All(func(_ []int, v, _ float64) { total += v })
	if total != 0 {
		t.Fatalf("total filled mass = %v, want 0", total)
	}
}

func TestPromotionChainThroughHistogramFill(t *testing.T) {
	a, err := axis.NewInteger(0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	h, err := New(axis.NewStatic(a))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 300; i++ {
		if err := h.Fill(int64(0)); err != nil {
			t.Fatal(err)
		}
	}
	v, variance, err := h.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 300 || variance != 300 {
		t.Fatalf("At(0) = (%v,%v), want (300,300)", v, variance)
	}
	if err := h.FillWeight(0.5, int64(0)); err != nil {
		t.Fatal(err)
	}
	v, variance, err = h.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 300.5 {
		t.Fatalf("At(0) value = %v, want 300.5", v)
	}
	if variance != 300.25 {
		t.Fatalf("At(0) variance = %v, want 300.25", variance)
	}
}

func TestTwoDimensionalReducePreservesTotals(t *testing.T) {
	x, _ := axis.NewInteger(0, 3, 0)
	y, _ := axis.NewInteger(0, 2, 0)
	h, err := New(axis.NewStatic(x, y))
	if err != nil {
		t.Fatal(err)
	}
	fills := [][2]int64{{0, 0}, {0, 1}, {1, 0}, {2, 1}, {2, 1}}
	for _, f := range fills {
		if err := h.Fill(f[0], f[1]); err != nil {
			t.Fatal(err)
		}
	}
	marginal, err := h.ReduceTo(0)
	if err != nil {
		t.Fatal(err)
	}
	if marginal.Rank() != 1 {
		t.Fatalf("marginal.Rank() = %d, want 1", marginal.Rank())
	}
	var total float64
	marginal.All(func(_ []int, v, _ float64) { total += v })
	if total != float64(len(fills)) {
		t.Fatalf("marginal total = %v, want %v", total, len(fills))
	}
	v2, _, err := marginal.At(2)
	if err != nil {
		t.Fatal(err)
	}
	if v2 != 2 {
		t.Fatalf("marginal.At(2) = %v, want 2", v2)
	}
}

func TestReduceToRejectsNonAscendingAxisIndices(t *testing.T) {
	x, _ := axis.NewInteger(0, 3, 0)
	y, _ := axis.NewInteger(0, 2, 0)
	h, _ := New(axis.NewStatic(x, y))
	h.Fill(int64(0), int64(0))

	cases := [][]int{
		{0, 0}, // duplicate axis
		{1, 0}, // descending
	}
	for _, indices := range cases {
		_, err := h.ReduceTo(indices...)
		if err == nil {
			t.Fatalf("ReduceTo(%v): expected error, got nil", indices)
		}
		if he, ok := err.(HistError); !ok || he.Code != InvalidParameters {
			t.Fatalf("ReduceTo(%v): got %v, want InvalidParameters", indices, err)
		}
	}
}

func TestGrowableAxisFillShiftsExistingBins(t *testing.T) {
	a, err := axis.NewGrowableInteger(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	h, err := New(axis.NewStatic(a))
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []int64{0, -2, 5} {
		if err := h.Fill(v); err != nil {
			t.Fatal(err)
		}
	}
	total := 0.0
	h.All(func(_ []int, v, _ float64) { total += v })
	if total != 3 {
		t.Fatalf("total after growth = %v, want 3", total)
	}
	// value 0's bin must still read 1 after the low-side growth translated
	// its storage offset.
	zeroBin := int(0 - a.Low())
	v, _, err := h.At(zeroBin)
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Fatalf("bin for value 0 after growth = %v, want 1", v)
	}
}

func TestAddShapeMismatchError(t *testing.T) {
	a1, _ := axis.NewInteger(0, 5, 0)
	a2, _ := axis.NewInteger(0, 7, 0)
	h1, _ := New(axis.NewStatic(a1))
	h2, _ := New(axis.NewStatic(a2))
	err := h1.Add(h2)
	if err == nil {
		t.Fatal("expected shape mismatch error")
	}
	if he, ok := err.(HistError); !ok || he.Code != ShapeMismatch {
		t.Fatalf("got %v, want ShapeMismatch", err)
	}
}

func TestAddCommutative(t *testing.T) {
	a, _ := axis.NewInteger(0, 3, 0)
	h1, _ := New(axis.NewStatic(a))
	h2, _ := New(axis.NewStatic(a))
	h1.Fill(int64(0))
	h1.Fill(int64(1))
	h2.Fill(int64(1))
	h2.Fill(int64(2))

	sum1, _ := New(axis.NewStatic(a))
	sum1.Add(h1)
	sum1.Add(h2)

	sum2, _ := New(axis.NewStatic(a))
	sum2.Add(h2)
	sum2.Add(h1)

	if !sum1.Equal(sum2) {
		t.Fatal("addition is not commutative")
	}
}

func TestEqualUnderPromotion(t *testing.T) {
	a, _ := axis.NewInteger(0, 1, 0)
	h1, _ := New(axis.NewStatic(a))
	h2, _ := New(axis.NewStatic(a))
	for i := 0; i < 300; i++ {
		h1.Fill(int64(0))
		h2.FillWeight(1, int64(0))
	}
	if !h1.Equal(h2) {
		t.Fatal("histograms with equal value/variance at different depths should compare equal")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	a1 := mustRegular(t, 4, 0, 1, axis.Underflow|axis.Overflow)
	a2, _ := axis.NewInteger(0, 3, 0)
	h, err := New(axis.NewStatic(a1, a2))
	if err != nil {
		t.Fatal(err)
	}
	h.Fill(0.2, int64(1))
	h.Fill(0.9, int64(2))
	h.FillWeight(2.5, 0.4, int64(0))

	var buf bytes.Buffer
	if err := h.EncodeTo(&buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Equal(decoded) {
		t.Fatal("decoded histogram does not equal original")
	}
}

func TestSelectivity(t *testing.T) {
	a, _ := axis.NewInteger(0, 10, 0)
	h, _ := New(axis.NewStatic(a))
	for i := 0; i < 10; i++ {
		for j := 0; j < i; j++ {
			h.Fill(int64(i))
		}
	}
	sel, err := h.Selectivity(0, LessThan, 5)
	if err != nil {
		t.Fatal(err)
	}
	if sel <= 0 || sel >= 1 {
		t.Fatalf("Selectivity = %v, want strictly between 0 and 1", sel)
	}
}

func TestArityMismatch(t *testing.T) {
	a, _ := axis.NewInteger(0, 3, 0)
	h, _ := New(axis.NewStatic(a))
	err := h.Fill(int64(1), int64(2))
	if err == nil {
		t.Fatal("expected arity mismatch error")
	}
}
