// Package store implements the adaptive count storage described by the
// histogram engine: a dense, resizable vector of bin cells whose element
// width is itself a runtime property. A store begins uninitialized (depth
// zero, no buffer) and widens in place -- 1, 2, 4, 8 bytes per unsigned
// counter, then a weighted (sum_w, sum_w^2) pair of float64s -- the first
// time a counter would otherwise overflow. Promotion never loses a prior
// count and never narrows back down.
package store

import (
	"encoding/binary"
	"math"
)

// Depth identifies the width class of a store's cells.
type Depth uint8

const (
	// Depth0 marks an uninitialized store: no buffer has been allocated
	// yet and every logical bin reads as zero.
	Depth0 Depth = 0
	// Depth1 through Depth8 hold unsigned integer counters of the named
	// byte width.
	Depth1 Depth = 1
	Depth2 Depth = 2
	Depth4 Depth = 4
	Depth8 Depth = 8
	// DepthWeighted holds a (sum_w, sum_w^2) pair of float64 per bin.
	// It is a distinguished value outside the byte-width sequence above
	// and, once reached, a store never demotes away from it.
	DepthWeighted Depth = 255
)

func cellWidth(d Depth) int {
	switch d {
	case Depth1:
		return 1
	case Depth2:
		return 2
	case Depth4:
		return 4
	case Depth8:
		return 8
	case DepthWeighted:
		return 16
	default:
		invariantViolation("invalid depth")
		return 0
	}
}

// nextIntDepth returns the next wider integer depth, or DepthWeighted once
// Depth8 itself overflows.
func nextIntDepth(d Depth) Depth {
	switch d {
	case Depth1:
		return Depth2
	case Depth2:
		return Depth4
	case Depth4:
		return Depth8
	case Depth8:
		return DepthWeighted
	default:
		invariantViolation("invalid depth for promotion")
		return DepthWeighted
	}
}

func maxForDepth(d Depth) uint64 {
	switch d {
	case Depth1:
		return math.MaxUint8
	case Depth2:
		return math.MaxUint16
	case Depth4:
		return math.MaxUint32
	case Depth8:
		return math.MaxUint64
	default:
		invariantViolation("invalid integer depth")
		return 0
	}
}

// depthForMax returns the narrowest integer depth able to represent v
// without overflow.
func depthForMax(v uint64) Depth {
	switch {
	case v <= math.MaxUint8:
		return Depth1
	case v <= math.MaxUint16:
		return Depth2
	case v <= math.MaxUint32:
		return Depth4
	default:
		return Depth8
	}
}

// Store is a dense, adaptive-width bin container.
type Store struct {
	size  int
	depth Depth
	buf   []byte
}

// New allocates a Store of the given size, with its depth left at Depth0
// (uninitialized, lazily allocated on first increment).
func New(size int) *Store {
	if size < 0 {
		invariantViolation("negative size")
	}
	return &Store{size: size}
}

// Reset re-establishes a Store's invariants for the given size: the
// minimal real depth (Depth1) with every bin zeroed.
func (s *Store) Reset(size int) {
	if size < 0 {
		invariantViolation("negative size")
	}
	s.size = size
	s.depth = Depth1
	s.buf = safeMake(size)
}

func safeMake(n int) []byte {
	if n < 0 || n > math.MaxInt64/16 {
		panic(StoreError{OutOfMemory, "allocation size overflows addressable range"})
	}
	return make([]byte, n)
}

// Size returns the number of bins.
func (s *Store) Size() int { return s.size }

// Depth returns the current width class.
func (s *Store) Depth() Depth { return s.depth }

func (s *Store) ensureAllocated() {
	if s.depth == Depth0 {
		s.depth = Depth1
		s.buf = safeMake(s.size)
	}
}

func (s *Store) rawUint(i int) uint64 {
	switch s.depth {
	case Depth0:
		return 0
	case Depth1:
		return uint64(s.buf[i])
	case Depth2:
		return uint64(binary.LittleEndian.Uint16(s.buf[i*2:]))
	case Depth4:
		return uint64(binary.LittleEndian.Uint32(s.buf[i*4:]))
	case Depth8:
		return binary.LittleEndian.Uint64(s.buf[i*8:])
	default:
		invariantViolation("rawUint called on non-integer depth")
		return 0
	}
}

func (s *Store) setRawUint(i int, v uint64) {
	switch s.depth {
	case Depth1:
		s.buf[i] = byte(v)
	case Depth2:
		binary.LittleEndian.PutUint16(s.buf[i*2:], uint16(v))
	case Depth4:
		binary.LittleEndian.PutUint32(s.buf[i*4:], uint32(v))
	case Depth8:
		binary.LittleEndian.PutUint64(s.buf[i*8:], v)
	default:
		invariantViolation("setRawUint called on non-integer depth")
	}
}

func (s *Store) weightedAt(i int) (sumW, sumW2 float64) {
	off := i * 16
	return math.Float64frombits(binary.LittleEndian.Uint64(s.buf[off:])),
		math.Float64frombits(binary.LittleEndian.Uint64(s.buf[off+8:]))
}

func (s *Store) setWeightedAt(i int, sumW, sumW2 float64) {
	off := i * 16
	binary.LittleEndian.PutUint64(s.buf[off:], math.Float64bits(sumW))
	binary.LittleEndian.PutUint64(s.buf[off+8:], math.Float64bits(sumW2))
}

// promote widens the buffer in place to newDepth, preserving every bin's
// value (and, for the transition into DepthWeighted, treating every prior
// unweighted count c as a unit-weight accumulation (c, c) so the variance
// identity holds for fills that predate the promotion).
func (s *Store) promote(newDepth Depth) {
	oldBuf, oldDepth := s.buf, s.depth
	width := cellWidth(newDepth)
	newBuf := safeMake(s.size * width)
	s.buf = newBuf
	s.depth = newDepth
	if oldDepth == Depth0 {
		return // every cell was already implicitly zero
	}
	for i := 0; i < s.size; i++ {
		var raw uint64
		switch oldDepth {
		case Depth1:
			raw = uint64(oldBuf[i])
		case Depth2:
			raw = uint64(binary.LittleEndian.Uint16(oldBuf[i*2:]))
		case Depth4:
			raw = uint64(binary.LittleEndian.Uint32(oldBuf[i*4:]))
		case Depth8:
			raw = binary.LittleEndian.Uint64(oldBuf[i*8:])
		default:
			invariantViolation("promote called from non-integer depth")
		}
		if newDepth == DepthWeighted {
			s.setWeightedAt(i, float64(raw), float64(raw))
		} else {
			s.setRawUint(i, raw)
		}
	}
}

// promoteToWeighted widens directly to DepthWeighted from any current
// depth, a no-op if already weighted.
func (s *Store) promoteToWeighted() {
	if s.depth == DepthWeighted {
		return
	}
	if s.depth == Depth0 {
		s.promote(DepthWeighted)
		return
	}
	s.promote(DepthWeighted)
}

// PromoteTo forces the store to at least the given depth. It is a no-op if
// the store is already at or beyond target. Exposed so callers (and
// tests) can force promotion and confirm every bin's value survives it
// unchanged.
func (s *Store) PromoteTo(target Depth) {
	if target == DepthWeighted {
		s.promoteToWeighted()
		return
	}
	s.ensureAllocated()
	for s.depth < target {
		s.promote(nextIntDepth(s.depth))
	}
}

// Increase performs an unweighted increment of bin i, promoting the store
// in place if the current cell is already at its type's maximum. At most
// three promotions can occur in a single call (Depth1 -> 2 -> 4 -> 8; the
// Depth8 -> Weighted transition is unreachable on real inputs, since no
// unsigned 64-bit counter overflows from a single increment), so the
// retry loop is guaranteed to terminate.
func (s *Store) Increase(i int) {
	s.ensureAllocated()
	for {
		switch s.depth {
		case DepthWeighted:
			sumW, sumW2 := s.weightedAt(i)
			s.setWeightedAt(i, sumW+1, sumW2+1)
			return
		default:
			v := s.rawUint(i)
			if v == maxForDepth(s.depth) {
				s.promote(nextIntDepth(s.depth))
				continue
			}
			s.setRawUint(i, v+1)
			return
		}
	}
}

// IncreaseWeighted performs a weighted increment of bin i. If the store is
// not already at DepthWeighted it is promoted first, converting every
// former integer count c into (c, c).
func (s *Store) IncreaseWeighted(i int, w float64) {
	s.ensureAllocated()
	s.promoteToWeighted()
	sumW, sumW2 := s.weightedAt(i)
	s.setWeightedAt(i, sumW+w, sumW2+w*w)
}

// Value returns the count (integer cells) or sum_w (weighted cells) of
// bin i.
func (s *Store) Value(i int) float64 {
	if s.depth == Depth0 {
		return 0
	}
	if s.depth == DepthWeighted {
		sumW, _ := s.weightedAt(i)
		return sumW
	}
	return float64(s.rawUint(i))
}

// Variance returns the count (Poisson assumption, integer cells) or
// sum_w^2 (weighted cells) of bin i.
func (s *Store) Variance(i int) float64 {
	if s.depth == Depth0 {
		return 0
	}
	if s.depth == DepthWeighted {
		_, sumW2 := s.weightedAt(i)
		return sumW2
	}
	return float64(s.rawUint(i))
}

// Add performs a bin-wise addition, s += other, promoting s so its depth
// is the maximum needed to represent every per-bin sum without overflow,
// and to DepthWeighted if either side is already weighted.
func (s *Store) Add(other *Store) error {
	if s.size != other.size {
		return StoreError{ShapeMismatch, "stores have different sizes"}
	}
	if s.depth == DepthWeighted || other.depth == DepthWeighted {
		s.promoteToWeighted()
		for i := 0; i < s.size; i++ {
			sumW, sumW2 := s.weightedAt(i)
			s.setWeightedAt(i, sumW+other.Value(i), sumW2+other.Variance(i))
		}
		return nil
	}
	s.ensureAllocated()
	other.ensureAllocatedConst()
	maxSum := uint64(0)
	for i := 0; i < s.size; i++ {
		v := s.rawUint(i) + other.rawUint(i)
		if v > maxSum {
			maxSum = v
		}
	}
	needed := depthForMax(maxSum)
	if needed > s.depth {
		s.PromoteTo(needed)
	}
	for i := 0; i < s.size; i++ {
		s.setRawUint(i, s.rawUint(i)+other.rawUint(i))
	}
	return nil
}

// SetCount sets bin i's raw unsigned count directly, promoting the store to
// whatever integer depth is wide enough to hold v. It exists for callers
// (histogram's storage rebuild) that transplant an already-computed count
// between stores without re-running every increment that produced it.
func (s *Store) SetCount(i int, v uint64) {
	s.ensureAllocated()
	needed := depthForMax(v)
	if needed > s.depth {
		s.PromoteTo(needed)
	}
	s.setRawUint(i, v)
}

// SetWeighted sets bin i's (sum_w, sum_w^2) pair directly, promoting the
// store to DepthWeighted if it isn't already there.
func (s *Store) SetWeighted(i int, sumW, sumW2 float64) {
	s.ensureAllocated()
	s.promoteToWeighted()
	s.setWeightedAt(i, sumW, sumW2)
}

// ensureAllocatedConst is used on a store we only read from (e.g. the RHS
// of Add): it must not mutate the caller-visible depth, but rawUint on a
// Depth0 store already returns 0 for every index without needing a
// buffer, so this is a no-op kept for readability at call sites.
func (s *Store) ensureAllocatedConst() {}

// Scale multiplies every bin by k, promoting to DepthWeighted (sum_w and
// sum_w^2 scale by k and k^2 respectively).
func (s *Store) Scale(k float64) {
	s.ensureAllocated()
	s.promoteToWeighted()
	for i := 0; i < s.size; i++ {
		sumW, sumW2 := s.weightedAt(i)
		s.setWeightedAt(i, sumW*k, sumW2*k*k)
	}
}

// Equal compares two stores as if both were promoted to the weighted view:
// same size, and Value/Variance bit-identical at every bin.
func (s *Store) Equal(other *Store) bool {
	if s.size != other.size {
		return false
	}
	for i := 0; i < s.size; i++ {
		if s.Value(i) != other.Value(i) || s.Variance(i) != other.Variance(i) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of s.
func (s *Store) Clone() *Store {
	c := &Store{size: s.size, depth: s.depth}
	if s.buf != nil {
		c.buf = append([]byte(nil), s.buf...)
	}
	return c
}
