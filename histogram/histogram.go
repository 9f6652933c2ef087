// Package histogram implements the multi-axis histogram façade: linearizing
// a coordinate tuple across an ordered collection of axes down to a single
// store offset, filling and reading that offset, and combining, scaling,
// projecting and serializing whole histograms.
package histogram

import (
	"log"

	"github.com/tikkisean/nhist/axis"
	"github.com/tikkisean/nhist/store"
)

// logger is used only for the rare warning-level diagnostic (a corrupt
// stream on decode); it is never touched on the fill hot path.
var logger = log.Default()

// Histogram is a dense multi-dimensional bin array addressed by one axis
// per dimension, in the order the axes were given at construction.
type Histogram struct {
	axes    []axis.Axis
	extents []int
	st      *store.Store
	dropped uint64
}

// New builds a Histogram over the given axis collection. The collection's
// order fixes the dimension order used by every subsequent Fill/At call.
func New(coll axis.Collection) (*Histogram, error) {
	n := coll.Len()
	if n == 0 {
		return nil, HistError{InvalidParameters, "a histogram needs at least one axis"}
	}
	axes := make([]axis.Axis, n)
	extents := make([]int, n)
	coll.ForEach(func(i int, a axis.Axis) {
		axes[i] = a
		extents[i] = a.Extent()
	})
	return &Histogram{axes: axes, extents: extents, st: store.New(product(extents))}, nil
}

// Rank returns the number of axes.
func (h *Histogram) Rank() int { return len(h.axes) }

// Size returns the total number of internal bins across every axis.
func (h *Histogram) Size() int { return h.st.Size() }

// Axis returns the k-th axis.
func (h *Histogram) Axis(k int) axis.Axis { return h.axes[k] }

// ForEachAxis visits every axis in dimension order.
func (h *Histogram) ForEachAxis(f func(k int, a axis.Axis)) {
	for k, a := range h.axes {
		f(k, a)
	}
}

// DroppedFills returns the number of Fill/FillWeight calls in which at least
// one coordinate fell outside its axis's domain with no underflow, overflow
// or growth bin to take it, and which were therefore silently discarded.
func (h *Histogram) DroppedFills() uint64 { return h.dropped }

func (h *Histogram) checkArity(coords []interface{}) error {
	if len(coords) != len(h.axes) {
		return HistError{ArityMismatch, "coordinate tuple length does not match histogram rank"}
	}
	return nil
}

// Fill records one unweighted observation at coords, one value per axis in
// dimension order. If any coordinate falls outside its axis's domain, the
// fill is silently dropped and counted in DroppedFills.
func (h *Histogram) Fill(coords ...interface{}) error {
	if err := h.checkArity(coords); err != nil {
		return err
	}
	offset, valid := h.linearize(coords)
	if !valid {
		h.dropped++
		return nil
	}
	h.st.Increase(offset)
	return nil
}

// FillWeight records one weighted observation at coords.
func (h *Histogram) FillWeight(w float64, coords ...interface{}) error {
	if err := h.checkArity(coords); err != nil {
		return err
	}
	offset, valid := h.linearize(coords)
	if !valid {
		h.dropped++
		return nil
	}
	h.st.IncreaseWeighted(offset, w)
	return nil
}

// FillSample records one sample value at coords as a weighted fill: the
// sample value plays the role of the fill weight, letting sum_w/sum_w^2
// accumulate a first and second moment for the bin.
func (h *Histogram) FillSample(sample float64, coords ...interface{}) error {
	return h.FillWeight(sample, coords...)
}

// At returns the value and variance stored at the given per-axis internal
// indices (in [0, Extent(k)) for axis k).
func (h *Histogram) At(indices ...int) (value float64, variance float64, err error) {
	if len(indices) != len(h.axes) {
		return 0, 0, HistError{ArityMismatch, "index tuple length does not match histogram rank"}
	}
	offset := 0
	stride := 1
	for k, idx := range indices {
		ext := h.extents[k]
		if idx < 0 || idx >= ext {
			return 0, 0, HistError{OutOfRange, "index out of range for axis"}
		}
		offset += idx * stride
		stride *= ext
	}
	return h.st.Value(offset), h.st.Variance(offset), nil
}

// Reset clears every bin back to zero without altering the axes.
func (h *Histogram) Reset() {
	h.st = store.New(product(h.extents))
	h.dropped = 0
}

func (h *Histogram) sameShape(other *Histogram) bool {
	if len(h.extents) != len(other.extents) {
		return false
	}
	for k, e := range h.extents {
		if other.extents[k] != e {
			return false
		}
	}
	return true
}

// Add performs a bin-wise addition, h += other. Both histograms must have
// identical extents in every dimension.
func (h *Histogram) Add(other *Histogram) error {
	if !h.sameShape(other) {
		return HistError{ShapeMismatch, "histograms do not have matching axis extents"}
	}
	if err := h.st.Add(other.st); err != nil {
		return HistError{ShapeMismatch, err.Error()}
	}
	return nil
}

// Scale multiplies every bin's value and variance by k, promoting to a
// weighted representation.
func (h *Histogram) Scale(k float64) { h.st.Scale(k) }

// Div performs a bin-wise quotient, h[i] = h[i] / other[i], with 0/0 and
// x/0 both defined as 0. There is no general variance-propagation rule for
// a quotient of counts, so the result is stored as a single-sample weighted
// cell (sum_w = quotient, sum_w^2 = quotient^2) rather than claiming a
// Poisson interpretation that no longer applies.
func (h *Histogram) Div(other *Histogram) error {
	if !h.sameShape(other) {
		return HistError{ShapeMismatch, "histograms do not have matching axis extents"}
	}
	n := h.st.Size()
	for i := 0; i < n; i++ {
		a := h.st.Value(i)
		b := other.st.Value(i)
		var q float64
		if b != 0 {
			q = a / b
		}
		h.st.SetWeighted(i, q, q*q)
	}
	return nil
}

// Equal reports whether h and other have identical axis extents and equal
// bin contents (Store.Equal's weighted-view comparison, so equality holds
// across differing promotion depths).
func (h *Histogram) Equal(other *Histogram) bool {
	return h.sameShape(other) && h.st.Equal(other.st)
}

// ReduceTo projects the histogram onto the listed axis indices, which must
// be strictly ascending, summing away every other axis. Both value and
// variance are additive under marginalization, so the projected cell's
// sum_w/sum_w^2 are exact sums of the corresponding source cells.
func (h *Histogram) ReduceTo(axisIndices ...int) (*Histogram, error) {
	return h.ReduceToWhere(nil, axisIndices...)
}

// ReduceToWhere is ReduceTo restricted to cells whose coordinate on axis k
// falls within where[k] (an inclusive [lo, hi] pair of internal bin
// indices), for every k present in where. Axes absent from where are
// unrestricted. axisIndices must be strictly ascending: an axis may
// appear at most once, and out-of-order indices would fold two source
// coordinates into one stride of the projected shape. This is the
// primitive the query package's WHERE ... BETWEEN clause compiles down
// to; ReduceTo is the where == nil case.
func (h *Histogram) ReduceToWhere(where map[int][2]int, axisIndices ...int) (*Histogram, error) {
	if len(axisIndices) == 0 {
		return nil, HistError{InvalidParameters, "ReduceTo requires at least one axis index"}
	}
	for k, idx := range axisIndices {
		if idx < 0 || idx >= len(h.axes) {
			return nil, HistError{OutOfRange, "axis index out of range"}
		}
		if k > 0 && idx <= axisIndices[k-1] {
			return nil, HistError{InvalidParameters, "axis indices must be strictly ascending"}
		}
	}
	for idx, w := range where {
		if idx < 0 || idx >= len(h.axes) {
			return nil, HistError{OutOfRange, "where clause references an axis index out of range"}
		}
		if w[0] > w[1] {
			return nil, HistError{InvalidParameters, "where clause has an empty range"}
		}
	}

	newAxes := make([]axis.Axis, len(axisIndices))
	newExtents := make([]int, len(axisIndices))
	for i, idx := range axisIndices {
		newAxes[i] = h.axes[idx]
		newExtents[i] = h.extents[idx]
	}
	newSize := product(newExtents)
	sumW := make([]float64, newSize)
	sumW2 := make([]float64, newSize)

	oldCoord := make([]int, len(h.axes))
	for old := 0; old < h.st.Size(); old++ {
		decompose(old, h.extents, oldCoord)
		inWindow := true
		for idx, w := range where {
			if oldCoord[idx] < w[0] || oldCoord[idx] > w[1] {
				inWindow = false
				break
			}
		}
		if !inWindow {
			continue
		}
		newOffset := 0
		stride := 1
		for i, idx := range axisIndices {
			newOffset += oldCoord[idx] * stride
			stride *= newExtents[i]
		}
		sumW[newOffset] += h.st.Value(old)
		sumW2[newOffset] += h.st.Variance(old)
	}

	weighted := h.st.Depth() == store.DepthWeighted
	newStore := store.New(newSize)
	for i := 0; i < newSize; i++ {
		if sumW[i] == 0 && sumW2[i] == 0 {
			continue
		}
		if weighted || sumW2[i] != sumW[i] {
			newStore.SetWeighted(i, sumW[i], sumW2[i])
		} else {
			newStore.SetCount(i, uint64(sumW[i]))
		}
	}
	return &Histogram{axes: newAxes, extents: newExtents, st: newStore}, nil
}

// All visits every internal bin in row-major order (axis 0 fastest),
// reporting its per-axis coordinate tuple alongside its value and variance.
func (h *Histogram) All(f func(coord []int, value, variance float64)) {
	coord := make([]int, len(h.axes))
	for offset := 0; offset < h.st.Size(); offset++ {
		decompose(offset, h.extents, coord)
		f(append([]int(nil), coord...), h.st.Value(offset), h.st.Variance(offset))
	}
}
