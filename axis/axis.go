// Package axis implements the histogram engine's axis model: a family of
// kinds that each map an input value to an internal bin index, plus the
// two shapes of axis collection (a fixed static tuple and a growable
// dynamic sequence) that share one traversal contract.
package axis

import "io"

// Options is the per-axis option bitset: whether the axis reserves an
// underflow bin, an overflow bin, wraps circularly, or may grow in
// response to out-of-range values.
type Options uint8

const (
	Underflow Options = 1 << iota
	Overflow
	Circular
	Growable
)

// Has reports whether o includes flag.
func (o Options) Has(flag Options) bool { return o&flag != 0 }

// Kind tags a concrete axis type for serialization and diagnostics.
type Kind uint8

const (
	KindRegular Kind = iota + 1
	KindInteger
	KindCategorical
	KindGrowableRegular
	KindGrowableInteger
)

// Invalid is the sentinel internal index returned by Update when a value
// cannot be mapped onto the axis at all: a NaN, a value of the wrong type,
// or an unknown label on a categorical axis without an overflow bin. It is
// below -1, so it stays negative after the linearizer's underflow bias. The
// linearizer treats any index outside [0, extent) -- Invalid included --
// as an out-of-range signal that silently drops the fill.
const Invalid = -2

// Axis maps values from an input domain to internal bin indices.
type Axis interface {
	// Extent returns the current number of internal bins, including any
	// underflow/overflow slots.
	Extent() int
	// NumBins returns the number of real (non-underflow/overflow) bins.
	NumBins() int
	// Options returns the axis's option bitset.
	Options() Options
	// Update maps v to an internal index. The returned index is in
	// [-1, NumBins()] before the linearizer's underflow bias is applied:
	// -1 means "below range", NumBins() means "at or above range", and
	// values in between are real bins; Invalid means v could not be
	// mapped at all. shift is nonzero only for
	// growable axes that just enlarged themselves, and reports how many
	// bins were prepended below the previous index 0 (so the linearizer
	// can translate historical indices during a storage rebuild).
	Update(v any) (index int, shift int)
	// Kind identifies the concrete axis type for serialization.
	Kind() Kind
	// EncodeTo writes this axis's kind tag, metadata and option bits.
	EncodeTo(w io.Writer) error
}

// Collection is the shared traversal contract for both the static
// (fixed-rank) and dynamic (runtime-rank) axis collection shapes.
type Collection interface {
	Len() int
	At(i int) Axis
	ForEach(f func(i int, a Axis))
}
