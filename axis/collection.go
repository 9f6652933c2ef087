package axis

// Static is a fixed-rank, ordered collection of axes: once built, its
// length never changes. Go has no variadic generics over heterogeneous
// concrete types, so the tuple is represented as an interface slice
// rather than a literal product type, but the rank is still frozen at
// construction.
type Static struct {
	axes []Axis
}

// NewStatic freezes the given axes, in order, into a Static collection.
func NewStatic(axes ...Axis) *Static {
	return &Static{axes: append([]Axis(nil), axes...)}
}

func (s *Static) Len() int      { return len(s.axes) }
func (s *Static) At(i int) Axis { return s.axes[i] }
func (s *Static) ForEach(f func(i int, a Axis)) {
	for i, a := range s.axes {
		f(i, a)
	}
}

// Dynamic is a runtime-rank, ordered sequence of axes that callers may
// still be appending to. Axis is already an interface, so no separate
// tagged-union wrapper is needed to hold heterogeneous kinds.
type Dynamic struct {
	axes []Axis
}

// NewDynamic returns an empty Dynamic collection.
func NewDynamic() *Dynamic { return &Dynamic{} }

// Append adds an axis to the end of the collection.
func (d *Dynamic) Append(a Axis) { d.axes = append(d.axes, a) }

func (d *Dynamic) Len() int      { return len(d.axes) }
func (d *Dynamic) At(i int) Axis { return d.axes[i] }
func (d *Dynamic) ForEach(f func(i int, a Axis)) {
	for i, a := range d.axes {
		f(i, a)
	}
}
