package axis

import "io"

// Decode reads one axis previously written by Axis.EncodeTo: a kind tag,
// an option-bits byte, then kind-specific metadata.
func Decode(r io.Reader) (Axis, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, AxisError{Corrupt, "reading axis header: " + err.Error()}
	}
	opts := Options(head[1])
	switch Kind(head[0]) {
	case KindRegular:
		return decodeRegular(r, opts)
	case KindInteger:
		return decodeInteger(r, opts)
	case KindCategorical:
		return decodeCategorical(r, opts)
	case KindGrowableRegular:
		return decodeGrowableRegular(r)
	case KindGrowableInteger:
		return decodeGrowableInteger(r)
	default:
		return nil, AxisError{Corrupt, "unknown axis kind tag"}
	}
}

// EncodeCollection writes every axis in c, in order, each framed by its
// own EncodeTo.
func EncodeCollection(w io.Writer, c Collection) error {
	for i := 0; i < c.Len(); i++ {
		if err := c.At(i).EncodeTo(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStatic reads n axes and returns them as a frozen Static
// collection.
func DecodeStatic(r io.Reader, n int) (*Static, error) {
	axes := make([]Axis, n)
	for i := 0; i < n; i++ {
		a, err := Decode(r)
		if err != nil {
			return nil, err
		}
		axes[i] = a
	}
	return NewStatic(axes...), nil
}
