package axis

import (
	"encoding/binary"
	"io"
)

// Integer is an axis over the consecutive integers {lo, lo+1, ..., hi-1}.
type Integer struct {
	lo, hi int64
	opts   Options
}

// NewInteger builds an integer axis. hi must be strictly greater than lo.
func NewInteger(lo, hi int64, opts Options) (*Integer, error) {
	if hi <= lo {
		return nil, AxisError{InvalidParameters, "hi must be greater than lo"}
	}
	return &Integer{lo: lo, hi: hi, opts: opts &^ Growable}, nil
}

func (a *Integer) NumBins() int { return int(a.hi - a.lo) }

func (a *Integer) Extent() int {
	e := a.NumBins()
	if a.opts.Has(Underflow) {
		e++
	}
	if a.opts.Has(Overflow) {
		e++
	}
	return e
}

func (a *Integer) Options() Options { return a.opts }
func (a *Integer) Kind() Kind       { return KindInteger }
func (a *Integer) Low() int64       { return a.lo }
func (a *Integer) High() int64      { return a.hi }

func (a *Integer) Update(v any) (int, int) {
	i, ok := toInt64(v)
	if !ok {
		return Invalid, 0
	}
	return a.bin(i), 0
}

func (a *Integer) bin(v int64) int {
	if v < a.lo {
		return -1
	}
	if v >= a.hi {
		return a.NumBins()
	}
	return int(v - a.lo)
}

// toInt64 accepts int64, int and int32; any other type (including the
// narrower and unsigned integer kinds) is reported as not convertible.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	default:
		return 0, false
	}
}

func (a *Integer) EncodeTo(w io.Writer) error {
	if _, err := w.Write([]byte{byte(KindInteger), byte(a.opts)}); err != nil {
		return err
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(a.lo))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(a.hi))
	_, err := w.Write(buf[:])
	return err
}

func decodeInteger(r io.Reader, opts Options) (*Integer, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, AxisError{Corrupt, "reading integer axis body: " + err.Error()}
	}
	lo := int64(binary.LittleEndian.Uint64(buf[0:8]))
	hi := int64(binary.LittleEndian.Uint64(buf[8:16]))
	return &Integer{lo: lo, hi: hi, opts: opts}, nil
}
