package axis

import (
	"encoding/binary"
	"io"
	"math"
)

// GrowableRegular is a real-valued axis with a fixed bin width that
// extends its range in whole-bin steps whenever a fill lands outside the
// current [lo, hi). It never carries underflow/overflow bins: growth
// replaces both.
type GrowableRegular struct {
	lo, hi, step float64
}

// NewGrowableRegular builds a growable regular axis with n initial bins
// covering [lo, hi); n and (hi-lo) fix the bin width used for all future
// growth.
func NewGrowableRegular(n int, lo, hi float64) (*GrowableRegular, error) {
	if n <= 0 {
		return nil, AxisError{InvalidParameters, "n must be positive"}
	}
	if !(hi > lo) {
		return nil, AxisError{InvalidParameters, "hi must be greater than lo"}
	}
	return &GrowableRegular{lo: lo, hi: hi, step: (hi - lo) / float64(n)}, nil
}

func (a *GrowableRegular) NumBins() int {
	return int(math.Round((a.hi - a.lo) / a.step))
}

func (a *GrowableRegular) Extent() int      { return a.NumBins() }
func (a *GrowableRegular) Options() Options { return Growable }
func (a *GrowableRegular) Kind() Kind       { return KindGrowableRegular }
func (a *GrowableRegular) Low() float64     { return a.lo }
func (a *GrowableRegular) High() float64    { return a.hi }

func (a *GrowableRegular) Update(v any) (int, int) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) {
		return Invalid, 0
	}
	shift := 0
	if f < a.lo {
		steps := int(math.Ceil((a.lo - f) / a.step))
		a.lo -= float64(steps) * a.step
		shift = steps
	} else if f >= a.hi {
		steps := int(math.Ceil((f - a.hi + a.step) / a.step))
		a.hi += float64(steps) * a.step
	}
	j := int(math.Floor((f - a.lo) / a.step))
	n := a.NumBins()
	if j >= n {
		j = n - 1
	}
	if j < 0 {
		j = 0
	}
	return j, shift
}

func (a *GrowableRegular) EncodeTo(w io.Writer) error {
	if _, err := w.Write([]byte{byte(KindGrowableRegular), byte(Growable)}); err != nil {
		return err
	}
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(a.lo))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(a.hi))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(a.step))
	_, err := w.Write(buf[:])
	return err
}

func decodeGrowableRegular(r io.Reader) (*GrowableRegular, error) {
	var buf [24]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, AxisError{Corrupt, "reading growable regular axis body: " + err.Error()}
	}
	return &GrowableRegular{
		lo:   math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8])),
		hi:   math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		step: math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
	}, nil
}

// GrowableInteger is an integer axis that extends its [lo, hi) range in
// unit steps whenever a fill lands outside it.
type GrowableInteger struct {
	lo, hi int64
}

// NewGrowableInteger builds a growable integer axis with initial range
// [lo, hi).
func NewGrowableInteger(lo, hi int64) (*GrowableInteger, error) {
	if hi <= lo {
		return nil, AxisError{InvalidParameters, "hi must be greater than lo"}
	}
	return &GrowableInteger{lo: lo, hi: hi}, nil
}

func (a *GrowableInteger) NumBins() int     { return int(a.hi - a.lo) }
func (a *GrowableInteger) Extent() int      { return a.NumBins() }
func (a *GrowableInteger) Options() Options { return Growable }
func (a *GrowableInteger) Kind() Kind       { return KindGrowableInteger }
func (a *GrowableInteger) Low() int64       { return a.lo }
func (a *GrowableInteger) High() int64      { return a.hi }

func (a *GrowableInteger) Update(v any) (int, int) {
	i, ok := toInt64(v)
	if !ok {
		return Invalid, 0
	}
	shift := 0
	if i < a.lo {
		shift = int(a.lo - i)
		a.lo = i
	} else if i >= a.hi {
		a.hi = i + 1
	}
	return int(i - a.lo), shift
}

func (a *GrowableInteger) EncodeTo(w io.Writer) error {
	if _, err := w.Write([]byte{byte(KindGrowableInteger), byte(Growable)}); err != nil {
		return err
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(a.lo))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(a.hi))
	_, err := w.Write(buf[:])
	return err
}

func decodeGrowableInteger(r io.Reader) (*GrowableInteger, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, AxisError{Corrupt, "reading growable integer axis body: " + err.Error()}
	}
	return &GrowableInteger{
		lo: int64(binary.LittleEndian.Uint64(buf[0:8])),
		hi: int64(binary.LittleEndian.Uint64(buf[8:16])),
	}, nil
}
