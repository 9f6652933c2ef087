package axis

import (
	"encoding/binary"
	"io"
	"math"
)

// Regular is a real-valued axis with n uniform bins over [lo, hi).
type Regular struct {
	n      int
	lo, hi float64
	opts   Options
}

// NewRegular builds a regular axis. n must be positive and hi must be
// strictly greater than lo.
func NewRegular(n int, lo, hi float64, opts Options) (*Regular, error) {
	if n <= 0 {
		return nil, AxisError{InvalidParameters, "n must be positive"}
	}
	if !(hi > lo) {
		return nil, AxisError{InvalidParameters, "hi must be greater than lo"}
	}
	return &Regular{n: n, lo: lo, hi: hi, opts: opts &^ Growable}, nil
}

func (a *Regular) NumBins() int { return a.n }

func (a *Regular) Extent() int {
	e := a.n
	if a.opts.Has(Underflow) {
		e++
	}
	if a.opts.Has(Overflow) {
		e++
	}
	return e
}

func (a *Regular) Options() Options { return a.opts }
func (a *Regular) Kind() Kind       { return KindRegular }

// Low and High expose the axis's current range, used by callers building
// range-restricted queries and by growable variants that embed a Regular.
func (a *Regular) Low() float64  { return a.lo }
func (a *Regular) High() float64 { return a.hi }

func (a *Regular) Update(v any) (int, int) {
	f, ok := v.(float64)
	if !ok {
		return Invalid, 0
	}
	return a.bin(f), 0
}

// bin returns the pre-bias internal index for f: -1 below range, n at or
// above range, otherwise the real bin index in [0, n).
func (a *Regular) bin(f float64) int {
	if math.IsNaN(f) {
		return Invalid
	}
	if f < a.lo {
		return -1
	}
	if f >= a.hi {
		return a.n
	}
	j := int(float64(a.n) * (f - a.lo) / (a.hi - a.lo))
	if j >= a.n {
		j = a.n - 1
	}
	if j < 0 {
		j = 0
	}
	return j
}

func (a *Regular) EncodeTo(w io.Writer) error {
	if _, err := w.Write([]byte{byte(KindRegular), byte(a.opts)}); err != nil {
		return err
	}
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(a.n))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(a.lo))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(a.hi))
	_, err := w.Write(buf[:])
	return err
}

func decodeRegular(r io.Reader, opts Options) (*Regular, error) {
	var buf [24]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, AxisError{Corrupt, "reading regular axis body: " + err.Error()}
	}
	n := int(binary.LittleEndian.Uint64(buf[0:8]))
	lo := math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16]))
	hi := math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24]))
	return &Regular{n: n, lo: lo, hi: hi, opts: opts}, nil
}
