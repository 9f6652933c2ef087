package axis

import (
	"encoding/binary"
	"io"

	boom "github.com/tylertreat/BoomFilters"
)

// Categorical is an axis over a finite, ordered set of string labels. It
// never has an underflow bin (there is no ordering to underflow from);
// its overflow bin, when enabled, collects labels outside the known set.
//
// When overflow is enabled, unknown labels are additionally tracked in a
// count-min sketch so a caller can ask, after the fact, roughly how often
// a particular unknown label was seen -- richer than the single overflow
// counter alone, the way godb's StringHistogram approximates per-value
// frequency for an unbounded string domain.
type Categorical struct {
	labels []string
	index  map[string]int
	opts   Options
	cms    *boom.CountMinSketch
}

// NewCategorical builds a categorical axis over the given labels, in
// order. Options must not include Underflow.
func NewCategorical(labels []string, opts Options) (*Categorical, error) {
	if opts.Has(Underflow) {
		return nil, AxisError{InvalidParameters, "categorical axes have no underflow bin"}
	}
	if len(labels) == 0 {
		return nil, AxisError{InvalidParameters, "at least one label is required"}
	}
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	c := &Categorical{labels: append([]string(nil), labels...), index: idx, opts: opts &^ (Growable | Underflow)}
	if opts.Has(Overflow) {
		c.cms = boom.NewCountMinSketch(0.001, 0.999)
	}
	return c, nil
}

func (a *Categorical) NumBins() int { return len(a.labels) }

func (a *Categorical) Extent() int {
	e := len(a.labels)
	if a.opts.Has(Overflow) {
		e++
	}
	return e
}

func (a *Categorical) Options() Options { return a.opts }
func (a *Categorical) Kind() Kind       { return KindCategorical }
func (a *Categorical) Labels() []string { return append([]string(nil), a.labels...) }

func (a *Categorical) Update(v any) (int, int) {
	s, ok := v.(string)
	if !ok {
		return Invalid, 0
	}
	if i, found := a.index[s]; found {
		return i, 0
	}
	if !a.opts.Has(Overflow) {
		return Invalid, 0
	}
	if a.cms != nil {
		a.cms.Add([]byte(s))
	}
	return len(a.labels), 0
}

// EstimateOverflowFrequency returns the count-min sketch's approximate
// count for label, as a fraction of all overflowed labels observed so
// far. It returns 0 if overflow tracking is disabled or nothing has
// overflowed yet.
func (a *Categorical) EstimateOverflowFrequency(label string) float64 {
	if a.cms == nil {
		return 0
	}
	total := a.cms.TotalCount()
	if total == 0 {
		return 0
	}
	return float64(a.cms.Count([]byte(label))) / float64(total)
}

func (a *Categorical) EncodeTo(w io.Writer) error {
	if _, err := w.Write([]byte{byte(KindCategorical), byte(a.opts)}); err != nil {
		return err
	}
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(a.labels)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}
	for _, l := range a.labels {
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(l)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, l); err != nil {
			return err
		}
	}
	return nil
}

func decodeCategorical(r io.Reader, opts Options) (*Categorical, error) {
	var countBuf [8]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, AxisError{Corrupt, "reading label count: " + err.Error()}
	}
	n := binary.LittleEndian.Uint64(countBuf[:])
	labels := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		var lenBuf [8]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, AxisError{Corrupt, "reading label length: " + err.Error()}
		}
		l := binary.LittleEndian.Uint64(lenBuf[:])
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, AxisError{Corrupt, "reading label bytes: " + err.Error()}
		}
		labels = append(labels, string(buf))
	}
	return NewCategorical(labels, opts)
}
