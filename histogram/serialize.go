package histogram

import (
	"encoding/binary"
	"io"

	"github.com/tikkisean/nhist/axis"
	"github.com/tikkisean/nhist/store"
)

// EncodeTo writes the histogram's full binary framing: a rank varint, each
// axis's own EncodeTo in dimension order, then the backing store's framing.
func (h *Histogram) EncodeTo(w io.Writer) error {
	var rankBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(rankBuf[:], uint64(len(h.axes)))
	if _, err := w.Write(rankBuf[:n]); err != nil {
		return err
	}
	for _, a := range h.axes {
		if err := a.EncodeTo(w); err != nil {
			return err
		}
	}
	return h.st.EncodeTo(w)
}

// Decode reads a histogram previously written by EncodeTo.
func Decode(r io.Reader) (*Histogram, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReaderWrap{r: r}
	}
	rank, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, HistError{Corrupt, "reading rank: " + err.Error()}
	}

	axes := make([]axis.Axis, rank)
	extents := make([]int, rank)
	for i := range axes {
		a, err := axis.Decode(r)
		if err != nil {
			logger.Printf("nhist: corrupt axis stream at index %d: %v", i, err)
			return nil, HistError{Corrupt, err.Error()}
		}
		axes[i] = a
		extents[i] = a.Extent()
	}

	st := &store.Store{}
	if err := st.DecodeFrom(r); err != nil {
		logger.Printf("nhist: corrupt store stream: %v", err)
		return nil, HistError{Corrupt, err.Error()}
	}

	return &Histogram{axes: axes, extents: extents, st: st}, nil
}

type byteReaderWrap struct{ r io.Reader }

func (b *byteReaderWrap) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
