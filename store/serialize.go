package store

import (
	"bytes"
	"encoding/binary"
	"io"
)

// depthTag maps a Depth to the single byte written to the wire, keeping
// the on-disk encoding stable even if Depth's internal numbering ever
// changes.
func depthTag(d Depth) byte {
	switch d {
	case Depth1:
		return 1
	case Depth2:
		return 2
	case Depth4:
		return 3
	case Depth8:
		return 4
	case DepthWeighted:
		return 5
	default:
		invariantViolation("invalid depth for serialization")
		return 0
	}
}

func depthFromTag(tag byte) (Depth, error) {
	switch tag {
	case 1:
		return Depth1, nil
	case 2:
		return Depth2, nil
	case 3:
		return Depth4, nil
	case 4:
		return Depth8, nil
	case 5:
		return DepthWeighted, nil
	default:
		return 0, StoreError{Corrupt, "unknown depth tag"}
	}
}

// EncodeTo writes the store's binary framing: a varint size, a depth tag
// byte, a zero-suppression flag, and the payload. A store at Depth0 is
// framed as if it were Depth1 (all zero), since Depth0 exists only as a
// lazy-allocation hint and carries no observable state.
func (s *Store) EncodeTo(w io.Writer) error {
	depth := s.depth
	if depth == Depth0 {
		depth = Depth1
	}
	width := cellWidth(depth)

	var header bytes.Buffer
	var sizeBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(sizeBuf[:], uint64(s.size))
	header.Write(sizeBuf[:n])
	header.WriteByte(depthTag(depth))
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}

	raw := s.buf
	if raw == nil {
		raw = make([]byte, s.size*width)
	}

	suppressed, ok := encodeZeroSuppressed(raw, width)
	useSuppressed := ok && len(suppressed) < len(raw)

	if useSuppressed {
		if _, err := w.Write([]byte{1}); err != nil {
			return err
		}
		_, err := w.Write(suppressed)
		return err
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	_, err := w.Write(raw)
	return err
}

// DecodeFrom reads a store's binary framing as written by EncodeTo,
// replacing the receiver's contents entirely. It reports a Corrupt error
// on any structural inconsistency rather than leaving the store partially
// constructed.
func (s *Store) DecodeFrom(r io.Reader) error {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReaderWrap{r: r}
	}
	size, err := binary.ReadUvarint(br)
	if err != nil {
		return StoreError{Corrupt, "reading size: " + err.Error()}
	}
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return StoreError{Corrupt, "reading depth tag: " + err.Error()}
	}
	depth, err := depthFromTag(tagBuf[0])
	if err != nil {
		return err
	}
	width := cellWidth(depth)

	var flagBuf [1]byte
	if _, err := io.ReadFull(r, flagBuf[:]); err != nil {
		return StoreError{Corrupt, "reading zero-suppression flag: " + err.Error()}
	}

	raw := make([]byte, int(size)*width)
	if flagBuf[0] == 1 {
		if err := decodeZeroSuppressed(r, raw, width); err != nil {
			return err
		}
	} else {
		if _, err := io.ReadFull(r, raw); err != nil {
			return StoreError{Corrupt, "reading raw payload: " + err.Error()}
		}
	}

	s.size = int(size)
	s.depth = depth
	s.buf = raw
	return nil
}

type byteReaderWrap struct{ r io.Reader }

func (b *byteReaderWrap) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// encodeZeroSuppressed emits a run-length stream: a record count followed,
// for each nonzero cell (in index order), by the number of zero cells
// since the previous nonzero cell and the cell's raw bytes. Trailing
// zeros after the last nonzero cell need no encoding -- the decoder knows
// the total cell count from the header and leaves the rest at zero. ok is
// false if the payload has no cells at all (nothing to suppress).
func encodeZeroSuppressed(raw []byte, width int) ([]byte, bool) {
	n := len(raw) / width
	if n == 0 {
		return nil, false
	}
	type record struct {
		gap int
		off int
	}
	var records []record
	gap := 0
	for i := 0; i < n; i++ {
		if isZeroCell(raw[i*width : i*width+width]) {
			gap++
			continue
		}
		records = append(records, record{gap: gap, off: i * width})
		gap = 0
	}

	var buf bytes.Buffer
	var varintBuf [binary.MaxVarintLen64]byte
	m := binary.PutUvarint(varintBuf[:], uint64(len(records)))
	buf.Write(varintBuf[:m])
	for _, rec := range records {
		m := binary.PutUvarint(varintBuf[:], uint64(rec.gap))
		buf.Write(varintBuf[:m])
		buf.Write(raw[rec.off : rec.off+width])
	}
	return buf.Bytes(), true
}

func decodeZeroSuppressed(r io.Reader, raw []byte, width int) error {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReaderWrap{r: r}
	}
	numRecords, err := binary.ReadUvarint(br)
	if err != nil {
		return StoreError{Corrupt, "reading record count: " + err.Error()}
	}
	n := len(raw) / width
	pos := 0
	for k := uint64(0); k < numRecords; k++ {
		gap, err := binary.ReadUvarint(br)
		if err != nil {
			return StoreError{Corrupt, "reading gap: " + err.Error()}
		}
		pos += int(gap)
		if pos >= n {
			return StoreError{Corrupt, "zero-suppressed stream overruns store size"}
		}
		cell := raw[pos*width : pos*width+width]
		if _, err := io.ReadFull(r, cell); err != nil {
			return StoreError{Corrupt, "reading cell payload: " + err.Error()}
		}
		pos++
	}
	return nil
}

func isZeroCell(cell []byte) bool {
	for _, b := range cell {
		if b != 0 {
			return false
		}
	}
	return true
}

// Bytes returns the store's payload encoded with EncodeTo, as a
// convenience for callers that want a []byte rather than a Writer.
func (s *Store) Bytes() []byte {
	var buf bytes.Buffer
	// EncodeTo never fails against a bytes.Buffer.
	_ = s.EncodeTo(&buf)
	return buf.Bytes()
}

// FromBytes decodes a store previously produced by Bytes/EncodeTo.
func FromBytes(b []byte) (*Store, error) {
	s := &Store{}
	if err := s.DecodeFrom(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return s, nil
}
