package flightlog

import (
	"bufio"
	"bytes"
)

// Header describes how the records of a log are framed.
type Header struct {
	Present    bool   // The file starts with an RLG1 header
	Version    uint16 // Format version, zero when no header is present
	RecordSize int    // Declared record size in bytes
	DataOffset int64  // Offset of the first record
}

func legacyHeader() Header {
	return Header{RecordSize: RecordSize}
}

// SniffHeader inspects the start of the stream for an RLG1 header. When one is
// found its bytes are consumed; otherwise nothing is consumed and the legacy
// record size applies. It never fails: short or unreadable streams are treated
// as headerless.
func SniffHeader(br *bufio.Reader) Header {
	p, err := br.Peek(HeaderSize)
	if err != nil || len(p) < HeaderSize {
		return legacyHeader()
	}
	if !bytes.Equal(p[:4], HeaderMagic[:]) {
		return legacyHeader()
	}

	h := Header{
		Present:    true,
		Version:    byteOrder.Uint16(p[4:6]),
		RecordSize: int(byteOrder.Uint16(p[6:8])),
		DataOffset: HeaderSize,
	}
	_, _ = br.Discard(HeaderSize)
	return h
}

// MarshalBinary encodes the header into its 8 byte on-disk form.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	copy(buf, HeaderMagic[:])
	byteOrder.PutUint16(buf[4:6], h.Version)
	byteOrder.PutUint16(buf[6:8], uint16(h.RecordSize))
	return buf, nil
}
