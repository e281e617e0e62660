package flightlog

import (
	"encoding/binary"
	"fmt"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

const (
	// RecordSize is the packed size of telemetry.FlightRecord on disk.
	RecordSize = 103

	// HeaderSize is the size of the optional RLG1 file header.
	HeaderSize = 8
)

// HeaderMagic opens logs written with the self-describing header.
var HeaderMagic = [4]byte{'R', 'L', 'G', '1'}

var byteOrder = binary.LittleEndian

func init() {
	if n := binary.Size(telemetry.FlightRecord{}); n != RecordSize {
		panic(fmt.Sprintf("flightlog: FlightRecord layout is %d bytes, expected %d", n, RecordSize))
	}
}

// UnmarshalRecord decodes exactly one packed record from p into r.
func UnmarshalRecord(p []byte, r *telemetry.FlightRecord) error {
	if len(p) != RecordSize {
		return fmt.Errorf("invalid record length: %d != %d", len(p), RecordSize)
	}
	if _, err := binary.Decode(p, byteOrder, r); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	return nil
}

// MarshalRecord encodes r into its packed on-disk form.
func MarshalRecord(r *telemetry.FlightRecord) ([]byte, error) {
	return AppendRecord(make([]byte, 0, RecordSize), r)
}

// AppendRecord appends the packed form of r to buf.
func AppendRecord(buf []byte, r *telemetry.FlightRecord) ([]byte, error) {
	buf, err := binary.Append(buf, byteOrder, r)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return buf, nil
}
