package flightlog

import (
	"bufio"
	"fmt"
	"io"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithHeader makes the Writer emit an RLG1 header with the given version
// before the first record.
func WithHeader(version uint16) WriterOption {
	return func(w *Writer) {
		w.header = &Header{Present: true, Version: version, RecordSize: RecordSize, DataOffset: HeaderSize}
	}
}

// Writer produces flight logs in the same layout the flight controller uses.
type Writer struct {
	w           *bufio.Writer
	header      *Header
	wroteHeader bool
	buf         []byte
	count       int
}

func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	lw := &Writer{
		w:   bufio.NewWriter(w),
		buf: make([]byte, 0, RecordSize),
	}
	for _, opt := range opts {
		opt(lw)
	}
	return lw
}

func (w *Writer) writeHeader() error {
	if w.wroteHeader || w.header == nil {
		return nil
	}
	w.wroteHeader = true

	p, err := w.header.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err = w.w.Write(p); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Write appends a single record.
func (w *Writer) Write(r *telemetry.FlightRecord) error {
	if err := w.writeHeader(); err != nil {
		return err
	}

	p, err := AppendRecord(w.buf[:0], r)
	if err != nil {
		return err
	}
	if _, err = w.w.Write(p); err != nil {
		return fmt.Errorf("writing record %d: %w", w.count, err)
	}
	w.count++
	return nil
}

// Flush writes any buffered data, including the header of an empty log.
func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.w.Flush()
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}
