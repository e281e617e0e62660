package flightlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sync"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for decoder diagnostics.
func WithLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithCloser makes Reader.Close release c.
func WithCloser(c io.Closer) ReaderOption {
	return func(r *Reader) {
		r.closer = c
	}
}

// WithSource names the stream in log messages.
func WithSource(name string) ReaderOption {
	return func(r *Reader) {
		r.source = name
	}
}

// Reader decodes a flight log one record at a time.
//
// The sequence is lazy, finite and cannot be restarted: decoding the same log
// again requires a new Reader over a fresh stream. A Reader must only be used
// from a single goroutine.
type Reader struct {
	br     *bufio.Reader
	header Header
	source string
	logger *slog.Logger
	closer io.Closer

	buf       []byte
	current   *telemetry.FlightRecord
	count     int
	offset    int64
	truncated *TruncatedRecordError
	err       error
	done      bool

	closeOnce sync.Once
	closeErr  error
}

// NewReader sniffs the log header and prepares a Reader positioned at the first
// record. It returns a *ConfigError when the declared record size does not
// match RecordSize, in which case no records are read.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	lr := &Reader{
		br:     bufio.NewReader(r),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		buf:    make([]byte, RecordSize),
	}
	for _, opt := range opts {
		opt(lr)
	}

	lr.header = SniffHeader(lr.br)
	lr.offset = lr.header.DataOffset

	lr.logger.Debug("log header",
		slog.String("source", lr.source),
		slog.Bool("present", lr.header.Present),
		slog.Int("version", int(lr.header.Version)),
		slog.Int("recordSize", lr.header.RecordSize))

	// Only the size is checked: a newer version with the same layout size is
	// accepted as is.
	if lr.header.RecordSize != RecordSize {
		return nil, NewConfigError(lr.header.RecordSize, RecordSize, lr.header.Version)
	}

	return lr, nil
}

// Header returns the header found at the start of the stream.
func (r *Reader) Header() Header {
	return r.header
}

// Next advances to the next record. It returns false at the end of the log,
// on a truncated trailing record, on a read error or when ctx is done. Use
// Err to tell errors apart from the end of data and Truncated to detect a
// dropped partial record.
func (r *Reader) Next(ctx context.Context) bool {
	if r.done {
		return false
	}
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	n, err := io.ReadFull(r.br, r.buf)
	switch {
	case err == io.EOF:
		r.done = true
		return false

	case errors.Is(err, io.ErrUnexpectedEOF):
		r.truncated = &TruncatedRecordError{Offset: r.offset, Length: n, RecordSize: RecordSize}
		r.logger.Warn("dropping truncated trailing record",
			slog.String("source", r.source),
			slog.Int64("offset", r.offset),
			slog.Int("length", n),
			slog.Int("records", r.count))
		r.done = true
		return false

	case err != nil:
		return r.fail(fmt.Errorf("reading record %d: %w", r.count, err))
	}

	var rec telemetry.FlightRecord
	if err = UnmarshalRecord(r.buf, &rec); err != nil {
		return r.fail(fmt.Errorf("record %d: %w", r.count, err))
	}

	r.current = &rec
	r.offset += int64(n)
	r.count++
	return true
}

func (r *Reader) fail(err error) bool {
	r.err = err
	r.done = true
	return false
}

// Current returns the record decoded by the last successful call to Next.
func (r *Reader) Current() *telemetry.FlightRecord {
	return r.current
}

// Err returns the error that stopped iteration, if any. A truncated trailing
// record is not an error.
func (r *Reader) Err() error {
	return r.err
}

// Truncated returns the trailing partial record that ended iteration, or nil
// if the log ended on a record boundary.
func (r *Reader) Truncated() *TruncatedRecordError {
	return r.truncated
}

// Count returns the number of records decoded so far.
func (r *Reader) Count() int {
	return r.count
}

// Offset returns the stream offset of the next record.
func (r *Reader) Offset() int64 {
	return r.offset
}

// All returns the remaining records as an iterator. Iteration stops under the
// same conditions as Next.
func (r *Reader) All(ctx context.Context) iter.Seq[*telemetry.FlightRecord] {
	return func(yield func(*telemetry.FlightRecord) bool) {
		for r.Next(ctx) {
			if !yield(r.Current()) {
				return
			}
		}
	}
}

// Close releases the underlying stream if the Reader owns it. It is safe to
// call Close multiple times.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		r.done = true
		if r.closer != nil {
			r.closeErr = r.closer.Close()
		}
	})
	return r.closeErr
}

// Open opens the log file at path for decoding. It returns a
// *MissingInputError when the file does not exist and a *ConfigError when the
// record size is incompatible; in both cases no file handle is left open.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewMissingInputError(path, err)
		}
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	opts = append([]ReaderOption{WithSource(path)}, opts...)
	opts = append(opts, WithCloser(f))

	r, err := NewReader(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}
