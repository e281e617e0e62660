package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

const defaultBatchSize = 1000

// ReaderOption configures a RecordReader with filtering criteria.
type ReaderOption func(*RecordReader)

// WithStartTime excludes records logged before startMs.
func WithStartTime(startMs uint32) ReaderOption {
	return func(r *RecordReader) {
		r.startMs = &startMs
	}
}

// WithEndTime excludes records logged after endMs.
func WithEndTime(endMs uint32) ReaderOption {
	return func(r *RecordReader) {
		r.endMs = &endMs
	}
}

// WithTimeRange restricts records to [startMs, endMs] of the logger clock.
func WithTimeRange(startMs, endMs uint32) ReaderOption {
	return func(r *RecordReader) {
		r.startMs = &startMs
		r.endMs = &endMs
	}
}

// WithStates restricts records to the given flight states.
func WithStates(states ...telemetry.FlightState) ReaderOption {
	return func(r *RecordReader) {
		r.states = append(r.states, states...)
	}
}

// WithBatchSize sets how many records are fetched per query.
func WithBatchSize(n int) ReaderOption {
	return func(r *RecordReader) {
		r.batchSize = n
	}
}

// RecordReader iterates over the stored records of a flight.
type RecordReader struct {
	db     *sql.DB
	flight *Flight

	startMs   *uint32
	endMs     *uint32
	states    []telemetry.FlightState
	batchSize int

	query   string
	args    []any
	batch   []*Record
	pos     int
	lastSeq int64
	drained bool

	current *Record
	err     error
	closed  bool
}

func newRecordReader(db *sql.DB, flight *Flight, opts ...ReaderOption) (*RecordReader, error) {
	if db == nil {
		return nil, errors.New("database connection required")
	}

	rr := &RecordReader{
		db:        db,
		flight:    flight,
		batchSize: defaultBatchSize,
		lastSeq:   -1,
	}
	for _, opt := range opts {
		opt(rr)
	}

	if rr.batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size: %d", rr.batchSize)
	}
	if rr.startMs != nil && rr.endMs != nil && *rr.startMs > *rr.endMs {
		return nil, fmt.Errorf("start time %d ms is after end time %d ms", *rr.startMs, *rr.endMs)
	}

	rr.buildQuery()
	return rr, nil
}

func (rr *RecordReader) buildQuery() {
	var sb strings.Builder
	sb.WriteString(selectRecordsSQL)

	if rr.startMs != nil {
		sb.WriteString(" AND record_time_ms >= ?")
		rr.args = append(rr.args, *rr.startMs)
	}
	if rr.endMs != nil {
		sb.WriteString(" AND record_time_ms <= ?")
		rr.args = append(rr.args, *rr.endMs)
	}
	if len(rr.states) > 0 {
		sb.WriteString(" AND state IN (")
		for i, st := range rr.states {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			rr.args = append(rr.args, uint8(st))
		}
		sb.WriteString(")")
	}

	sb.WriteString(" ORDER BY seq LIMIT ?")
	rr.query = sb.String()
}

// Flight returns the flight this reader is accessing.
func (rr *RecordReader) Flight() *Flight {
	return rr.flight
}

// Next advances the iterator and returns true if there is another record to
// read, false when the iteration is complete or an error occurred.
func (rr *RecordReader) Next(ctx context.Context) bool {
	if rr.closed || rr.err != nil {
		return false
	}

	if rr.pos >= len(rr.batch) {
		if rr.drained {
			return false
		}
		if rr.err = rr.fetch(ctx); rr.err != nil {
			return false
		}
		if len(rr.batch) == 0 {
			return false
		}
	}

	rr.current = rr.batch[rr.pos]
	rr.pos++
	return true
}

func (rr *RecordReader) fetch(ctx context.Context) (err error) {
	args := make([]any, 0, len(rr.args)+3)
	args = append(args, rr.flight.ID, rr.lastSeq)
	args = append(args, rr.args...)
	args = append(args, rr.batchSize)

	rows, err := rr.db.QueryContext(ctx, rr.query, args...)
	if err != nil {
		return fmt.Errorf("querying records: %w", err)
	}
	defer closeWithError(rows, &err)

	rr.batch = rr.batch[:0]
	rr.pos = 0
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("scanning record: %w", err)
		}
		rr.batch = append(rr.batch, rec)
		rr.lastSeq = rec.Seq
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterating records: %w", err)
	}

	rr.drained = len(rr.batch) < rr.batchSize
	return nil
}

// Current returns the current record. If called after Next returned false,
// the behavior is undefined.
func (rr *RecordReader) Current() *Record {
	return rr.current
}

// Error returns any error that occurred during iteration.
func (rr *RecordReader) Error() error {
	return rr.err
}

// Close releases the reader. It is safe to call Close multiple times.
func (rr *RecordReader) Close() error {
	rr.closed = true
	rr.batch = nil
	return nil
}
