package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roman-kulish/flightlog/internal/export"
	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/storage"
	"github.com/roman-kulish/flightlog/internal/telemetry"
)

const defaultMaxBatchSize = 500

// ErrOutputIsInput is returned when the CSV path names the log being read.
var ErrOutputIsInput = errors.New("output file is the input log")

// WithMaxBatchSize sets the maximum number of records stored within a single
// database transaction.
func WithMaxBatchSize(size int) func(*Converter) {
	return func(c *Converter) {
		c.maxBatchSize = size
	}
}

// WithStore archives every converted log into store.
func WithStore(store storage.Store) func(*Converter) {
	return func(c *Converter) {
		c.store = store
	}
}

// Result describes a converted log.
type Result struct {
	Source    string
	Header    flightlog.Header
	Records   int
	Truncated *flightlog.TruncatedRecordError
	Summary   *telemetry.Summary
	FlightID  int64  // Archive identifier, zero when no store is configured
	CSVPath   string // Empty when no CSV was written
}

// Converter decodes flight logs and feeds the records to a CSV file and,
// optionally, to the flight archive.
type Converter struct {
	logger       *slog.Logger
	store        storage.Store
	maxBatchSize int
}

func NewConverter(logger *slog.Logger, options ...func(*Converter)) *Converter {
	c := Converter{
		logger:       logger,
		maxBatchSize: defaultMaxBatchSize,
	}

	for _, option := range options {
		option(&c)
	}

	if c.maxBatchSize <= 0 {
		c.maxBatchSize = defaultMaxBatchSize
	}

	return &c
}

// Convert decodes the log at inputPath. When csvPath is not empty the records
// are written there as CSV. Decoding errors are reported before any output is
// created; on a later failure the partial CSV and archive entry are removed.
func (c *Converter) Convert(ctx context.Context, inputPath, csvPath string) (res *Result, err error) {
	r, err := flightlog.Open(inputPath, flightlog.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	defer closeWithError(r, &err)

	res = &Result{
		Source:  inputPath,
		Header:  r.Header(),
		Summary: telemetry.NewSummary(),
		CSVPath: csvPath,
	}

	var sinks []sink
	defer func() {
		if err != nil {
			for _, s := range sinks {
				s.abort(context.WithoutCancel(ctx), c.logger)
			}
		}
	}()

	if csvPath != "" {
		if err = checkDistinct(inputPath, csvPath); err != nil {
			return nil, err
		}

		s, err := newCSVSink(csvPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if c.store != nil {
		s, err := newStoreSink(ctx, c.store, c.maxBatchSize, &storage.FlightSource{
			Path:          inputPath,
			HasHeader:     res.Header.Present,
			FormatVersion: res.Header.Version,
			RecordSize:    res.Header.RecordSize,
		})
		if err != nil {
			return nil, err
		}
		res.FlightID = s.flightID
		sinks = append(sinks, s)
	}

	for rec := range r.All(ctx) {
		res.Summary.Update(rec)
		for _, s := range sinks {
			if err = s.write(ctx, rec); err != nil {
				return nil, err
			}
		}
	}
	if err = r.Err(); err != nil {
		return nil, fmt.Errorf("decoding '%s': %w", inputPath, err)
	}

	res.Records = r.Count()
	res.Truncated = r.Truncated()

	for _, s := range sinks {
		if err = s.finish(ctx, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// checkDistinct fails when output resolves to the same file as input, which
// creating the output would truncate.
func checkDistinct(input, output string) error {
	out, err := os.Stat(output)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking output file: %w", err)
	}

	in, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("checking input file: %w", err)
	}
	if os.SameFile(in, out) {
		return fmt.Errorf("'%s': %w", output, ErrOutputIsInput)
	}
	return nil
}

// sink receives the records of a single conversion.
type sink interface {
	write(ctx context.Context, rec *telemetry.FlightRecord) error
	finish(ctx context.Context, res *Result) error
	abort(ctx context.Context, logger *slog.Logger)
}

type csvSink struct {
	path string
	f    *os.File
	w    *export.CSVWriter
	done bool
}

func newCSVSink(path string) (*csvSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating CSV file: %w", err)
	}

	s := &csvSink{path: path, f: f, w: export.NewCSVWriter(f)}
	if err = s.w.WriteHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *csvSink) write(_ context.Context, rec *telemetry.FlightRecord) error {
	return s.w.Write(rec)
}

func (s *csvSink) finish(context.Context, *Result) error {
	s.done = true
	if err := s.w.Flush(); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("writing CSV file: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("closing CSV file: %w", err)
	}
	return nil
}

func (s *csvSink) abort(_ context.Context, logger *slog.Logger) {
	if !s.done {
		_ = s.f.Close()
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("removing partial CSV file", slog.String("path", s.path), slog.String("error", err.Error()))
	}
}

type storeSink struct {
	store        storage.Store
	flightID     int64
	maxBatchSize int
	batch        []telemetry.FlightRecord
	seq          int64
}

func newStoreSink(ctx context.Context, store storage.Store, maxBatchSize int, src *storage.FlightSource) (*storeSink, error) {
	id, err := store.CreateFlight(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("creating flight: %w", err)
	}

	return &storeSink{
		store:        store,
		flightID:     id,
		maxBatchSize: maxBatchSize,
		batch:        make([]telemetry.FlightRecord, 0, maxBatchSize),
	}, nil
}

func (s *storeSink) write(ctx context.Context, rec *telemetry.FlightRecord) error {
	s.batch = append(s.batch, *rec)
	if len(s.batch) < s.maxBatchSize {
		return nil
	}
	return s.flush(ctx)
}

func (s *storeSink) flush(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	if err := s.store.StoreRecords(ctx, s.flightID, s.seq, s.batch); err != nil {
		return fmt.Errorf("storing records: %w", err)
	}
	s.seq += int64(len(s.batch))
	s.batch = s.batch[:0]
	return nil
}

func (s *storeSink) finish(ctx context.Context, res *Result) error {
	if err := s.flush(ctx); err != nil {
		return err
	}

	var truncated int
	if res.Truncated != nil {
		truncated = res.Truncated.Length
	}
	if err := s.store.FinishFlight(ctx, s.flightID, res.Records, truncated); err != nil {
		return fmt.Errorf("finishing flight: %w", err)
	}
	return nil
}

func (s *storeSink) abort(ctx context.Context, logger *slog.Logger) {
	if err := s.store.DeleteFlight(ctx, s.flightID); err != nil {
		logger.Warn("removing partial flight", slog.Int64("flightID", s.flightID), slog.String("error", err.Error()))
	}
}

func closeWithError(cl io.Closer, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
