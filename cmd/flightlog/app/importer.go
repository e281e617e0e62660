package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/ingest"
	"github.com/roman-kulish/flightlog/internal/storage"
)

// WithMaxBatchSize sets the maximum number of records to store within a
// single database transaction.
func WithMaxBatchSize(size int) func(*Importer) {
	return func(i *Importer) {
		i.maxBatchSize = size
	}
}

// WithCSVDirectory also writes every imported log as CSV into dir.
func WithCSVDirectory(dir string) func(*Importer) {
	return func(i *Importer) {
		i.csvDirectory = dir
	}
}

// Importer archives flight logs one after another. A log that cannot be
// decoded is reported and skipped; the remaining logs are still imported.
type Importer struct {
	logger *slog.Logger
	store  storage.Store

	maxBatchSize int
	csvDirectory string
}

// NewImporter creates a new Importer
func NewImporter(store storage.Store, logger *slog.Logger, options ...func(*Importer)) *Importer {
	i := Importer{
		logger: logger,
		store:  store,
	}

	for _, option := range options {
		option(&i)
	}

	return &i
}

// Run imports paths in order. It returns an error when the context is
// cancelled or when at least one log failed.
func (i *Importer) Run(ctx context.Context, paths []string) error {
	converter := ingest.NewConverter(i.logger,
		ingest.WithStore(i.store),
		ingest.WithMaxBatchSize(i.maxBatchSize))

	var failed, records int
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := converter.Convert(ctx, path, i.csvPath(path))
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("importing '%s': %w", path, err)
			}

			failed++
			i.logImportError(path, err)
			continue
		}

		records += res.Records
		attrs := []any{
			slog.String("path", path),
			slog.Int64("flightID", res.FlightID),
			slog.String("records", humanize.Comma(int64(res.Records))),
			slog.Bool("header", res.Header.Present),
		}
		if res.Truncated != nil {
			attrs = append(attrs, slog.Int("truncatedBytes", res.Truncated.Length))
		}
		if res.CSVPath != "" {
			attrs = append(attrs, slog.String("csv", res.CSVPath))
		}
		i.logger.Info("imported flight log", attrs...)
	}

	i.logger.Info("import finished",
		slog.Int("files", len(paths)),
		slog.Int("failed", failed),
		slog.String("records", humanize.Comma(int64(records))))

	if failed > 0 {
		return fmt.Errorf("%d of %d flight logs could not be imported", failed, len(paths))
	}

	return nil
}

func (i *Importer) csvPath(input string) string {
	if i.csvDirectory == "" {
		return ""
	}

	base := filepath.Base(input)
	return filepath.Join(i.csvDirectory, strings.TrimSuffix(base, filepath.Ext(base))+".csv")
}

func (i *Importer) logImportError(path string, err error) {
	var (
		cfgErr     *flightlog.ConfigError
		missingErr *flightlog.MissingInputError
	)

	switch {
	case errors.As(err, &cfgErr):
		i.logger.Error("skipping flight log with unexpected record layout",
			slog.String("path", path),
			slog.Int("declared", cfgErr.Declared),
			slog.Int("expected", cfgErr.Expected),
			slog.Int("version", int(cfgErr.Version)))

	case errors.As(err, &missingErr):
		i.logger.Error("skipping missing flight log", slog.String("path", path))

	default:
		i.logger.Error(fmt.Sprintf("importing flight log: %s", err.Error()), slog.String("path", path))
	}
}
