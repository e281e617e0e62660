package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/ingest"
	"github.com/roman-kulish/flightlog/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	stat, err := os.Stat(config.InputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return flightlog.NewMissingInputError(config.InputPath, err)
		}
		return fmt.Errorf("reading input file: %w", err)
	}

	var opts []func(*ingest.Converter)
	if config.DBPath != "" {
		store := storage.NewSqliteStore(config.DBPath)
		defer func() {
			if cErr := store.Close(); cErr != nil && err == nil {
				err = fmt.Errorf("closing database: %w", cErr)
			}
		}()
		opts = append(opts, ingest.WithStore(store))
	}

	res, err := ingest.NewConverter(logger, opts...).Convert(ctx, config.InputPath, config.OutputPath)
	if err != nil {
		var cfgErr *flightlog.ConfigError
		if errors.As(err, &cfgErr) {
			return fmt.Errorf("'%s' cannot be decoded, the record layout has changed or it is a different log format: %w",
				config.InputPath, err)
		}
		return err
	}

	attrs := []any{
		slog.String("input", config.InputPath),
		slog.String("output", config.OutputPath),
		slog.String("size", humanize.Bytes(uint64(stat.Size()))),
		slog.String("records", humanize.Comma(int64(res.Records))),
		slog.Bool("header", res.Header.Present),
	}
	if res.Header.Present {
		attrs = append(attrs, slog.Int("version", int(res.Header.Version)))
	}
	if res.Truncated != nil {
		attrs = append(attrs, slog.Int("truncatedBytes", res.Truncated.Length))
	}
	if res.FlightID != 0 {
		attrs = append(attrs, slog.Int64("flightID", res.FlightID), slog.String("db", config.DBPath))
	}
	logger.Info("converted flight log", attrs...)

	if alt, at, ok := res.Summary.Apogee(); ok {
		logger.Info("flight summary",
			slog.Group("stats",
				slog.String("duration", res.Summary.Duration().String()),
				slog.String("apogee", fmt.Sprintf("%.1fm", alt)),
				slog.String("apogeeTime", fmt.Sprintf("%.2fs", float64(at)/1000)),
				slog.String("maxClimbRate", formatClimbRate(res.Summary.MaxClimbRate)),
				slog.Bool("gpsFix", res.Summary.HadFix),
			))
	}

	return nil
}

func formatClimbRate(v float64) string {
	if math.IsInf(v, -1) {
		return "n/a"
	}
	return fmt.Sprintf("%.1fm/s", v)
}
