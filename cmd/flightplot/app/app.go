package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/storage"
)

const jpegQuality = 95

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	var data *FlightData
	var err error
	if config.InputPath != "" {
		data, err = readFlightLog(ctx, config.InputPath, logger)
	} else {
		data, err = readArchivedFlight(ctx, config.DBPath, config.FlightID, logger)
	}
	if err != nil {
		return err
	}

	start, end := data.TimeRange()
	logger.Info("finished reading records",
		slog.Group("stats",
			slog.String("source", data.Source),
			slog.String("records", humanize.Comma(int64(data.Len()))),
			slog.String("start", fmt.Sprintf("%0.2fs", start)),
			slog.String("end", fmt.Sprintf("%0.2fs", end)),
		))

	renderer, err := NewChartRenderer(RenderConfig{
		Width:  config.Width,
		Height: config.Height,
	})
	if err != nil {
		return fmt.Errorf("creating chart renderer: %w", err)
	}

	logger.Info("rendering flight chart",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", config.Width),
			slog.Int("height", config.Height),
		))

	img, err := renderer.Render(data)
	if err != nil {
		return fmt.Errorf("rendering flight chart: %w", err)
	}

	return writeImage(config.OutputFile, config.Format, img)
}

func readFlightLog(ctx context.Context, path string, logger *slog.Logger) (data *FlightData, err error) {
	r, err := flightlog.Open(path, flightlog.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer closeWithError(r, &err)

	data = NewFlightData(filepath.Base(path))
	for rec := range r.All(ctx) {
		data.Update(rec)
	}
	if err = r.Err(); err != nil {
		return nil, fmt.Errorf("decoding '%s': %w", path, err)
	}

	return data, nil
}

func readArchivedFlight(ctx context.Context, dbPath string, flightID int64, logger *slog.Logger) (data *FlightData, err error) {
	if _, err = os.Stat(dbPath); err != nil && os.IsNotExist(err) {
		return nil, fmt.Errorf("database file '%s' does not exist: %w", dbPath, err)
	}

	store := storage.NewSqliteStore(dbPath)
	defer closeWithError(store, &err)

	rr, err := store.ReadRecords(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("reading flight %d: %w", flightID, err)
	}
	defer closeWithError(rr, &err)

	flight := rr.Flight()
	logger.Debug("reading archived flight",
		slog.Int64("flightID", flight.ID),
		slog.String("uid", flight.UID),
		slog.String("source", flight.SourcePath),
		slog.Int("records", flight.RecordCount))

	data = NewFlightData(fmt.Sprintf("flight %d (%s)", flight.ID, filepath.Base(flight.SourcePath)))
	for rr.Next(ctx) {
		data.Update(&rr.Current().FlightRecord)
	}
	if err = rr.Error(); err != nil {
		return nil, fmt.Errorf("reading flight %d: %w", flightID, err)
	}

	return data, nil
}

func writeImage(path string, format ImageFormat, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer closeWithError(out, &err)

	switch format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: jpegQuality,
		})

	default:
		err = fmt.Errorf("unsupported image format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	return nil
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
