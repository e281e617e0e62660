package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roman-kulish/flightlog/internal/storage"
)

const dbFileName = "flights.sqlite"

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	inputs, err := expandInputs(config.Inputs)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no flight logs match the configured inputs")
	}

	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing storage: %w", cErr)
		}
	}()

	options := []func(*Importer){WithMaxBatchSize(config.Storage.MaxBatchSize)}
	if dir := config.Export.CSVDirectory; dir != "" {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating CSV directory '%s': %w", dir, err)
		}
		options = append(options, WithCSVDirectory(dir))
	}

	return NewImporter(store, logger, options...).Run(ctx, inputs)
}

// expandInputs resolves the configured glob patterns into a sorted list of
// unique paths. Patterns without glob metacharacters are kept as they are, so
// a missing file is reported rather than silently skipped.
func expandInputs(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			paths = append(paths, filepath.Clean(pattern))
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding input pattern '%s': %w", pattern, err)
		}
		paths = append(paths, matches...)
	}

	slices.Sort(paths)
	return slices.Compact(paths), nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[\`)
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	dir := config.DataDirectory
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	stat, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory '%s': %w", dir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading storage directory '%s': %w", dir, err)
	case !stat.IsDir():
		return nil, fmt.Errorf("invalid storage directory '%s'", dir)
	}

	return storage.NewSqliteStore(filepath.Join(dir, dbFileName)), nil
}
