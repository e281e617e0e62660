package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/storage"
	"github.com/roman-kulish/flightlog/internal/telemetry"
)

func writeLog(t *testing.T, path string, n int, opts ...flightlog.WriterOption) {
	t.Helper()

	var buf bytes.Buffer
	w := flightlog.NewWriter(&buf, opts...)
	for i := 0; i < n; i++ {
		require.NoError(t, w.Write(&telemetry.FlightRecord{
			Baro:         telemetry.Baro{Altitude: float32(i)},
			RecordTimeMs: uint32(i * 20),
		}))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"FL0002.BIN", "FL0001.BIN", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	got, err := expandInputs([]string{
		filepath.Join(dir, "*.BIN"),
		filepath.Join(dir, "FL0001.BIN"),
		filepath.Join(dir, "FL0404.BIN"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "FL0001.BIN"),
		filepath.Join(dir, "FL0002.BIN"),
		filepath.Join(dir, "FL0404.BIN"),
	}, got)

	_, err = expandInputs([]string{filepath.Join(dir, "[")})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	logs := filepath.Join(dir, "logs")
	require.NoError(t, os.Mkdir(logs, 0o755))

	writeLog(t, filepath.Join(logs, "FL0001.BIN"), 30)
	writeLog(t, filepath.Join(logs, "FL0002.BIN"), 12, flightlog.WithHeader(1))

	config := &Config{
		Inputs:  []string{filepath.Join(logs, "*.BIN")},
		Storage: StorageConfig{DataDirectory: filepath.Join(dir, "data"), MaxBatchSize: 7},
		Export:  ExportConfig{CSVDirectory: filepath.Join(dir, "csv")},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, Run(context.Background(), config, logger))

	assert.FileExists(t, filepath.Join(dir, "csv", "FL0001.csv"))
	assert.FileExists(t, filepath.Join(dir, "csv", "FL0002.csv"))

	store := storage.NewSqliteStore(filepath.Join(dir, "data", dbFileName))
	defer store.Close()

	flights, err := store.Flights(context.Background())
	require.NoError(t, err)
	require.Len(t, flights, 2)

	counts := map[string]int{}
	for _, f := range flights {
		counts[filepath.Base(f.SourcePath)] = f.RecordCount
	}
	assert.Equal(t, map[string]int{"FL0001.BIN": 30, "FL0002.BIN": 12}, counts)
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "FL0001.BIN")
	hdr, err := flightlog.Header{Version: 3, RecordSize: 120}.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(bad, hdr, 0o644))

	good := filepath.Join(dir, "FL0002.BIN")
	writeLog(t, good, 5)

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	config := &Config{
		Inputs:  []string{bad, good, filepath.Join(dir, "FL0003.BIN")},
		Storage: StorageConfig{DataDirectory: filepath.Join(dir, "data"), MaxBatchSize: 100},
	}

	err = Run(context.Background(), config, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 flight logs could not be imported")
	assert.Contains(t, out.String(), "skipping flight log with unexpected record layout")
	assert.Contains(t, out.String(), "skipping missing flight log")

	store := storage.NewSqliteStore(filepath.Join(dir, "data", dbFileName))
	defer store.Close()

	flights, err := store.Flights(context.Background())
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, good, flights[0].SourcePath)
	assert.Equal(t, 5, flights[0].RecordCount)
}

func TestRun_NoMatches(t *testing.T) {
	config := &Config{
		Inputs:  []string{filepath.Join(t.TempDir(), "*.BIN")},
		Storage: StorageConfig{DataDirectory: t.TempDir()},
	}

	err := Run(context.Background(), config, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorContains(t, err, "no flight logs match")
}
