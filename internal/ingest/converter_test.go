package ingest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flightlog/internal/flightlog"
	"github.com/roman-kulish/flightlog/internal/storage"
	"github.com/roman-kulish/flightlog/internal/telemetry"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeLog(t *testing.T, path string, n int, extra int, opts ...flightlog.WriterOption) {
	t.Helper()

	var buf bytes.Buffer
	w := flightlog.NewWriter(&buf, opts...)
	for i := 0; i < n; i++ {
		rec := telemetry.FlightRecord{
			Baro:         telemetry.Baro{Altitude: float32(i)},
			State:        telemetry.FlightState(i % 7),
			RecordTimeMs: uint32(i * 20),
		}
		require.NoError(t, w.Write(&rec))
	}
	require.NoError(t, w.Flush())
	buf.Write(make([]byte, extra))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func countLines(t *testing.T, path string) int {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Count(string(data), "\r\n")
}

func TestConverter_CSVOnly(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "FL0001.BIN")
	out := filepath.Join(dir, "FL0001.csv")
	writeLog(t, in, 25, 0, flightlog.WithHeader(1))

	res, err := NewConverter(discardLogger).Convert(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, 25, res.Records)
	assert.Nil(t, res.Truncated)
	assert.True(t, res.Header.Present)
	assert.Zero(t, res.FlightID)
	assert.Equal(t, 25, res.Summary.Records)
	assert.Equal(t, 26, countLines(t, out))
}

func TestConverter_WithStore(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "FL0002.BIN")
	writeLog(t, in, 1100, 40)

	store := storage.NewSqliteStore(filepath.Join(dir, "flights.sqlite"))
	defer store.Close()

	c := NewConverter(discardLogger, WithStore(store), WithMaxBatchSize(128))
	res, err := c.Convert(context.Background(), in, "")
	require.NoError(t, err)
	require.NotZero(t, res.FlightID)
	require.NotNil(t, res.Truncated)
	assert.Equal(t, 40, res.Truncated.Length)

	ctx := context.Background()
	f, err := store.Flight(ctx, res.FlightID)
	require.NoError(t, err)
	assert.Equal(t, 1100, f.RecordCount)
	assert.Equal(t, 40, f.TruncatedBytes)
	assert.False(t, f.HasHeader)

	rr, err := store.ReadRecords(ctx, res.FlightID)
	require.NoError(t, err)
	defer rr.Close()

	n := 0
	for rr.Next(ctx) {
		assert.Equal(t, int64(n), rr.Current().Seq)
		assert.Equal(t, uint32(n*20), rr.Current().RecordTimeMs)
		n++
	}
	require.NoError(t, rr.Error())
	assert.Equal(t, 1100, n)
}

func TestConverter_ConfigErrorCreatesNoOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "FL0003.BIN")
	out := filepath.Join(dir, "FL0003.csv")

	hdr, err := flightlog.Header{Version: 2, RecordSize: 96}.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, append(hdr, make([]byte, 96*3)...), 0o644))

	_, err = NewConverter(discardLogger).Convert(context.Background(), in, out)

	var cfgErr *flightlog.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.NoFileExists(t, out)
}

func TestConverter_MissingInput(t *testing.T) {
	dir := t.TempDir()

	_, err := NewConverter(discardLogger).Convert(context.Background(), filepath.Join(dir, "nope.BIN"), filepath.Join(dir, "nope.csv"))

	var missing *flightlog.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.NoFileExists(t, filepath.Join(dir, "nope.csv"))
}

func TestConverter_OutputIsInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "FL0005.BIN")
	writeLog(t, in, 12, 0)

	want, err := os.ReadFile(in)
	require.NoError(t, err)

	link := filepath.Join(dir, "link.csv")
	require.NoError(t, os.Symlink(in, link))

	for _, out := range []string{in, dir + "/./FL0005.BIN", link} {
		_, err = NewConverter(discardLogger).Convert(context.Background(), in, out)
		require.ErrorIs(t, err, ErrOutputIsInput, out)

		got, err := os.ReadFile(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input log must be left intact")
	}
}

func TestConverter_CancelledRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "FL0004.BIN")
	out := filepath.Join(dir, "FL0004.csv")
	writeLog(t, in, 10, 0)

	store := storage.NewSqliteStore(filepath.Join(dir, "flights.sqlite"))
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConverter(discardLogger, WithStore(store)).Convert(ctx, in, out)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
}
