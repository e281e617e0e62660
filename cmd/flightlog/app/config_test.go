package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    *Config
		wantErr string
	}{
		{
			name: "defaults",
			yaml: "inputs:\n  - logs/*.BIN\n",
			want: &Config{
				Settings: Settings{LogLevel: slog.LevelInfo},
				Inputs:   []string{"logs/*.BIN"},
				Storage:  StorageConfig{DataDirectory: "data", MaxBatchSize: 500},
			},
		},
		{
			name: "full",
			yaml: `
settings:
  logLevel: debug
inputs:
  - "logs/*.BIN"
  - FL0001.BIN
storage:
  dataDirectory: archive
  maxBatchSize: 64
export:
  csvDirectory: csv
`,
			want: &Config{
				Settings: Settings{LogLevel: slog.LevelDebug},
				Inputs:   []string{"logs/*.BIN", "FL0001.BIN"},
				Storage:  StorageConfig{DataDirectory: "archive", MaxBatchSize: 64},
				Export:   ExportConfig{CSVDirectory: "csv"},
			},
		},
		{
			name:    "empty document",
			yaml:    "",
			wantErr: "at least one input pattern is required",
		},
		{
			name:    "empty pattern",
			yaml:    "inputs: [\"\"]\n",
			wantErr: "input pattern 0 is empty",
		},
		{
			name:    "negative batch size",
			yaml:    "inputs: [a.BIN]\nstorage:\n  maxBatchSize: -1\n",
			wantErr: "invalid maxBatchSize -1",
		},
		{
			name:    "unknown key",
			yaml:    "inputs: [a.BIN]\ndevices: []\n",
			wantErr: "decoding configuration",
		},
		{
			name:    "invalid log level",
			yaml:    "settings:\n  logLevel: loud\ninputs: [a.BIN]\n",
			wantErr: "decoding configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig([]byte(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings:\n  logLevel: WARN\ninputs: [a.BIN]\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, c.Settings.LogLevel)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
