package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultDataDirectory = "data"
	defaultMaxBatchSize  = 500
)

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Inputs   []string      `yaml:"inputs"`
	Storage  StorageConfig `yaml:"storage"`
	Export   ExportConfig  `yaml:"export"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// ExportConfig represents CSV export settings. An empty directory disables
// the export.
type ExportConfig struct {
	CSVDirectory string `yaml:"csvDirectory"`
}

// LoadConfig reads and validates the YAML configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration, applies defaults and validates it.
// Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var c Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	if c.Storage.DataDirectory == "" {
		c.Storage.DataDirectory = defaultDataDirectory
	}
	if c.Storage.MaxBatchSize == 0 {
		c.Storage.MaxBatchSize = defaultMaxBatchSize
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) validate() error {
	if len(c.Inputs) == 0 {
		return errors.New("at least one input pattern is required")
	}
	for i, in := range c.Inputs {
		if in == "" {
			return fmt.Errorf("input pattern %d is empty", i)
		}
	}
	if c.Storage.MaxBatchSize < 0 {
		return fmt.Errorf("invalid maxBatchSize %d", c.Storage.MaxBatchSize)
	}

	return nil
}
