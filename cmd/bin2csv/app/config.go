package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const csvExt = ".csv"

type Config struct {
	InputPath  string
	OutputPath string
	DBPath     string
	Verbose    bool
}

// NewConfigFromCLI parses the process command line.
func NewConfigFromCLI() (*Config, error) {
	return ParseArgs(os.Args[0], os.Args[1:], os.Stderr)
}

// ParseArgs parses "[flags] INPUT [OUTPUT]". Usage is printed to usageOut on
// error.
func ParseArgs(name string, args []string, usageOut io.Writer) (*Config, error) {
	c := &Config{}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.StringVar(&c.DBPath, "db", "", "Also archive the decoded flight into this SQLite database")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: %s [flags] INPUT.BIN [OUTPUT.csv]\n", filepath.Base(name))
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	switch fs.NArg() {
	case 1:
		c.InputPath = fs.Arg(0)
		c.OutputPath = DefaultOutputPath(c.InputPath)
	case 2:
		c.InputPath = fs.Arg(0)
		c.OutputPath = fs.Arg(1)
	case 0:
		err = errors.New("input file is required")
	default:
		err = fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args()[2:], " "))
	}

	if err == nil && c.InputPath == "" {
		err = errors.New("input file is required")
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	return c, nil
}

// DefaultOutputPath replaces the extension of input with .csv.
func DefaultOutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + csvExt
}
