package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	defaultWidth  = 1200
	defaultHeight = 800
	minWidth      = 400
	minHeight     = 300
)

type ImageFormat string

type Config struct {
	InputPath  string
	DBPath     string
	FlightID   int64
	OutputFile string
	Format     ImageFormat
	Width      int
	Height     int
	Verbose    bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		Width:  defaultWidth,
		Height: defaultHeight,
	}
}

func NewConfigFromCLI() (*Config, error) {
	return ParseArgs(os.Args[0], os.Args[1:], os.Stderr)
}

// ParseArgs parses and validates the command line flags. The extension of the
// chosen image format is appended to the output file.
func ParseArgs(name string, args []string, usageOut io.Writer) (*Config, error) {
	c := NewConfig()

	var imageFormat string
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.StringVar(&c.InputPath, "i", "", "Path to a flight log (.BIN) file")
	fs.StringVar(&c.DBPath, "db", "", "Path to the flight archive database")
	fs.Int64Var(&c.FlightID, "flight", 0, "Archived flight ID, used with -db")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.IntVar(&c.Width, "width", defaultWidth, "Image width in pixels")
	fs.IntVar(&c.Height, "height", defaultHeight, "Image height in pixels")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)

	var err error
	if c.InputPath == "" && c.DBPath == "" {
		err = errors.New("either a flight log or a database is required")
	} else if c.InputPath != "" && c.DBPath != "" {
		err = errors.New("a flight log and a database cannot be used together")
	} else if c.DBPath != "" && c.FlightID <= 0 {
		err = errors.New("flight id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if c.Width < minWidth || c.Height < minHeight {
		err = fmt.Errorf("image must be at least %dx%d pixels", minWidth, minHeight)
	} else if fs.NArg() > 0 {
		err = fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
