package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

// Columns is the CSV header. Names and order are relied upon by downstream
// tooling and must stay stable.
var Columns = []string{
	// imu
	"imu_ax", "imu_ay", "imu_az", "imu_gx", "imu_gy", "imu_gz",
	// baro
	"baro_pressure_hPa", "baro_temperature_C", "baro_altitude_m", "baro_climbRate_mps",
	// gps
	"gps_latE7", "gps_lonE7", "gps_altitude_m", "gps_speed_mps", "gps_heading_deg", "gps_sats", "gps_fix",
	// angles and servo
	"roll_deg", "filterRoll_deg", "pitch_deg", "yaw_deg", "servoDegree_deg",
	// times
	"baroTimeMs", "gpsTimeMs", "aTimeMs", "aRxTimeMs",
	// state and logger time
	"state", "timeMs",
	// derived
	"stateStr",
}

// CSVWriter writes flight records as CSV rows.
type CSVWriter struct {
	w     *csv.Writer
	row   []string
	count int
}

// NewCSVWriter returns a writer using CRLF line endings, as the legacy
// converter did.
func NewCSVWriter(w io.Writer) *CSVWriter {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	return &CSVWriter{
		w:   cw,
		row: make([]string, 0, len(Columns)),
	}
}

// WriteHeader writes the column names.
func (c *CSVWriter) WriteHeader() error {
	if err := c.w.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Write writes a single record.
func (c *CSVWriter) Write(r *telemetry.FlightRecord) error {
	c.row = AppendRow(c.row[:0], r)
	if err := c.w.Write(c.row); err != nil {
		return fmt.Errorf("writing row %d: %w", c.count, err)
	}
	c.count++
	return nil
}

// WriteAll writes the header followed by every record of seq and flushes.
func (c *CSVWriter) WriteAll(seq iter.Seq[*telemetry.FlightRecord]) (int, error) {
	if err := c.WriteHeader(); err != nil {
		return 0, err
	}

	n := 0
	for r := range seq {
		if err := c.Write(r); err != nil {
			return n, err
		}
		n++
	}
	return n, c.Flush()
}

// Flush writes buffered rows to the underlying writer.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// Count returns the number of rows written, excluding the header.
func (c *CSVWriter) Count() int {
	return c.count
}

// AppendRow appends the column values of r to row in Columns order.
func AppendRow(row []string, r *telemetry.FlightRecord) []string {
	fix := "0"
	if r.GPS.HasFix {
		fix = "1"
	}

	return append(row,
		formatFloat(r.IMU.AX),
		formatFloat(r.IMU.AY),
		formatFloat(r.IMU.AZ),
		formatFloat(r.IMU.GX),
		formatFloat(r.IMU.GY),
		formatFloat(r.IMU.GZ),
		formatFloat(r.Baro.Pressure),
		formatFloat(r.Baro.Temperature),
		formatFloat(r.Baro.Altitude),
		formatFloat(r.Baro.ClimbRate),
		strconv.FormatInt(int64(r.GPS.LatitudeE7), 10),
		strconv.FormatInt(int64(r.GPS.LongitudeE7), 10),
		formatFloat(r.GPS.Altitude),
		formatFloat(r.GPS.Speed),
		formatFloat(r.GPS.Heading),
		strconv.FormatUint(uint64(r.GPS.SatelliteCount), 10),
		fix,
		formatFloat(r.Roll),
		formatFloat(r.FilterRoll),
		formatFloat(r.Pitch),
		formatFloat(r.Yaw),
		formatFloat(r.ServoAngle),
		strconv.FormatUint(uint64(r.BaroTimeMs), 10),
		strconv.FormatUint(uint64(r.GPSTimeMs), 10),
		strconv.FormatUint(uint64(r.IMUTimeMs), 10),
		strconv.FormatUint(uint64(r.IMURxTimeMs), 10),
		strconv.FormatUint(uint64(r.State), 10),
		strconv.FormatUint(uint64(r.RecordTimeMs), 10),
		r.StateName(),
	)
}

// formatFloat widens v to float64 and prints the shortest representation that
// round-trips, switching to exponent notation outside [1e-4, 1e16) and always
// keeping a decimal point in fixed notation.
func formatFloat(v float32) string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.LastIndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
