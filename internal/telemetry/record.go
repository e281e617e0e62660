package telemetry

// Scale factor of the GPS latitude/longitude integers (degrees * 1e7).
const CoordinateScale = 1e7

// IMU holds the raw inertial sensor readings.
type IMU struct {
	AX float32 // Acceleration X
	AY float32 // Acceleration Y
	AZ float32 // Acceleration Z
	GX float32 // Angular rate X
	GY float32 // Angular rate Y
	GZ float32 // Angular rate Z
}

// Baro holds the barometer readings.
type Baro struct {
	Pressure    float32 // hPa
	Temperature float32 // °C
	Altitude    float32 // Relative altitude in meters
	ClimbRate   float32 // m/s
}

// GPS holds the positioning readings.
type GPS struct {
	LatitudeE7     int32   // Latitude in degrees * 1e7
	LongitudeE7    int32   // Longitude in degrees * 1e7
	Altitude       float32 // Meters, logged only
	Speed          float32 // m/s
	Heading        float32 // Degrees
	SatelliteCount uint8
	HasFix         bool
}

// Latitude returns the latitude in degrees.
func (g GPS) Latitude() float64 {
	return float64(g.LatitudeE7) / CoordinateScale
}

// Longitude returns the longitude in degrees.
func (g GPS) Longitude() float64 {
	return float64(g.LongitudeE7) / CoordinateScale
}

// FlightRecord is one telemetry sample as written by the flight controller.
//
// The field order and widths mirror the packed on-disk layout and must not be
// changed without bumping the log format version.
type FlightRecord struct {
	IMU  IMU
	Baro Baro
	GPS  GPS

	Roll       float32 // Degrees
	FilterRoll float32 // Degrees, complementary filter output
	Pitch      float32 // Degrees
	Yaw        float32 // Degrees
	ServoAngle float32 // Degrees

	BaroTimeMs  uint32 // When the barometer sample was taken
	GPSTimeMs   uint32 // When the GPS fix was updated
	IMUTimeMs   uint32 // Sender clock of the IMU board
	IMURxTimeMs uint32 // When the IMU packet was received

	State        FlightState
	RecordTimeMs uint32 // Logger clock when the record was written
}

// StateName returns the name of the record's flight state.
func (r *FlightRecord) StateName() string {
	return r.State.String()
}
