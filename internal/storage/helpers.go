package storage

import (
	"database/sql"
	"math"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(tx *sql.Tx, err *error) {
	if rErr := tx.Rollback(); rErr != nil && rErr != sql.ErrTxDone && *err == nil {
		*err = rErr
	}
}

// SQLite stores NaN as NULL, so non-finite readings survive only as NULL.
func toSQLFloat(f float32) sql.NullFloat64 {
	if math.IsNaN(float64(f)) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(f), Valid: true}
}

func fromSQLFloat(f sql.NullFloat64) float32 {
	if !f.Valid {
		return float32(math.NaN())
	}
	return float32(f.Float64)
}

func appendRecordValues(values []any, flightID, seq int64, r *telemetry.FlightRecord) []any {
	return append(values,
		flightID,
		seq,
		toSQLFloat(r.IMU.AX),
		toSQLFloat(r.IMU.AY),
		toSQLFloat(r.IMU.AZ),
		toSQLFloat(r.IMU.GX),
		toSQLFloat(r.IMU.GY),
		toSQLFloat(r.IMU.GZ),
		toSQLFloat(r.Baro.Pressure),
		toSQLFloat(r.Baro.Temperature),
		toSQLFloat(r.Baro.Altitude),
		toSQLFloat(r.Baro.ClimbRate),
		r.GPS.LatitudeE7,
		r.GPS.LongitudeE7,
		toSQLFloat(r.GPS.Altitude),
		toSQLFloat(r.GPS.Speed),
		toSQLFloat(r.GPS.Heading),
		r.GPS.SatelliteCount,
		r.GPS.HasFix,
		toSQLFloat(r.Roll),
		toSQLFloat(r.FilterRoll),
		toSQLFloat(r.Pitch),
		toSQLFloat(r.Yaw),
		toSQLFloat(r.ServoAngle),
		r.BaroTimeMs,
		r.GPSTimeMs,
		r.IMUTimeMs,
		r.IMURxTimeMs,
		uint8(r.State),
		r.RecordTimeMs,
	)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(rs rowScanner) (*Record, error) {
	var rec Record
	var ax, ay, az, gx, gy, gz sql.NullFloat64
	var pressure, temperature, alt, climb sql.NullFloat64
	var gpsAlt, speed, heading sql.NullFloat64
	var roll, filterRoll, pitch, yaw, servo sql.NullFloat64
	var state uint8

	err := rs.Scan(
		&rec.Seq,
		&ax, &ay, &az, &gx, &gy, &gz,
		&pressure, &temperature, &alt, &climb,
		&rec.GPS.LatitudeE7,
		&rec.GPS.LongitudeE7,
		&gpsAlt, &speed, &heading,
		&rec.GPS.SatelliteCount,
		&rec.GPS.HasFix,
		&roll, &filterRoll, &pitch, &yaw, &servo,
		&rec.BaroTimeMs,
		&rec.GPSTimeMs,
		&rec.IMUTimeMs,
		&rec.IMURxTimeMs,
		&state,
		&rec.RecordTimeMs,
	)
	if err != nil {
		return nil, err
	}

	rec.IMU = telemetry.IMU{
		AX: fromSQLFloat(ax), AY: fromSQLFloat(ay), AZ: fromSQLFloat(az),
		GX: fromSQLFloat(gx), GY: fromSQLFloat(gy), GZ: fromSQLFloat(gz),
	}
	rec.Baro = telemetry.Baro{
		Pressure:    fromSQLFloat(pressure),
		Temperature: fromSQLFloat(temperature),
		Altitude:    fromSQLFloat(alt),
		ClimbRate:   fromSQLFloat(climb),
	}
	rec.GPS.Altitude = fromSQLFloat(gpsAlt)
	rec.GPS.Speed = fromSQLFloat(speed)
	rec.GPS.Heading = fromSQLFloat(heading)
	rec.Roll = fromSQLFloat(roll)
	rec.FilterRoll = fromSQLFloat(filterRoll)
	rec.Pitch = fromSQLFloat(pitch)
	rec.Yaw = fromSQLFloat(yaw)
	rec.ServoAngle = fromSQLFloat(servo)
	rec.State = telemetry.FlightState(state)

	return &rec, nil
}
