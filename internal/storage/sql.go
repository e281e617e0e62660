package storage

import (
	_ "embed"
	"strings"
)

//go:embed schema.sql
var initSchemaSQL string

const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_records_time ON records (flight_id, record_time_ms);
CREATE INDEX IF NOT EXISTS idx_records_state ON records (flight_id, state);`

const (
	insertFlightSQL = `
INSERT INTO flights (uid,
                     source_path,
                     imported_at,
                     has_header,
                     format_version,
                     record_size)
VALUES (?, ?, ?, ?, ?, ?)`

	finishFlightSQL = `
UPDATE flights
SET record_count    = ?,
    truncated_bytes = ?
WHERE id = ?`

	selectFlightColumns = `
SELECT id,
       uid,
       source_path,
       imported_at,
       has_header,
       format_version,
       record_size,
       record_count,
       truncated_bytes
FROM flights`

	selectFlightSQL  = selectFlightColumns + ` WHERE id = ?`
	selectFlightsSQL = selectFlightColumns + ` ORDER BY imported_at, id`

	deleteFlightSQL = `DELETE FROM flights WHERE id = ?`
)

// recordColumns lists the columns of the records table in telemetry.FlightRecord order.
var recordColumns = []string{
	"imu_ax", "imu_ay", "imu_az", "imu_gx", "imu_gy", "imu_gz",
	"baro_pressure", "baro_temperature", "baro_altitude", "baro_climb_rate",
	"gps_latitude_e7", "gps_longitude_e7", "gps_altitude", "gps_speed", "gps_heading", "gps_satellites", "gps_fix",
	"roll", "filter_roll", "pitch", "yaw", "servo_angle",
	"baro_time_ms", "gps_time_ms", "imu_time_ms", "imu_rx_time_ms",
	"state", "record_time_ms",
}

var (
	insertRecordSQL = `INSERT INTO records (flight_id, seq, ` + strings.Join(recordColumns, ", ") + `) VALUES `

	recordPlaceholder = "(" + strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)+2), ", ") + ")"

	selectRecordsSQL = `SELECT seq, ` + strings.Join(recordColumns, ", ") + ` FROM records WHERE flight_id = ? AND seq > ?`
)
