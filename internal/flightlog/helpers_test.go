package flightlog

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

func sampleRecord(i int) telemetry.FlightRecord {
	f := float32(i)
	return telemetry.FlightRecord{
		IMU: telemetry.IMU{AX: 0.1 + f, AY: -0.2, AZ: 9.81, GX: 1.5, GY: -2.5, GZ: f / 3},
		Baro: telemetry.Baro{
			Pressure:    1013.25 - f,
			Temperature: 21.5,
			Altitude:    f * 2,
			ClimbRate:   f / 10,
		},
		GPS: telemetry.GPS{
			LatitudeE7:     371234567 + int32(i),
			LongitudeE7:    -1270000001,
			Altitude:       120.5,
			Speed:          f,
			Heading:        270,
			SatelliteCount: uint8(i % 12),
			HasFix:         i%2 == 0,
		},
		Roll:         f,
		FilterRoll:   f * 0.9,
		Pitch:        -f,
		Yaw:          180,
		ServoAngle:   45,
		BaroTimeMs:   uint32(1000 + i*10),
		GPSTimeMs:    uint32(1001 + i*10),
		IMUTimeMs:    uint32(1002 + i*10),
		IMURxTimeMs:  uint32(1003 + i*10),
		State:        telemetry.FlightState(i % telemetry.NumStates),
		RecordTimeMs: uint32(1005 + i*10),
	}
}

func sampleRecords(n int) []telemetry.FlightRecord {
	records := make([]telemetry.FlightRecord, n)
	for i := range records {
		records[i] = sampleRecord(i)
	}
	return records
}

func encodeLog(t *testing.T, records []telemetry.FlightRecord, opts ...WriterOption) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := NewWriter(&buf, opts...)
	for i := range records {
		require.NoError(t, w.Write(&records[i]))
	}
	require.NoError(t, w.Flush())
	return buf.Bytes()
}

func headerBytes(version, recordSize uint16) []byte {
	p, _ := Header{Version: version, RecordSize: int(recordSize)}.MarshalBinary()
	return p
}

func decodeAll(t *testing.T, data []byte) ([]telemetry.FlightRecord, *Reader) {
	t.Helper()

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	var records []telemetry.FlightRecord
	for rec := range r.All(context.Background()) {
		records = append(records, *rec)
	}
	require.NoError(t, r.Err())
	return records, r
}
