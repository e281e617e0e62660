package telemetry

import (
	"math"
	"time"
)

// Summary accumulates flight statistics from a sequence of records.
type Summary struct {
	Records int

	StartTimeMs uint32
	EndTimeMs   uint32

	MaxAltitude       float64 // Barometric altitude in meters
	MaxAltitudeTimeMs uint32
	MaxClimbRate      float64
	MaxSpeed          float64 // GPS ground speed in m/s
	HadFix            bool

	// StateReachedMs holds the record time each state was first seen, indexed
	// by state. Unknown states are not tracked.
	StateReachedMs [NumStates]*uint32
}

func NewSummary() *Summary {
	return &Summary{
		MaxAltitude:  math.Inf(-1),
		MaxClimbRate: math.Inf(-1),
	}
}

// Update folds a single record into the summary.
func (s *Summary) Update(r *FlightRecord) {
	if s.Records == 0 {
		s.StartTimeMs = r.RecordTimeMs
	}
	s.Records++

	s.StartTimeMs = min(s.StartTimeMs, r.RecordTimeMs)
	s.EndTimeMs = max(s.EndTimeMs, r.RecordTimeMs)

	if alt := float64(r.Baro.Altitude); alt > s.MaxAltitude {
		s.MaxAltitude = alt
		s.MaxAltitudeTimeMs = r.RecordTimeMs
	}
	// NaN readings never compare greater, so they are skipped.
	if climb := float64(r.Baro.ClimbRate); climb > s.MaxClimbRate {
		s.MaxClimbRate = climb
	}
	if speed := float64(r.GPS.Speed); speed > s.MaxSpeed {
		s.MaxSpeed = speed
	}
	s.HadFix = s.HadFix || r.GPS.HasFix

	if r.State.Known() && s.StateReachedMs[r.State] == nil {
		t := r.RecordTimeMs
		s.StateReachedMs[r.State] = &t
	}
}

// Duration returns the time covered by the records.
func (s *Summary) Duration() time.Duration {
	if s.Records == 0 {
		return 0
	}
	return time.Duration(s.EndTimeMs-s.StartTimeMs) * time.Millisecond
}

// Reached returns the record time at which state was first seen.
func (s *Summary) Reached(state FlightState) (uint32, bool) {
	if !state.Known() || s.StateReachedMs[state] == nil {
		return 0, false
	}
	return *s.StateReachedMs[state], true
}

// Apogee returns the apogee altitude and time. The time of the APOGEE state
// transition is preferred over the altitude peak when the controller logged one.
func (s *Summary) Apogee() (altitude float64, timeMs uint32, ok bool) {
	if s.Records == 0 || math.IsInf(s.MaxAltitude, -1) {
		return 0, 0, false
	}
	if t, reached := s.Reached(StateApogee); reached {
		return s.MaxAltitude, t, true
	}
	return s.MaxAltitude, s.MaxAltitudeTimeMs, true
}
