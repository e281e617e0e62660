package app

import (
	"math"

	"github.com/roman-kulish/flightlog/internal/telemetry"
)

// Series is a named sequence of values sampled at FlightData.Times.
type Series struct {
	Label  string
	Values []float64
}

// Panel groups the series drawn against a shared Y axis.
type Panel struct {
	Title  string
	Series []*Series
}

// FlightData accumulates the plotted values of a flight.
type FlightData struct {
	Source  string
	Times   []float64 // Record time in seconds
	Summary *telemetry.Summary

	Altitude  Series
	ClimbRate Series
	Roll      Series
	Pitch     Series
	Yaw       Series
}

func NewFlightData(source string) *FlightData {
	return &FlightData{
		Source:    source,
		Summary:   telemetry.NewSummary(),
		Altitude:  Series{Label: "Baro Altitude (m)"},
		ClimbRate: Series{Label: "Climb Rate (m/s)"},
		Roll:      Series{Label: "Roll (deg)"},
		Pitch:     Series{Label: "Pitch (deg)"},
		Yaw:       Series{Label: "Yaw (deg)"},
	}
}

func (f *FlightData) Update(r *telemetry.FlightRecord) {
	f.Summary.Update(r)

	f.Times = append(f.Times, float64(r.RecordTimeMs)/1000)
	f.Altitude.Values = append(f.Altitude.Values, float64(r.Baro.Altitude))
	f.ClimbRate.Values = append(f.ClimbRate.Values, float64(r.Baro.ClimbRate))
	f.Roll.Values = append(f.Roll.Values, float64(r.Roll))
	f.Pitch.Values = append(f.Pitch.Values, float64(r.Pitch))
	f.Yaw.Values = append(f.Yaw.Values, float64(r.Yaw))
}

func (f *FlightData) Len() int {
	return len(f.Times)
}

// Panels returns the chart layout: altitude and climb rate on top, attitude
// angles below.
func (f *FlightData) Panels() []Panel {
	return []Panel{
		{Title: "Altitude / ClimbRate", Series: []*Series{&f.Altitude, &f.ClimbRate}},
		{Title: "Angles [deg]", Series: []*Series{&f.Roll, &f.Pitch, &f.Yaw}},
	}
}

// TimeRange returns the smallest and largest record time in seconds.
func (f *FlightData) TimeRange() (lo, hi float64) {
	return finiteRange(f.Times)
}

// finiteRange returns the bounds of the finite values of all slices. Both
// bounds are NaN when there are none.
func finiteRange(values ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, vs := range values {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}

	if lo > hi {
		return math.NaN(), math.NaN()
	}
	return lo, hi
}
