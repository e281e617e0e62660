package telemetry

// FlightState is the flight phase reported by the flight controller.
type FlightState uint8

const (
	StateStandby FlightState = iota
	StateLaunched
	StatePowered
	StateCoasting
	StateApogee
	StateDescent
	StateLanded
)

// UnknownStateName is reported for state bytes outside the known table.
const UnknownStateName = "UNKNOWN"

// stateNames is indexed by the raw state byte.
var stateNames = [...]string{
	StateStandby:  "STANDBY",
	StateLaunched: "LAUNCHED",
	StatePowered:  "POWERED",
	StateCoasting: "COASTING",
	StateApogee:   "APOGEE",
	StateDescent:  "DESCENT",
	StateLanded:   "LANDED",
}

// NumStates is the number of known flight states.
const NumStates = len(stateNames)

// String returns the state name, or UnknownStateName for values out of range.
func (s FlightState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return UnknownStateName
}

// Known reports whether s is one of the states defined by the firmware.
func (s FlightState) Known() bool {
	return int(s) < len(stateNames)
}
