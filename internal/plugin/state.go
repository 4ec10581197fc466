package plugin

import "fmt"

// State is a position in the plugin lifecycle.
type State uint8

const (
	StateUnconfigured State = iota
	StateConfigured
	StateInitialized
	StateReady
	StateDisabled
	StateDataCollected
	StateError
	StateUnloaded
)

var stateNames = [...]string{
	StateUnconfigured:  "unconfigured",
	StateConfigured:    "configured",
	StateInitialized:   "initialized",
	StateReady:         "ready",
	StateDisabled:      "disabled",
	StateDataCollected: "data_collected",
	StateError:         "error",
	StateUnloaded:      "unloaded",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown plugin state %q", text)
}
