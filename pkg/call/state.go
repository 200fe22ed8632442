// Package call implements the voice-call session controller: the state
// machine and half-duplex turn-taking loop between the user's microphone
// and the remote conversational agent.
package call

import "encoding/json"

// State is the lifecycle state of a call session.
type State int

const (
	// StateIdle is a session that has not been started.
	StateIdle State = iota

	// StateConnecting covers backend session start, microphone
	// acquisition, greeting playback, and the channel dial.
	StateConnecting

	// StateActive is the turn-taking loop.
	StateActive

	// StateEnding is teardown in progress.
	StateEnding

	// StateEnded is the terminal state. Resources are released.
	StateEnded

	// StateFailed is a non-terminal error state: resources are
	// released, and the session accepts Retry or Close.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "error"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateEnded
}

// InCall reports whether the session holds live resources.
func (s State) InCall() bool {
	switch s {
	case StateConnecting, StateActive, StateEnding:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "idle":
		*s = StateIdle
	case "connecting":
		*s = StateConnecting
	case "active":
		*s = StateActive
	case "ending":
		*s = StateEnding
	case "ended":
		*s = StateEnded
	case "error":
		*s = StateFailed
	default:
		*s = StateIdle
	}
	return nil
}
