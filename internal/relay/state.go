// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package relay

import "fmt"

// State is the lifecycle position of one relay connection.
//
//	Idle -> Connecting -> Initializing -> Ready -> Closed | Errored
//
// Closed and Errored are reachable from every non-terminal state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateInitializing
	StateReady
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Closed or Errored.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateErrored
}

// Active reports whether a connection in s holds, or is acquiring, a socket.
func (s State) Active() bool {
	return s == StateConnecting || s == StateInitializing || s == StateReady
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	for st := StateIdle; st <= StateErrored; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown relay state %q", b)
}
