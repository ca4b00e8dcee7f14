package provider

import (
	"fmt"
	"strings"
	"time"
)

// State is the sign-in status of a provider.
type State int

const (
	// StateLoading is held until the initial token fetch completes.
	StateLoading State = iota
	StateSignedOut
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateSignedIn:
		return "signed_in"
	case StateSignedOut:
		return "signed_out"
	default:
		return "loading"
	}
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signed_in":
		return StateSignedIn, nil
	case "signed_out":
		return StateSignedOut, nil
	case "loading":
		return StateLoading, nil
	default:
		return StateLoading, fmt.Errorf("provider: unknown state %q", s)
	}
}

// StateChange describes one transition, delivered to state listeners.
type StateChange struct {
	Previous State
	Current  State
	BaseURL  string
	At       time.Time
}
