package environment

import (
	"errors"
	"time"
)

var (
	ErrNotReset    = errors.New("environment: Step called before Reset")
	ErrActionShape = errors.New("environment: action has wrong shape")
	ErrActionValue = errors.New("environment: action is not finite")
	ErrUnknownEnv  = errors.New("environment: unknown environment")
)

const (
	StatusIdle    = "idle"
	StatusRunning = "running"
)

// State is a snapshot of an environment's episode bookkeeping.
type State struct {
	status    string
	step      uint32
	episode   uint32
	timestamp time.Time
}

func newState() State {
	return State{
		status:    StatusIdle,
		timestamp: time.Now(),
	}
}

func (s State) GetStatus() string {
	return s.status
}

// GetStep is the number of steps taken in the current episode.
func (s State) GetStep() uint32 {
	return s.step
}

// GetEpisode counts resets since construction.
func (s State) GetEpisode() uint32 {
	return s.episode
}

func (s State) GetTimestamp() time.Time {
	return s.timestamp
}
