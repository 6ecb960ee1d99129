package core

import (
	"context"
)

// Environment defines the rules and mechanics of a single-agent task
type Environment interface {
	// Reset resets the environment to initial conditions and returns the first observation
	Reset(ctx context.Context) (Observation, error)
	// Step progresses the environment one step, given an action
	Step(ctx context.Context, action Action) (StepResult, error)
	// ActionSpace returns the bounds actions are clipped to
	ActionSpace() Bounds
	// ObservationSpace returns the bounds observations are expected to lie in
	ObservationSpace() Bounds
	// MaxPathLength is the episode horizon
	MaxPathLength() int
}

// Experiment coordinates the running of experiments
type Experiment interface {
	// Run executes the experiment according to configuration
	Run(ctx context.Context) error
	// Stop gracefully stops the experiment
	Stop() error
	// GetStatus returns current experiment status
	GetStatus() ExperimentStatus
}

// Bounds is the minimal view of a box space shared across packages.
type Bounds interface {
	Dim() int
	Lower() []float64
	Upper() []float64
}
