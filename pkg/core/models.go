package core

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Action is a continuous control vector: xyz hand displacement then gripper effort.
type Action []float64

// Observation is the flat state vector handed to agents.
type Observation []float64

// Clone returns a copy that does not alias o.
func (o Observation) Clone() Observation {
	c := make(Observation, len(o))
	copy(c, o)
	return c
}

// ObsDict is the goal-conditioned view of an observation.
type ObsDict struct {
	StateObservation  Observation `json:"state_observation"`
	StateDesiredGoal  r3.Vec      `json:"state_desired_goal"`
	StateAchievedGoal r3.Vec      `json:"state_achieved_goal"`
}

// Info carries per-step diagnostics alongside the reward.
type Info struct {
	ReachDist float64  `json:"reachDist"`
	GoalDist  float64  `json:"goalDist"`
	EpRew     float64  `json:"epRew"`
	PickRew   *float64 `json:"pickRew"`
	Success   float64  `json:"success"`
	Goal      r3.Vec   `json:"goal"`
}

type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool
	// Truncated is set once the episode hits the environment's path length limit.
	Truncated bool
	Info      Info
}

// Transition is one (s, a, r, s') tuple as seen by an agent.
type Transition struct {
	Step        int
	Observation Observation
	Action      Action
	Reward      float64
	Next        Observation
	Info        Info
}

type ExperimentStatus struct {
	Running   bool
	StartTime time.Time
	EndTime   time.Time
	Episodes  int
	Errors    []error
}
