package environment

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/sim"
	"github.com/boristopalov/sawyer/pkg/space"
)

var _ core.Environment = (*Sweep)(nil)

// Sweep task constants.
var (
	SweepHandLow  = r3.Vec{X: -0.5, Y: 0.40, Z: 0.05}
	SweepHandHigh = r3.Vec{X: 0.5, Y: 1.0, Z: 0.5}
	SweepObjLow   = r3.Vec{X: -0.1, Y: 0.6, Z: 0.02}
	SweepObjHigh  = r3.Vec{X: 0.1, Y: 0.7, Z: 0.02}

	SweepObjInitPos  = r3.Vec{X: 0, Y: 0.6, Z: 0.02}
	SweepHandInitPos = r3.Vec{X: 0, Y: 0.6, Z: 0.2}
	SweepInitGoal    = r3.Vec{X: 1.0, Y: 0.6, Z: -0.28}

	// SweepGoalOffset places the goal past the table edge, below its surface.
	SweepGoalOffset = r3.Vec{X: 1.0, Y: 0, Z: -0.3}
)

const (
	SweepObjInitAngle   = 0.3
	SweepInitPuckZ      = 0.1
	SweepMaxPathLength  = 150
	SweepActionDim      = 4
	SweepObservationDim = 6
)

// Sweep is the task of sweeping a puck off the table toward a goal below
// the table edge. Observations are the hand position followed by the puck
// position; actions are an xyz hand displacement and a gripper effort.
type Sweep struct {
	*SawyerXYZ

	objInitPos    r3.Vec
	objInitAngle  float64
	handInitPos   r3.Vec
	initPuckZ     float64
	goal          r3.Vec
	objHeight     float64
	maxPushDist   float64
	targetReward  float64
	initFingerCOM r3.Vec

	reachCompleted bool
	randomInit     bool
	lastRandVec    r3.Vec
	sampler        *space.Sampler

	pathLength    int
	maxPathLength int
	isReset       bool

	actionSpace space.Box
	obsSpace    space.Box
	goalSpace   space.Box
	objSpace    space.Box

	logger *zap.Logger

	mu    sync.RWMutex
	state State
}

type params struct {
	seed          uint64
	randomInit    bool
	maxPathLength int
	frameSkip     int
	logger        *zap.Logger
}

type Option func(*params)

// WithSeed seeds object placement.
func WithSeed(seed uint64) Option {
	return func(p *params) {
		p.seed = seed
	}
}

// WithRandomInit toggles sampling of the object position on every Reset.
// When off, the object starts at the configured initial position.
func WithRandomInit(on bool) Option {
	return func(p *params) {
		p.randomInit = on
	}
}

func WithMaxPathLength(n int) Option {
	return func(p *params) {
		p.maxPathLength = n
	}
}

func WithFrameSkip(n int) Option {
	return func(p *params) {
		p.frameSkip = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *params) {
		p.logger = logger
	}
}

func defaultParams() *params {
	return &params{
		seed:          uint64(time.Now().UnixNano()),
		randomInit:    true,
		maxPathLength: SweepMaxPathLength,
		frameSkip:     DefaultFrameSkip,
		logger:        zap.NewNop(),
	}
}

// NewSweep configures the sweep task on s. The simulator is left untouched
// until the first Reset.
func NewSweep(s sim.Simulator, opts ...Option) (*Sweep, error) {
	p := defaultParams()
	for _, opt := range opts {
		opt(p)
	}
	if p.maxPathLength <= 0 {
		return nil, fmt.Errorf("sweep: max path length must be positive, got %d", p.maxPathLength)
	}
	if p.frameSkip <= 0 {
		return nil, fmt.Errorf("sweep: frame skip must be positive, got %d", p.frameSkip)
	}

	base := NewSawyerXYZ(s, SweepHandLow, SweepHandHigh)
	base.frameSkip = p.frameSkip
	objSpace := space.Box3(SweepObjLow, SweepObjHigh)

	return &Sweep{
		SawyerXYZ:     base,
		objInitPos:    SweepObjInitPos,
		objInitAngle:  SweepObjInitAngle,
		handInitPos:   SweepHandInitPos,
		initPuckZ:     SweepInitPuckZ,
		goal:          SweepInitGoal,
		randomInit:    p.randomInit,
		lastRandVec:   SweepObjInitPos,
		sampler:       space.NewSampler(objSpace, p.seed),
		maxPathLength: p.maxPathLength,
		actionSpace:   space.Uniform(SweepActionDim, -1, 1),
		obsSpace:      space.Concat(base.HandSpace(), objSpace),
		goalSpace:     base.HandSpace(),
		objSpace:      objSpace,
		logger:        p.logger,
		state:         newState(),
	}, nil
}

func (e *Sweep) ActionSpace() core.Bounds      { return e.actionSpace }
func (e *Sweep) ObservationSpace() core.Bounds { return e.obsSpace }
func (e *Sweep) MaxPathLength() int            { return e.maxPathLength }

// GoalSpace bounds the goals the task can be asked to reach.
func (e *Sweep) GoalSpace() space.Box { return e.goalSpace }

// ObjSpace bounds the initial puck positions.
func (e *Sweep) ObjSpace() space.Box { return e.objSpace }

func (e *Sweep) Goal() r3.Vec          { return e.goal }
func (e *Sweep) ObjInitPos() r3.Vec    { return e.objInitPos }
func (e *Sweep) ObjInitAngle() float64 { return e.objInitAngle }
func (e *Sweep) InitPuckZ() float64    { return e.initPuckZ }
func (e *Sweep) ObjHeight() float64    { return e.objHeight }
func (e *Sweep) MaxPushDist() float64  { return e.maxPushDist }
func (e *Sweep) TargetReward() float64 { return e.targetReward }
func (e *Sweep) InitFingerCOM() r3.Vec { return e.initFingerCOM }
func (e *Sweep) ReachCompleted() bool  { return e.reachCompleted }
func (e *Sweep) PathLength() int       { return e.pathLength }

func (e *Sweep) GetState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Reset parks the hand, places the puck and its goal, and returns the first observation.
func (e *Sweep) Reset(ctx context.Context) (core.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Step stays refused until every part of the reset went through.
	e.isReset = false
	e.mu.Lock()
	e.state.status = StatusIdle
	e.mu.Unlock()
	if err := e.sim.Reset(); err != nil {
		return nil, fmt.Errorf("sweep reset: %w", err)
	}

	com, err := e.ResetHand(e.handInitPos)
	if err != nil {
		return nil, fmt.Errorf("sweep reset: %w", err)
	}
	e.initFingerCOM = com
	e.reachCompleted = false

	e.objInitPos = SweepObjInitPos
	obj, err := e.ObjPos()
	if err != nil {
		return nil, fmt.Errorf("sweep reset: %w", err)
	}
	e.objHeight = obj.Z

	objPos := e.stateRandVec()
	e.objInitPos = r3.Vec{X: objPos.X, Y: objPos.Y, Z: e.objInitPos.Z}
	e.goal = r3.Add(objPos, SweepGoalOffset)
	if err := e.SetGoalMarker(e.goal); err != nil {
		return nil, fmt.Errorf("sweep reset: %w", err)
	}
	if err := e.SetObjXYZ(e.objInitPos); err != nil {
		return nil, fmt.Errorf("sweep reset: %w", err)
	}

	obj, err = e.ObjPos()
	if err != nil {
		return nil, fmt.Errorf("sweep reset: %w", err)
	}
	e.maxPushDist = math.Hypot(obj.X-e.goal.X, obj.Y-e.goal.Y)
	e.targetReward = TargetReward(e.maxPushDist)
	e.pathLength = 0

	e.mu.Lock()
	e.state.status = StatusRunning
	e.state.step = 0
	e.state.episode++
	e.state.timestamp = time.Now()
	e.mu.Unlock()

	e.logger.Debug("sweep reset",
		zap.Float64s("obj_init_pos", vec(e.objInitPos)),
		zap.Float64s("goal", vec(e.goal)),
		zap.Float64("max_push_dist", e.maxPushDist))

	first, err := e.obs()
	if err != nil {
		return nil, fmt.Errorf("sweep reset: %w", err)
	}
	e.isReset = true
	return first, nil
}

// stateRandVec samples a new puck position, or repeats the last one when
// random init is off.
func (e *Sweep) stateRandVec() r3.Vec {
	if e.randomInit {
		e.lastRandVec = e.sampler.SampleVec()
	}
	return e.lastRandVec
}

// Step applies one action. Done is never set by the task itself; Truncated
// marks the end of the path length budget.
func (e *Sweep) Step(ctx context.Context, action core.Action) (core.StepResult, error) {
	if err := ctx.Err(); err != nil {
		return core.StepResult{}, err
	}
	if !e.isReset {
		return core.StepResult{}, ErrNotReset
	}
	if len(action) != SweepActionDim {
		return core.StepResult{}, fmt.Errorf("%w: got %d entries, want %d", ErrActionShape, len(action), SweepActionDim)
	}
	for i, a := range action {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return core.StepResult{}, fmt.Errorf("%w: entry %d is %v", ErrActionValue, i, a)
		}
	}

	if err := e.SetXYZAction(action[:3]); err != nil {
		return core.StepResult{}, fmt.Errorf("sweep step: %w", err)
	}
	grip := action[SweepActionDim-1]
	if err := e.DoSimulation([]float64{grip, -grip}); err != nil {
		return core.StepResult{}, fmt.Errorf("sweep step: %w", err)
	}
	if err := e.SetGoalMarker(e.goal); err != nil {
		return core.StepResult{}, fmt.Errorf("sweep step: %w", err)
	}

	dict, err := e.ObsDict()
	if err != nil {
		return core.StepResult{}, fmt.Errorf("sweep step: %w", err)
	}
	terms, err := e.ComputeReward(dict)
	if err != nil {
		return core.StepResult{}, fmt.Errorf("sweep step: %w", err)
	}
	e.pathLength++

	e.mu.Lock()
	e.state.step++
	e.state.timestamp = time.Now()
	e.mu.Unlock()

	success := 0.
	if terms.PushDistXY <= SuccessThreshold {
		success = 1
	}
	return core.StepResult{
		Observation: dict.StateObservation,
		Reward:      terms.Reward,
		Done:        false,
		Truncated:   e.pathLength >= e.maxPathLength,
		Info: core.Info{
			ReachDist: terms.ReachDist,
			GoalDist:  terms.PushDistXY,
			EpRew:     terms.Reward,
			PickRew:   nil,
			Success:   success,
			Goal:      e.goal,
		},
	}, nil
}

// ComputeReward scores the observation against the current goal and
// records whether the fingertips reached the puck.
func (e *Sweep) ComputeReward(dict core.ObsDict) (RewardTerms, error) {
	if len(dict.StateObservation) != SweepObservationDim {
		return RewardTerms{}, fmt.Errorf("compute reward: observation has %d entries, want %d",
			len(dict.StateObservation), SweepObservationDim)
	}
	obs := dict.StateObservation
	obj := r3.Vec{X: obs[3], Y: obs[4], Z: obs[5]}
	com, err := e.FingerCOM()
	if err != nil {
		return RewardTerms{}, fmt.Errorf("compute reward: %w", err)
	}
	terms := SweepReward(obj, com, e.goal, e.objInitPos.Z, e.maxPushDist)
	e.reachCompleted = terms.ReachCompleted
	return terms, nil
}

// ObsDict returns the goal-conditioned observation.
func (e *Sweep) ObsDict() (core.ObsDict, error) {
	obs, err := e.obs()
	if err != nil {
		return core.ObsDict{}, err
	}
	return core.ObsDict{
		StateObservation:  obs,
		StateDesiredGoal:  e.goal,
		StateAchievedGoal: r3.Vec{X: obs[3], Y: obs[4], Z: obs[5]},
	}, nil
}

func (e *Sweep) obs() (core.Observation, error) {
	hand, err := e.EndEffectorPos()
	if err != nil {
		return nil, fmt.Errorf("observe hand: %w", err)
	}
	obj, err := e.ObjPos()
	if err != nil {
		return nil, fmt.Errorf("observe object: %w", err)
	}
	return core.Observation{hand.X, hand.Y, hand.Z, obj.X, obj.Y, obj.Z}, nil
}

func vec(v r3.Vec) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
