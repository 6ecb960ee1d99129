package agent

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/environment"
)

// Waypoints of the scripted sweep.
const (
	scriptBehind     = 0.08  // how far on the -x side of the puck to line up
	scriptApproachZ  = 0.15  // travel height above the table
	scriptTableZ     = 0.05  // lowest hand height
	scriptPushZ      = 0.065 // hand height under which the push starts
	scriptAlignTol   = 0.015
	scriptPushLead   = 0.2
	scriptFallMargin = 0.005
)

// ScriptedAgent sweeps the puck along +x: line up behind it at travel
// height, descend to the table, then push until it drops off the edge.
type ScriptedAgent struct {
	id          string
	actionScale float64
	actionSpace core.Bounds
}

func NewScriptedAgent(opts ...AgentOption) *ScriptedAgent {
	params := buildParams(opts)
	return &ScriptedAgent{
		id:          params.AgentID,
		actionScale: environment.DefaultActionScale,
		actionSpace: params.ActionSpace,
	}
}

func (a *ScriptedAgent) GetID() string {
	return a.id
}

func (a *ScriptedAgent) Act(ctx context.Context, obs core.Observation) (core.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(obs) != environment.SweepObservationDim {
		return nil, fmt.Errorf("scripted agent: observation has %d entries, want %d",
			len(obs), environment.SweepObservationDim)
	}
	hand := r3.Vec{X: obs[0], Y: obs[1], Z: obs[2]}
	puck := r3.Vec{X: obs[3], Y: obs[4], Z: obs[5]}

	if puck.Z < environment.SweepObjInitPos.Z-scriptFallMargin {
		// already on its way off the table
		return core.Action{0, 0, 0, -1}, nil
	}

	lineUp := r3.Vec{X: puck.X - scriptBehind, Y: puck.Y}
	var target r3.Vec
	switch {
	case hand.Z < scriptPushZ && hand.X < puck.X && math.Abs(hand.Y-puck.Y) < scriptAlignTol:
		target = r3.Vec{X: puck.X + scriptPushLead, Y: puck.Y, Z: scriptTableZ}
	case math.Hypot(hand.X-lineUp.X, hand.Y-lineUp.Y) > scriptAlignTol:
		target = r3.Vec{X: lineUp.X, Y: lineUp.Y, Z: scriptApproachZ}
	default:
		target = r3.Vec{X: lineUp.X, Y: lineUp.Y, Z: scriptTableZ}
	}

	delta := r3.Scale(1/a.actionScale, r3.Sub(target, hand))
	return clipAction(a.actionSpace, core.Action{delta.X, delta.Y, delta.Z, -1})
}
