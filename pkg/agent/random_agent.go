package agent

import (
	"context"
	"fmt"

	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/space"
)

// RandomAgent samples actions uniformly from the action space.
type RandomAgent struct {
	id      string
	sampler *space.Sampler
}

func NewRandomAgent(opts ...AgentOption) (*RandomAgent, error) {
	params := buildParams(opts)
	box, err := space.NewBox(params.ActionSpace.Lower(), params.ActionSpace.Upper())
	if err != nil {
		return nil, fmt.Errorf("random agent: %w", err)
	}
	return &RandomAgent{
		id:      params.AgentID,
		sampler: space.NewSampler(box, params.Seed),
	}, nil
}

func (a *RandomAgent) GetID() string {
	return a.id
}

func (a *RandomAgent) Act(ctx context.Context, _ core.Observation) (core.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return core.Action(a.sampler.Sample()), nil
}
