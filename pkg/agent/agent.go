package agent

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/providers"
	"github.com/boristopalov/sawyer/pkg/space"
)

// Agent maps observations to actions
type Agent interface {
	GetID() string
	// Act takes an observation and returns an action
	Act(ctx context.Context, obs core.Observation) (core.Action, error)
}

// Observer is implemented by agents that learn from the transitions they cause.
type Observer interface {
	Observe(ctx context.Context, tr core.Transition) error
}

// Resetter is implemented by agents that keep per-episode state.
type Resetter interface {
	Reset()
}

type ModelInfo struct {
	Id     string         // e.g. "gpt-4o-mini"
	Config map[string]any // model-specific configuration
}

type AgentParams struct {
	AgentID        string
	Model          ModelInfo
	Client         providers.LLMClient
	ActionSpace    core.Bounds
	Seed           uint64
	MemoryCapacity int
	Logger         *zap.Logger
}

type AgentOption func(*AgentParams)

func WithAgentId(id string) AgentOption {
	return func(p *AgentParams) {
		p.AgentID = id
	}
}

func WithModel(model ModelInfo) AgentOption {
	return func(p *AgentParams) {
		p.Model = model
	}
}

func WithClient(c providers.LLMClient) AgentOption {
	return func(p *AgentParams) {
		p.Client = c
	}
}

func WithActionSpace(b core.Bounds) AgentOption {
	return func(p *AgentParams) {
		p.ActionSpace = b
	}
}

func WithSeed(seed uint64) AgentOption {
	return func(p *AgentParams) {
		p.Seed = seed
	}
}

func WithMemoryCapacity(n int) AgentOption {
	return func(p *AgentParams) {
		p.MemoryCapacity = n
	}
}

func WithLogger(logger *zap.Logger) AgentOption {
	return func(p *AgentParams) {
		p.Logger = logger
	}
}

func defaultAgentParams() *AgentParams {
	return &AgentParams{
		Model: ModelInfo{
			Id:     "gpt-4o-mini",
			Config: make(map[string]any),
		},
		AgentID:        "agent-" + uuid.New().String(),
		ActionSpace:    space.Uniform(4, -1, 1),
		Seed:           uint64(uuid.New().ID()),
		MemoryCapacity: 100,
		Logger:         zap.NewNop(),
	}
}

func buildParams(opts []AgentOption) *AgentParams {
	params := defaultAgentParams()
	for _, opt := range opts {
		opt(params)
	}
	return params
}

func clipAction(b core.Bounds, a core.Action) (core.Action, error) {
	box, err := space.NewBox(b.Lower(), b.Upper())
	if err != nil {
		return nil, err
	}
	clipped, err := box.Clip(a)
	if err != nil {
		return nil, err
	}
	return core.Action(clipped), nil
}
