package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/memory"
	"github.com/boristopalov/sawyer/pkg/providers"
)

var (
	ErrNoClient    = errors.New("llm agent: no client configured")
	ErrParseAction = errors.New("llm agent: no action in response")
)

const SYSTEM_PROMPT = `You are controlling a Sawyer robot arm above a table.
The puck rests on the table. Your task is to sweep the puck along the +x direction until it falls off the edge of the table.
Each action is four numbers in [-1, 1]: the hand displacement along x, y and z, followed by the gripper command (-1 open, 1 closed).
A displacement of 1 moves the hand target by 1 centimetre.`

const ACTION_PROMPT_TEMPLATE = `Step %d.
Hand position: (%.3f, %.3f, %.3f)
Puck position: (%.3f, %.3f, %.3f)

Recent steps:
%s

Reply with one line of the form "ACTION: dx, dy, dz, grip".`

const RETRY_PROMPT = `Your previous reply could not be parsed. Reply with exactly one line of the form "ACTION: dx, dy, dz, grip" where each value is a number between -1 and 1.`

var actionPattern = regexp.MustCompile(`(?i)ACTION:\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)`)

// LLMAgent asks a language model for every action.
type LLMAgent struct {
	id          string
	model       ModelInfo
	client      providers.LLMClient
	memory      *memory.Memory[core.Transition]
	actionSpace core.Bounds
	history     int
	step        int
	logger      *zap.Logger
}

// NewLLMAgent creates a new LLM agent
func NewLLMAgent(opts ...AgentOption) (*LLMAgent, error) {
	params := buildParams(opts)
	if params.Client == nil {
		return nil, ErrNoClient
	}

	return &LLMAgent{
		id:          params.AgentID,
		model:       params.Model,
		client:      params.Client,
		memory:      memory.NewMemory[core.Transition](params.MemoryCapacity),
		actionSpace: params.ActionSpace,
		history:     5,
		logger:      params.Logger.With(zap.String("agent", params.AgentID)),
	}, nil
}

func (a *LLMAgent) GetID() string {
	return a.id
}

func (a *LLMAgent) GetModel() ModelInfo {
	return a.model
}

func (a *LLMAgent) Act(ctx context.Context, obs core.Observation) (core.Action, error) {
	if len(obs) < 6 {
		return nil, fmt.Errorf("llm agent: observation has %d entries, want 6", len(obs))
	}
	prompt := SYSTEM_PROMPT + "\n\n" + a.actionPrompt(obs)

	response, err := a.client.Complete(ctx, a.model.Id, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm agent: completion: %w", err)
	}
	action, err := ParseAction(response)
	if err != nil {
		a.logger.Debug("unparseable response, retrying", zap.String("response", response))
		response, err = a.client.Complete(ctx, a.model.Id, prompt+"\n\n"+RETRY_PROMPT)
		if err != nil {
			return nil, fmt.Errorf("llm agent: completion: %w", err)
		}
		if action, err = ParseAction(response); err != nil {
			return nil, err
		}
	}
	a.step++
	return clipAction(a.actionSpace, action)
}

// Observe records the transition so later prompts can show it.
func (a *LLMAgent) Observe(_ context.Context, tr core.Transition) error {
	a.memory.Store(tr)
	return nil
}

// Reset forgets the previous episode.
func (a *LLMAgent) Reset() {
	a.memory.Clear()
	a.step = 0
}

func (a *LLMAgent) actionPrompt(obs core.Observation) string {
	var recent strings.Builder
	transitions := a.memory.Last(a.history)
	if len(transitions) == 0 {
		recent.WriteString("none")
	}
	for _, tr := range transitions {
		fmt.Fprintf(&recent, "- step %d: action %s, reward %.2f, puck to goal %.3f\n",
			tr.Step, formatFloats(tr.Action), tr.Reward, tr.Info.GoalDist)
	}
	return fmt.Sprintf(ACTION_PROMPT_TEMPLATE, a.step,
		obs[0], obs[1], obs[2], obs[3], obs[4], obs[5],
		strings.TrimRight(recent.String(), "\n"))
}

// ParseAction extracts the first "ACTION: a, b, c, d" line from a model reply.
func ParseAction(response string) (core.Action, error) {
	m := actionPattern.FindStringSubmatch(response)
	if m == nil {
		return nil, ErrParseAction
	}
	action := make(core.Action, 4)
	for i := range action {
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseAction, err)
		}
		action[i] = v
	}
	return action, nil
}

func formatFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatFloat(x, 'f', 2, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
