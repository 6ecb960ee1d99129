package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/sawyer/pkg/core"
)

// MockLLMClient replays canned responses and records every prompt
type MockLLMClient struct {
	responses []string
	prompts   []string
	err       error
}

func (m *MockLLMClient) Complete(ctx context.Context, model string, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	r := m.responses[0]
	m.responses = m.responses[1:]
	return r, nil
}

var testObs = core.Observation{0, 0.6, 0.2, 0, 0.6, 0.02}

func TestNewLLMAgent(t *testing.T) {
	_, err := NewLLMAgent()
	assert.ErrorIs(t, err, ErrNoClient)

	agent, err := NewLLMAgent(
		WithAgentId("test-agent"),
		WithModel(ModelInfo{Id: "gpt-4o-mini", Config: make(map[string]any)}),
		WithClient(&MockLLMClient{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", agent.GetID())
	assert.Equal(t, "gpt-4o-mini", agent.GetModel().Id)

	other, err := NewLLMAgent(WithClient(&MockLLMClient{}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(other.GetID(), "agent-"))
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     core.Action
		wantErr  bool
	}{
		{"plain", "ACTION: 1, 0, -0.5, -1", core.Action{1, 0, -0.5, -1}, false},
		{"with reasoning", "The puck is ahead.\naction: 0.25,0.1, 0 , 1\nDone.", core.Action{0.25, 0.1, 0, 1}, false},
		{"exponent", "ACTION: 1e-1, 0, 0, 0", core.Action{0.1, 0, 0, 0}, false},
		{"too few values", "ACTION: 1, 0, 0", nil, true},
		{"no action", "move left", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.response)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParseAction)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestLLMAgentAct(t *testing.T) {
	ctx := context.Background()

	t.Run("clips to the action space", func(t *testing.T) {
		mock := &MockLLMClient{responses: []string{"ACTION: 3, -2, 0.5, 0"}}
		agent, err := NewLLMAgent(WithClient(mock))
		require.NoError(t, err)

		action, err := agent.Act(ctx, testObs)
		require.NoError(t, err)
		assert.Equal(t, core.Action{1, -1, 0.5, 0}, action)
		require.Len(t, mock.prompts, 1)
		assert.Contains(t, mock.prompts[0], SYSTEM_PROMPT)
		assert.Contains(t, mock.prompts[0], "Puck position: (0.000, 0.600, 0.020)")
	})

	t.Run("retries once on an unparseable reply", func(t *testing.T) {
		mock := &MockLLMClient{responses: []string{"I would move right", "ACTION: 1, 0, 0, -1"}}
		agent, err := NewLLMAgent(WithClient(mock))
		require.NoError(t, err)

		action, err := agent.Act(ctx, testObs)
		require.NoError(t, err)
		assert.Equal(t, core.Action{1, 0, 0, -1}, action)
		require.Len(t, mock.prompts, 2)
		assert.Contains(t, mock.prompts[1], RETRY_PROMPT)
	})

	t.Run("gives up after the retry", func(t *testing.T) {
		mock := &MockLLMClient{responses: []string{"no", "still no"}}
		agent, err := NewLLMAgent(WithClient(mock))
		require.NoError(t, err)

		_, err = agent.Act(ctx, testObs)
		assert.ErrorIs(t, err, ErrParseAction)
		assert.Len(t, mock.prompts, 2)
	})

	t.Run("client errors are wrapped", func(t *testing.T) {
		boom := errors.New("rate limited")
		agent, err := NewLLMAgent(WithClient(&MockLLMClient{err: boom}))
		require.NoError(t, err)

		_, err = agent.Act(ctx, testObs)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("short observation", func(t *testing.T) {
		agent, err := NewLLMAgent(WithClient(&MockLLMClient{}))
		require.NoError(t, err)
		_, err = agent.Act(ctx, core.Observation{1, 2})
		assert.Error(t, err)
	})
}

func TestLLMAgentMemory(t *testing.T) {
	ctx := context.Background()
	mock := &MockLLMClient{responses: []string{"ACTION: 0, 0, 0, 0", "ACTION: 0, 0, 0, 0"}}
	agent, err := NewLLMAgent(WithClient(mock), WithMemoryCapacity(3))
	require.NoError(t, err)

	_, err = agent.Act(ctx, testObs)
	require.NoError(t, err)
	assert.Contains(t, mock.prompts[0], "none")

	for i := 0; i < 5; i++ {
		require.NoError(t, agent.Observe(ctx, core.Transition{
			Step:   i,
			Action: core.Action{0.5, 0, 0, -1},
			Reward: float64(i),
			Info:   core.Info{GoalDist: 0.9},
		}))
	}
	assert.Equal(t, 3, agent.memory.Len())

	_, err = agent.Act(ctx, testObs)
	require.NoError(t, err)
	prompt := mock.prompts[1]
	assert.Contains(t, prompt, "Step 1.")
	assert.Contains(t, prompt, "- step 4: action [0.50, 0.00, 0.00, -1.00], reward 4.00, puck to goal 0.900")
	assert.NotContains(t, prompt, "- step 1:")

	agent.Reset()
	assert.Zero(t, agent.memory.Len())
	assert.Zero(t, agent.step)
}
