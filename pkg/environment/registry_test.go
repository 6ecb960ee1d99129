package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/sawyer/pkg/sim"
)

func TestMake(t *testing.T) {
	env, err := Make("sweep-v1", sim.NewKinematic(), WithSeed(3))
	require.NoError(t, err)
	_, ok := env.(*Sweep)
	assert.True(t, ok)

	_, err = Make("push-v1", sim.NewKinematic())
	require.ErrorIs(t, err, ErrUnknownEnv)

	assert.Contains(t, Names(), "sweep-v1")
}

func TestNewSweepRejectsBadOptions(t *testing.T) {
	_, err := NewSweep(sim.NewKinematic(), WithMaxPathLength(0))
	require.Error(t, err)
	_, err = NewSweep(sim.NewKinematic(), WithFrameSkip(-1))
	require.Error(t, err)
}

func TestMakeReturnsNilOnError(t *testing.T) {
	env, err := Make("sweep-v1", sim.NewKinematic(), WithMaxPathLength(0))
	require.Error(t, err)
	assert.True(t, env == nil, "a failed constructor must not yield a non-nil environment")
}
