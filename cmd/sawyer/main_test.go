package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boristopalov/sawyer/pkg/config"
	"github.com/boristopalov/sawyer/pkg/environment"
	"github.com/boristopalov/sawyer/pkg/sim"
)

func TestLoadRunConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("episodes: 3\nagent:\n  type: random\n"), 0o644))

	cmd, f := &cobra.Command{}, &runFlags{}
	bindRunFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--workers", "2", "--seed", "9"}))

	cfg, err := loadRunConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Episodes)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, uint64(9), cfg.Seed)
	assert.Equal(t, "random", cfg.Agent.Type)
}

func TestLoadRunConfigRejectsBadFlags(t *testing.T) {
	cmd, f := &cobra.Command{}, &runFlags{}
	bindRunFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags([]string{"--agent", "ppo"}))
	_, err := loadRunConfig(cmd, f)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestFactories(t *testing.T) {
	cfg := config.Default()
	cfg.Agent.Type = "random"
	logger := zap.NewNop()

	newEnv := envFactory(cfg, &simPool{logger: logger}, logger)
	env, err := newEnv(1)
	require.NoError(t, err)
	assert.Equal(t, cfg.Environment.MaxPathLength, env.MaxPathLength())

	newAgent, err := agentFactory(context.Background(), cfg, logger)
	require.NoError(t, err)
	a, err := newAgent(1)
	require.NoError(t, err)
	assert.Equal(t, "sweep-random-1", a.GetID())

	obs, err := env.Reset(context.Background())
	require.NoError(t, err)
	act, err := a.Act(context.Background(), obs)
	require.NoError(t, err)
	_, err = env.Step(context.Background(), act)
	assert.NoError(t, err)
}

func TestRenderSpaces(t *testing.T) {
	env, err := environment.NewSweep(sim.NewKinematic())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, renderSpaces(&buf, env))

	out := buf.String()
	for _, name := range []string{"action", "observation", "hand", "mocap", "object", "goal"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "[-1.00 -1.00 -1.00 -1.00]")
	assert.Contains(t, out, "max path length: 150")
}
