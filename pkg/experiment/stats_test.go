package experiment

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	one := Summarize([]EpisodeStats{{Return: 3, Length: 10, FinalGoalDist: 0.5}})
	assert.Equal(t, 3., one.MeanReturn)
	assert.Zero(t, one.StdReturn)
	assert.Zero(t, one.SuccessRate)

	s := Summarize([]EpisodeStats{
		{Return: 2, Length: 10, FinalGoalDist: 0.2, Success: true},
		{Return: 4, Length: 20, FinalGoalDist: 0.4},
		{Return: 6, Length: 30, FinalGoalDist: 0.6, Success: true},
		{Return: 8, Length: 40, FinalGoalDist: 0.8},
	})
	assert.Equal(t, 4, s.Episodes)
	assert.Equal(t, 5., s.MeanReturn)
	// sample standard deviation
	assert.InDelta(t, 2.581989, s.StdReturn, 1e-6)
	assert.Equal(t, 25., s.MeanLength)
	assert.Equal(t, 0.5, s.SuccessRate)
	assert.InDelta(t, 0.5, s.MeanFinalGoalDist, 1e-12)
}

func TestStatsWriter(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewStatsWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, sw.Write(EpisodeStats{
		Episode: 2, EpisodeID: "ep", Worker: 1, AgentID: "a",
		Return: 12.5, Length: 150, FinalGoalDist: 0, MinReachDist: 0.01234,
		Success: true, TargetReward: 2525,
	}))
	require.NoError(t, sw.Close())
	assert.Empty(t, sw.Path())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2", "ep", "1", "a", "12.5000", "150", "0.0000", "0.0123", "true", "2525.0000"}, rows[1])
}

func TestCreateStatsFile(t *testing.T) {
	dir := t.TempDir()
	sw, err := CreateStatsFile(dir)
	require.NoError(t, err)
	require.NoError(t, sw.Write(EpisodeStats{Episode: 0}))
	require.NoError(t, sw.Close())

	assert.Equal(t, dir, filepath.Dir(sw.Path()))
	assert.True(t, strings.HasPrefix(filepath.Base(sw.Path()), "episode_stats_"))
	data, err := os.ReadFile(sw.Path())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	_, err = CreateStatsFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSummary(&buf, []EpisodeStats{
		{Episode: 0, Return: 10, Length: 150, Success: true},
		{Episode: 1, Return: 20, Length: 150},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "10.00")
	assert.Contains(t, out, "20.00")
	assert.Contains(t, out, "15.00")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "yes")
}
