package environment

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSweepReward(t *testing.T) {
	goal := r3.Vec{X: 1.0, Y: 0.6, Z: -0.28}
	objInitZ := 0.02
	maxPushDist := 1.0

	t.Run("far from the puck only pays the reach term", func(t *testing.T) {
		obj := r3.Vec{X: 0, Y: 0.6, Z: 0.02}
		com := r3.Vec{X: 0, Y: 0.6, Z: 0.2}
		terms := SweepReward(obj, com, goal, objInitZ, maxPushDist)

		assert.False(t, terms.ReachCompleted)
		assert.InDelta(t, 0.18, terms.ReachDist, 1e-12)
		assert.InDelta(t, -0.18, terms.Reward, 1e-12)
		assert.Zero(t, terms.PushRew)
		assert.InDelta(t, 1.0, terms.PushDistXY, 1e-12)
	})

	t.Run("touching the puck at its start adds almost nothing", func(t *testing.T) {
		obj := r3.Vec{X: 0, Y: 0.6, Z: 0.02}
		com := r3.Vec{X: -0.03, Y: 0.6, Z: 0.04}
		terms := SweepReward(obj, com, goal, objInitZ, maxPushDist)

		assert.True(t, terms.ReachCompleted)
		assert.InDelta(t, 0, terms.PushRew, 1e-9)
		assert.InDelta(t, -terms.ReachDist, terms.Reward, 1e-9)
	})

	t.Run("pushing halfway pays the linear term", func(t *testing.T) {
		obj := r3.Vec{X: 0.5, Y: 0.6, Z: 0.02}
		com := r3.Vec{X: 0.47, Y: 0.6, Z: 0.04}
		terms := SweepReward(obj, com, goal, objInitZ, maxPushDist)

		assert.True(t, terms.ReachCompleted)
		assert.InDelta(t, 500, terms.PushRew, 1e-6)
		assert.InDelta(t, 500-terms.ReachDist, terms.Reward, 1e-6)
	})

	t.Run("on the goal pays both bonuses", func(t *testing.T) {
		obj := goal
		com := r3.Add(goal, r3.Vec{X: -0.01, Z: 0.01})
		terms := SweepReward(obj, com, goal, goal.Z, maxPushDist)

		assert.False(t, terms.Fallen)
		assert.InDelta(t, TargetReward(maxPushDist), terms.PushRew, 1e-9)
	})

	t.Run("a swept-off puck zeroes the distances", func(t *testing.T) {
		obj := r3.Vec{X: 0.5, Y: 0.6, Z: -0.04}
		far := r3.Vec{X: 0.5, Y: 0.6, Z: 0.3}
		terms := SweepReward(obj, far, goal, objInitZ, maxPushDist)

		assert.True(t, terms.Fallen)
		assert.False(t, terms.ReachCompleted)
		assert.Zero(t, terms.ReachDist)
		assert.Zero(t, terms.PushDistXY)
		assert.Zero(t, terms.Reward)

		near := r3.Vec{X: 0.5, Y: 0.6, Z: -0.01}
		terms = SweepReward(obj, near, goal, objInitZ, maxPushDist)
		assert.True(t, terms.ReachCompleted)
		assert.InDelta(t, 3000, terms.Reward, 1e-9)
	})
}

func TestPushRewardIsClippedAtZero(t *testing.T) {
	assert.Zero(t, PushReward(true, 1.0, 1.5))
	assert.Zero(t, PushReward(false, 1.0, 0))
	assert.InDelta(t, 2000+1000, PushReward(true, 1.0, 0), 1e-9)
}

func TestTargetReward(t *testing.T) {
	assert.Equal(t, 3000., TargetReward(1.0))
}

func TestSweepRewardIsFiniteAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	hand := SweepHandLow
	span := r3.Sub(SweepHandHigh, SweepHandLow)
	diag := r3.Norm(span) + 1

	for i := 0; i < 5000; i++ {
		obj := r3.Vec{
			X: -0.1 + 0.2*rng.Float64() + 1.2*rng.Float64(),
			Y: 0.6 + 0.1*rng.Float64(),
			Z: 0.02 - 0.3*rng.Float64(),
		}
		com := r3.Vec{
			X: hand.X + span.X*rng.Float64(),
			Y: hand.Y + span.Y*rng.Float64(),
			Z: hand.Z + span.Z*rng.Float64(),
		}
		goal := r3.Add(r3.Vec{X: -0.1 + 0.2*rng.Float64(), Y: 0.6 + 0.1*rng.Float64(), Z: 0.02}, SweepGoalOffset)
		maxPushDist := 1.0

		terms := SweepReward(obj, com, goal, 0.02, maxPushDist)
		assert.False(t, math.IsNaN(terms.Reward) || math.IsInf(terms.Reward, 0))
		assert.GreaterOrEqual(t, terms.Reward, -diag)
		assert.LessOrEqual(t, terms.Reward, TargetReward(maxPushDist))
		if terms.ReachCompleted {
			assert.GreaterOrEqual(t, terms.Reward, -ReachThreshold)
		}
	}
}
