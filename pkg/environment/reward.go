package environment

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Shaping constants of the sweep reward.
const (
	PushScale = 1000.
	C1        = 1000.
	C2        = 0.01
	C3        = 0.001

	// ReachThreshold is the fingertip-to-puck distance under which the puck counts as reached.
	ReachThreshold = 0.05
	// FallMargin is how far below its starting height the puck must drop to count as swept off.
	FallMargin = 0.05
	// SuccessThreshold is the xy distance to the goal that counts as success.
	SuccessThreshold = 0.05
)

// RewardTerms is the breakdown of one sweep reward evaluation.
type RewardTerms struct {
	Reward         float64
	ReachRew       float64
	PushRew        float64
	ReachDist      float64
	PushDistXY     float64
	ReachCompleted bool
	// Fallen is set when the puck has dropped off the table.
	Fallen bool
}

// SweepReward scores a step: the fingertips are pulled toward the puck, and
// once they touch it the puck is pushed toward the goal in the xy plane,
// with two exponential bonuses near the goal. A puck swept off the table
// counts as delivered.
func SweepReward(obj, fingerCOM, goal r3.Vec, objInitZ, maxPushDist float64) RewardTerms {
	reachDist := r3.Norm(r3.Sub(obj, fingerCOM))
	pushDistXY := math.Hypot(obj.X-goal.X, obj.Y-goal.Y)
	reachRew := -reachDist
	reachCompleted := reachDist < ReachThreshold

	fallen := obj.Z < objInitZ-FallMargin
	if fallen {
		reachRew = 0
		pushDistXY = 0
		reachDist = 0
	}

	pushRew := PushReward(reachCompleted, maxPushDist, pushDistXY)
	return RewardTerms{
		Reward:         reachRew + pushRew,
		ReachRew:       reachRew,
		PushRew:        pushRew,
		ReachDist:      reachDist,
		PushDistXY:     pushDistXY,
		ReachCompleted: reachCompleted,
		Fallen:         fallen,
	}
}

// PushReward is zero until the puck has been reached.
func PushReward(reachCompleted bool, maxPushDist, pushDistXY float64) float64 {
	if !reachCompleted {
		return 0
	}
	d2 := pushDistXY * pushDistXY
	rew := PushScale*(maxPushDist-pushDistXY) + C1*(math.Exp(-d2/C2)+math.Exp(-d2/C3))
	return math.Max(rew, 0)
}

// TargetReward is the reward ceiling for an episode whose puck starts maxPushDist from the goal.
func TargetReward(maxPushDist float64) float64 {
	return PushScale*maxPushDist + 2*C1
}
