package environment

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/boristopalov/sawyer/pkg/sim"
	"github.com/boristopalov/sawyer/pkg/space"
)

const (
	DefaultActionScale = 1. / 100
	DefaultFrameSkip   = 5
	handResetIters     = 10
)

// MocapQuat keeps the gripper pointing down.
var MocapQuat = sim.Quat{1, 0, 1, 0}

// SawyerXYZ drives a Sawyer arm through its mocap weld: actions are
// end-effector displacements, the gripper is driven by two actuators.
type SawyerXYZ struct {
	sim         sim.Simulator
	handSpace   space.Box
	mocapSpace  space.Box
	actionScale float64
	frameSkip   int
}

func NewSawyerXYZ(s sim.Simulator, handLow, handHigh r3.Vec) *SawyerXYZ {
	hand := space.Box3(handLow, handHigh)
	return &SawyerXYZ{
		sim:         s,
		handSpace:   hand,
		mocapSpace:  hand,
		actionScale: DefaultActionScale,
		frameSkip:   DefaultFrameSkip,
	}
}

// Sim returns the underlying physics engine.
func (s *SawyerXYZ) Sim() sim.Simulator {
	return s.sim
}

func (s *SawyerXYZ) HandSpace() space.Box {
	return s.handSpace
}

func (s *SawyerXYZ) MocapSpace() space.Box {
	return s.mocapSpace
}

func (s *SawyerXYZ) FrameSkip() int {
	return s.frameSkip
}

// SetXYZAction moves the mocap target by the scaled, clipped action and
// keeps it inside the mocap box.
func (s *SawyerXYZ) SetXYZAction(action []float64) error {
	if len(action) != 3 {
		return fmt.Errorf("%w: xyz action has %d entries", ErrActionShape, len(action))
	}
	delta := r3.Vec{
		X: clip(action[0], -1, 1) * s.actionScale,
		Y: clip(action[1], -1, 1) * s.actionScale,
		Z: clip(action[2], -1, 1) * s.actionScale,
	}
	pos, err := s.sim.MocapPos(sim.Mocap)
	if err != nil {
		return fmt.Errorf("read mocap: %w", err)
	}
	next := s.mocapSpace.ClipVec(r3.Add(pos, delta))
	if err := s.sim.SetMocapPos(sim.Mocap, next); err != nil {
		return fmt.Errorf("set mocap: %w", err)
	}
	if err := s.sim.SetMocapQuat(sim.Mocap, MocapQuat); err != nil {
		return fmt.Errorf("set mocap quat: %w", err)
	}
	return nil
}

// DoSimulation applies the gripper controls for one frame-skip worth of integrator steps.
func (s *SawyerXYZ) DoSimulation(ctrl []float64) error {
	return s.sim.DoSimulation(ctrl, s.frameSkip)
}

func (s *SawyerXYZ) EndEffectorPos() (r3.Vec, error) {
	return s.sim.BodyPos(sim.HandBody)
}

func (s *SawyerXYZ) SitePos(name string) (r3.Vec, error) {
	return s.sim.SitePos(name)
}

// FingerCOM is the midpoint between the two fingertip sites.
func (s *SawyerXYZ) FingerCOM() (r3.Vec, error) {
	right, err := s.sim.SitePos(sim.RightEndEffector)
	if err != nil {
		return r3.Vec{}, err
	}
	left, err := s.sim.SitePos(sim.LeftEndEffector)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Scale(0.5, r3.Add(right, left)), nil
}

func (s *SawyerXYZ) ObjPos() (r3.Vec, error) {
	return s.sim.GeomPos(sim.ObjGeom)
}

func (s *SawyerXYZ) SetGoalMarker(goal r3.Vec) error {
	return s.sim.SetSitePos(sim.GoalSite, goal)
}

// SetObjXYZ teleports the puck and zeroes its velocity.
func (s *SawyerXYZ) SetObjXYZ(pos r3.Vec) error {
	qpos, err := s.sim.QPos()
	if err != nil {
		return err
	}
	qvel, err := s.sim.QVel()
	if err != nil {
		return err
	}
	if len(qpos) < sim.PuckQPos+3 || len(qvel) < sim.PuckQVel+sim.PuckDoF {
		return fmt.Errorf("%w: qpos %d, qvel %d", sim.ErrStateShape, len(qpos), len(qvel))
	}
	qpos[sim.PuckQPos] = pos.X
	qpos[sim.PuckQPos+1] = pos.Y
	qpos[sim.PuckQPos+2] = pos.Z
	for i := sim.PuckQVel; i < sim.PuckQVel+sim.PuckDoF; i++ {
		qvel[i] = 0
	}
	return s.sim.SetState(qpos, qvel)
}

// ResetHand parks the hand at pos with the gripper open and returns the
// resulting fingertip midpoint.
func (s *SawyerXYZ) ResetHand(pos r3.Vec) (r3.Vec, error) {
	for i := 0; i < handResetIters; i++ {
		if err := s.sim.SetMocapPos(sim.Mocap, pos); err != nil {
			return r3.Vec{}, fmt.Errorf("reset hand: %w", err)
		}
		if err := s.sim.SetMocapQuat(sim.Mocap, MocapQuat); err != nil {
			return r3.Vec{}, fmt.Errorf("reset hand: %w", err)
		}
		if err := s.DoSimulation([]float64{-1, 1}); err != nil {
			return r3.Vec{}, fmt.Errorf("reset hand: %w", err)
		}
	}
	return s.FingerCOM()
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
