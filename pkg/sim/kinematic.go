package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var _ Simulator = (*Kinematic)(nil)

// Scene geometry of the kinematic stand-in.
const (
	Timestep = 0.0025

	PuckRadius   = 0.02
	PuckRestZ    = 0.02
	FingerRadius = 0.015
	// ContactHeight is how far above the puck center the fingertips can be and still touch it.
	ContactHeight = 0.05
	MaxGripOpen   = 0.1

	TableHalfX = 0.45
	TableMinY  = 0.3
	TableMaxY  = 1.1
	FloorZ     = -0.28
	Gravity    = 9.81
)

// Kinematic is a deterministic, contact-light stand-in for the physics
// engine. The hand follows the mocap target with a first-order lag, the
// fingers open and close with the gripper controls, and the puck is shoved
// out of the fingertip disc and falls once it leaves the table.
type Kinematic struct {
	gain float64

	mocap     r3.Vec
	mocapQuat Quat
	hand      r3.Vec
	grip      float64
	ctrl      [NumGripperActuators]float64

	qpos []float64
	qvel []float64
	goal r3.Vec

	initHand r3.Vec
	initPuck r3.Vec
	initGoal r3.Vec

	frames int
}

type KinematicOption func(*Kinematic)

// WithHandGain sets the fraction of the hand-to-mocap gap closed each frame.
func WithHandGain(gain float64) KinematicOption {
	return func(k *Kinematic) {
		k.gain = gain
	}
}

// WithInitialHand places the hand (and mocap) before the first Reset.
func WithInitialHand(pos r3.Vec) KinematicOption {
	return func(k *Kinematic) {
		k.initHand = pos
	}
}

// WithInitialPuck places the puck before the first Reset.
func WithInitialPuck(pos r3.Vec) KinematicOption {
	return func(k *Kinematic) {
		k.initPuck = pos
	}
}

func NewKinematic(opts ...KinematicOption) *Kinematic {
	k := &Kinematic{
		gain:     0.25,
		initHand: r3.Vec{X: 0, Y: 0.6, Z: 0.2},
		initPuck: r3.Vec{X: 0, Y: 0.6, Z: PuckRestZ},
		initGoal: r3.Vec{X: 1.0, Y: 0.6, Z: -0.28},
	}
	for _, opt := range opts {
		opt(k)
	}
	k.Reset()
	return k
}

func (k *Kinematic) Reset() error {
	k.mocap = k.initHand
	k.mocapQuat = Quat{1, 0, 1, 0}
	k.hand = k.initHand
	k.grip = MaxGripOpen
	k.ctrl = [NumGripperActuators]float64{}
	k.qpos = make([]float64, NQ)
	k.qvel = make([]float64, NV)
	k.setPuck(k.initPuck)
	// identity orientation
	k.qpos[PuckQPos+3] = 1
	k.syncFingers()
	k.goal = k.initGoal
	k.frames = 0
	return nil
}

func (k *Kinematic) SetMocapPos(name string, pos r3.Vec) error {
	if name != Mocap {
		return unknown("mocap", name)
	}
	k.mocap = pos
	return nil
}

func (k *Kinematic) MocapPos(name string) (r3.Vec, error) {
	if name != Mocap {
		return r3.Vec{}, unknown("mocap", name)
	}
	return k.mocap, nil
}

func (k *Kinematic) SetMocapQuat(name string, quat Quat) error {
	if name != Mocap {
		return unknown("mocap", name)
	}
	k.mocapQuat = quat
	return nil
}

func (k *Kinematic) DoSimulation(ctrl []float64, frames int) error {
	if len(ctrl) != NumGripperActuators {
		return fmt.Errorf("%w: got %d controls, want %d", ErrCtrlShape, len(ctrl), NumGripperActuators)
	}
	if frames < 1 {
		return fmt.Errorf("sim: frames must be positive, got %d", frames)
	}
	for i, c := range ctrl {
		k.ctrl[i] = clamp(c, -1, 1)
	}
	for i := 0; i < frames; i++ {
		k.frame()
	}
	return nil
}

func (k *Kinematic) frame() {
	before := k.puck()

	k.hand = r3.Add(k.hand, r3.Scale(k.gain, r3.Sub(k.mocap, k.hand)))

	// ctrl [-1, 1] opens the gripper fully, [1, -1] closes it.
	u := (k.ctrl[1] - k.ctrl[0]) / 2
	target := MaxGripOpen * (u + 1) / 2
	k.grip += k.gain * (target - k.grip)
	k.syncFingers()

	puck := before
	if k.onTable(puck) {
		puck = k.push(puck)
	}
	if k.onTable(puck) {
		puck.Z = PuckRestZ
		k.qvel[PuckQVel+2] = 0
	} else {
		vz := k.qvel[PuckQVel+2] - Gravity*Timestep
		puck.Z += vz * Timestep
		if puck.Z <= FloorZ {
			puck.Z = FloorZ
			vz = 0
		}
		k.qvel[PuckQVel+2] = vz
	}

	k.qvel[PuckQVel] = (puck.X - before.X) / Timestep
	k.qvel[PuckQVel+1] = (puck.Y - before.Y) / Timestep
	k.setPuck(puck)
	k.frames++
}

// push moves the puck out of the fingertip contact disc along the line
// joining the hand and the puck center.
func (k *Kinematic) push(puck r3.Vec) r3.Vec {
	if k.hand.Z-puck.Z > ContactHeight {
		return puck
	}
	reach := PuckRadius + FingerRadius
	d := r3.Vec{X: puck.X - k.hand.X, Y: puck.Y - k.hand.Y}
	dist := r3.Norm(d)
	if dist >= reach {
		return puck
	}
	dir := r3.Vec{X: 1}
	if dist > 1e-9 {
		dir = r3.Scale(1/dist, d)
	}
	puck.X = k.hand.X + dir.X*reach
	puck.Y = k.hand.Y + dir.Y*reach
	return puck
}

func (k *Kinematic) onTable(puck r3.Vec) bool {
	if puck.Z < PuckRestZ-1e-9 {
		return false
	}
	return math.Abs(puck.X) <= TableHalfX && puck.Y >= TableMinY && puck.Y <= TableMaxY
}

func (k *Kinematic) BodyPos(name string) (r3.Vec, error) {
	switch name {
	case HandBody:
		return k.hand, nil
	case ObjBody:
		return k.puck(), nil
	}
	return r3.Vec{}, unknown("body", name)
}

func (k *Kinematic) SitePos(name string) (r3.Vec, error) {
	switch name {
	case GoalSite:
		return k.goal, nil
	case RightEndEffector:
		return r3.Add(k.hand, r3.Vec{Y: -k.grip / 2}), nil
	case LeftEndEffector:
		return r3.Add(k.hand, r3.Vec{Y: k.grip / 2}), nil
	}
	return r3.Vec{}, unknown("site", name)
}

func (k *Kinematic) SetSitePos(name string, pos r3.Vec) error {
	if name != GoalSite {
		return unknown("site", name)
	}
	k.goal = pos
	return nil
}

func (k *Kinematic) GeomPos(name string) (r3.Vec, error) {
	if name != ObjGeom {
		return r3.Vec{}, unknown("geom", name)
	}
	return k.puck(), nil
}

func (k *Kinematic) QPos() ([]float64, error) {
	return append([]float64(nil), k.qpos...), nil
}

func (k *Kinematic) QVel() ([]float64, error) {
	return append([]float64(nil), k.qvel...), nil
}

// SetState overwrites the generalized coordinates. The arm joints are not
// modelled; the hand is only driven through the mocap target.
func (k *Kinematic) SetState(qpos, qvel []float64) error {
	if len(qpos) != NQ || len(qvel) != NV {
		return fmt.Errorf("%w: qpos %d (want %d), qvel %d (want %d)", ErrStateShape, len(qpos), NQ, len(qvel), NV)
	}
	copy(k.qpos, qpos)
	copy(k.qvel, qvel)
	k.grip = clamp(k.qpos[8]-k.qpos[7], 0, MaxGripOpen)
	return nil
}

// Frames is the number of integrator steps taken since the last Reset.
func (k *Kinematic) Frames() int {
	return k.frames
}

func (k *Kinematic) puck() r3.Vec {
	return r3.Vec{X: k.qpos[PuckQPos], Y: k.qpos[PuckQPos+1], Z: k.qpos[PuckQPos+2]}
}

func (k *Kinematic) setPuck(p r3.Vec) {
	k.qpos[PuckQPos] = p.X
	k.qpos[PuckQPos+1] = p.Y
	k.qpos[PuckQPos+2] = p.Z
}

func (k *Kinematic) syncFingers() {
	k.qpos[7] = -k.grip / 2
	k.qpos[8] = k.grip / 2
}

func unknown(kind, name string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownName, kind, name)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
