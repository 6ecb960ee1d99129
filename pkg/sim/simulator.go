// Package sim defines the physics engine the manipulation tasks run on.
//
// The engine itself is an external collaborator. Tasks only see the
// Simulator interface: mocap targets for the arm, actuator controls for the
// gripper, and read access to bodies, sites and geoms by name. Kinematic is
// a small in-process stand-in used for tests and offline runs, and Server
// exposes any Simulator over a websocket so a remote engine can be driven
// the same way.
package sim

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrUnknownName = errors.New("sim: unknown name")
	ErrStateShape  = errors.New("sim: state has wrong shape")
	ErrCtrlShape   = errors.New("sim: control has wrong shape")
)

// Generalized coordinate layout of the Sawyer scene.
const (
	NQ = 16
	NV = 15

	// PuckQPos is the first qpos index of the puck's free joint (xyz, then quaternion).
	PuckQPos = 9
	// PuckQVel is the first qvel index of the puck's free joint (linear, then angular).
	PuckQVel = 9
	// PuckDoF is the number of velocity coordinates of the puck's free joint.
	PuckDoF = 6
)

// Scene element names.
const (
	Mocap               = "mocap"
	HandBody            = "hand"
	ObjBody             = "obj"
	ObjGeom             = "objGeom"
	GoalSite            = "goal"
	RightEndEffector    = "rightEndEffector"
	LeftEndEffector     = "leftEndEffector"
	NumGripperActuators = 2
)

// Quat is a (w, x, y, z) orientation.
type Quat [4]float64

// Simulator is the physics engine API a task is configured against.
type Simulator interface {
	// Reset restores the model's initial state.
	Reset() error
	SetMocapPos(name string, pos r3.Vec) error
	MocapPos(name string) (r3.Vec, error)
	SetMocapQuat(name string, quat Quat) error
	// DoSimulation writes actuator controls and advances the integrator frames times.
	DoSimulation(ctrl []float64, frames int) error
	BodyPos(name string) (r3.Vec, error)
	SitePos(name string) (r3.Vec, error)
	SetSitePos(name string, pos r3.Vec) error
	GeomPos(name string) (r3.Vec, error)
	QPos() ([]float64, error)
	QVel() ([]float64, error)
	SetState(qpos, qvel []float64) error
}
