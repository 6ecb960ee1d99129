package sim

import (
	"encoding/json"
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// Wire methods of the websocket bridge. One JSON Request per text frame,
// answered by exactly one Response with the same ID.
const (
	MethodReset        = "reset"
	MethodSetMocapPos  = "set_mocap_pos"
	MethodMocapPos     = "mocap_pos"
	MethodSetMocapQuat = "set_mocap_quat"
	MethodDoSimulation = "do_simulation"
	MethodBodyPos      = "body_pos"
	MethodSitePos      = "site_pos"
	MethodSetSitePos   = "set_site_pos"
	MethodGeomPos      = "geom_pos"
	MethodQPos         = "qpos"
	MethodQVel         = "qvel"
	MethodSetState     = "set_state"
)

// Error codes carried in Response.Code.
const (
	CodeUnknownName   = "unknown_name"
	CodeStateShape    = "state_shape"
	CodeCtrlShape     = "ctrl_shape"
	CodeBadRequest    = "bad_request"
	CodeUnknownMethod = "unknown_method"
	CodeInternal      = "internal"
)

type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

type NameParams struct {
	Name string `json:"name"`
}

type PosParams struct {
	Name string `json:"name"`
	Pos  r3.Vec `json:"pos"`
}

type QuatParams struct {
	Name string `json:"name"`
	Quat Quat   `json:"quat"`
}

type SimulateParams struct {
	Ctrl   []float64 `json:"ctrl"`
	Frames int       `json:"frames"`
}

type StateParams struct {
	QPos []float64 `json:"qpos"`
	QVel []float64 `json:"qvel"`
}

// ErrorCode classifies a simulator error for the wire.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownName):
		return CodeUnknownName
	case errors.Is(err, ErrStateShape):
		return CodeStateShape
	case errors.Is(err, ErrCtrlShape):
		return CodeCtrlShape
	}
	return CodeInternal
}

// CodeError maps a wire code back to its sentinel, or nil if it has none.
func CodeError(code string) error {
	switch code {
	case CodeUnknownName:
		return ErrUnknownName
	case CodeStateShape:
		return ErrStateShape
	case CodeCtrlShape:
		return ErrCtrlShape
	}
	return nil
}
