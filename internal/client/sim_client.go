// Package client drives a remote physics engine through the websocket
// bridge served by sim.Server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/boristopalov/sawyer/pkg/sim"
)

var _ sim.Simulator = (*SimClient)(nil)

// RemoteError is an error reported by the engine on the other side.
type RemoteError struct {
	Method  string
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote simulator: %s: %s (%s)", e.Method, e.Message, e.Code)
}

// Unwrap exposes the sim sentinel matching the remote error code, so
// errors.Is(err, sim.ErrUnknownName) works across the wire.
func (e *RemoteError) Unwrap() error {
	return sim.CodeError(e.Code)
}

// SimClient implements sim.Simulator over a websocket connection.
type SimClient struct {
	conn    *websocket.Conn
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	nextID uint64
}

type Option func(*SimClient)

// WithTimeout bounds every round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *SimClient) {
		c.timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *SimClient) {
		c.logger = logger
	}
}

// Dial connects to a sim.Server endpoint, e.g. ws://localhost:8765/sim.
func Dial(ctx context.Context, url string, opts ...Option) (*SimClient, error) {
	c := &SimClient{
		timeout: 10 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial simulator %s: %w", url, err)
	}
	c.conn = conn
	c.logger.Info("connected to remote simulator", zap.String("url", url))
	return c, nil
}

func (c *SimClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *SimClient) call(method string, params any, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := sim.Request{ID: c.nextID, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("%s: encode params: %w", method, err)
		}
		req.Params = raw
	}

	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("%s: send: %w", method, err)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	var resp sim.Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("%s: receive: %w", method, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("%s: response id %d does not match request id %d", method, resp.ID, req.ID)
	}
	if resp.Error != "" {
		return &RemoteError{Method: method, Code: resp.Code, Message: resp.Error}
	}
	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

func (c *SimClient) Reset() error {
	return c.call(sim.MethodReset, nil, nil)
}

func (c *SimClient) SetMocapPos(name string, pos r3.Vec) error {
	return c.call(sim.MethodSetMocapPos, sim.PosParams{Name: name, Pos: pos}, nil)
}

func (c *SimClient) MocapPos(name string) (r3.Vec, error) {
	var v r3.Vec
	err := c.call(sim.MethodMocapPos, sim.NameParams{Name: name}, &v)
	return v, err
}

func (c *SimClient) SetMocapQuat(name string, quat sim.Quat) error {
	return c.call(sim.MethodSetMocapQuat, sim.QuatParams{Name: name, Quat: quat}, nil)
}

func (c *SimClient) DoSimulation(ctrl []float64, frames int) error {
	return c.call(sim.MethodDoSimulation, sim.SimulateParams{Ctrl: ctrl, Frames: frames}, nil)
}

func (c *SimClient) BodyPos(name string) (r3.Vec, error) {
	var v r3.Vec
	err := c.call(sim.MethodBodyPos, sim.NameParams{Name: name}, &v)
	return v, err
}

func (c *SimClient) SitePos(name string) (r3.Vec, error) {
	var v r3.Vec
	err := c.call(sim.MethodSitePos, sim.NameParams{Name: name}, &v)
	return v, err
}

func (c *SimClient) SetSitePos(name string, pos r3.Vec) error {
	return c.call(sim.MethodSetSitePos, sim.PosParams{Name: name, Pos: pos}, nil)
}

func (c *SimClient) GeomPos(name string) (r3.Vec, error) {
	var v r3.Vec
	err := c.call(sim.MethodGeomPos, sim.NameParams{Name: name}, &v)
	return v, err
}

func (c *SimClient) QPos() ([]float64, error) {
	var q []float64
	err := c.call(sim.MethodQPos, nil, &q)
	return q, err
}

func (c *SimClient) QVel() ([]float64, error) {
	var q []float64
	err := c.call(sim.MethodQVel, nil, &q)
	return q, err
}

func (c *SimClient) SetState(qpos, qvel []float64) error {
	return c.call(sim.MethodSetState, sim.StateParams{QPos: qpos, QVel: qvel}, nil)
}
