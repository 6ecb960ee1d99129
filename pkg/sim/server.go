package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes a Simulator over a websocket. The engine is single
// threaded, so calls from every connection are serialized.
type Server struct {
	sim      Simulator
	mu       sync.Mutex
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

type ServerOption func(*Server)

func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(sim Simulator, opts ...ServerOption) *Server {
	s := &Server{
		sim: sim,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes /sim to the websocket endpoint and /healthz to a liveness probe.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/sim", s.handleWebSocket)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.logger.Info("simulator client connected", zap.String("remote", r.RemoteAddr))
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("simulator client read failed", zap.Error(err))
			}
			return
		}
		resp := s.Dispatch(req)
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("simulator client write failed", zap.Error(err))
			return
		}
	}
}

// Dispatch executes one request against the wrapped simulator.
func (s *Server) Dispatch(req Request) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.call(req)
	resp := Response{ID: req.ID}
	if err != nil {
		var bad *badRequest
		switch {
		case errors.As(err, &bad):
			resp.Code = bad.code
		default:
			resp.Code = ErrorCode(err)
		}
		resp.Error = err.Error()
		s.logger.Debug("simulator call failed",
			zap.String("method", req.Method), zap.String("code", resp.Code), zap.Error(err))
		return resp
	}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			resp.Code = CodeInternal
			resp.Error = err.Error()
			return resp
		}
		resp.Result = raw
	}
	return resp
}

type badRequest struct {
	code string
	err  error
}

func (b *badRequest) Error() string { return b.err.Error() }

func decode[T any](raw json.RawMessage) (T, error) {
	var p T
	if len(raw) == 0 {
		return p, &badRequest{code: CodeBadRequest, err: errors.New("missing params")}
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, &badRequest{code: CodeBadRequest, err: fmt.Errorf("decode params: %w", err)}
	}
	return p, nil
}

func (s *Server) call(req Request) (any, error) {
	switch req.Method {
	case MethodReset:
		return nil, s.sim.Reset()
	case MethodSetMocapPos:
		p, err := decode[PosParams](req.Params)
		if err != nil {
			return nil, err
		}
		return nil, s.sim.SetMocapPos(p.Name, p.Pos)
	case MethodMocapPos:
		p, err := decode[NameParams](req.Params)
		if err != nil {
			return nil, err
		}
		return s.sim.MocapPos(p.Name)
	case MethodSetMocapQuat:
		p, err := decode[QuatParams](req.Params)
		if err != nil {
			return nil, err
		}
		return nil, s.sim.SetMocapQuat(p.Name, p.Quat)
	case MethodDoSimulation:
		p, err := decode[SimulateParams](req.Params)
		if err != nil {
			return nil, err
		}
		return nil, s.sim.DoSimulation(p.Ctrl, p.Frames)
	case MethodBodyPos:
		p, err := decode[NameParams](req.Params)
		if err != nil {
			return nil, err
		}
		return s.sim.BodyPos(p.Name)
	case MethodSitePos:
		p, err := decode[NameParams](req.Params)
		if err != nil {
			return nil, err
		}
		return s.sim.SitePos(p.Name)
	case MethodSetSitePos:
		p, err := decode[PosParams](req.Params)
		if err != nil {
			return nil, err
		}
		return nil, s.sim.SetSitePos(p.Name, p.Pos)
	case MethodGeomPos:
		p, err := decode[NameParams](req.Params)
		if err != nil {
			return nil, err
		}
		return s.sim.GeomPos(p.Name)
	case MethodQPos:
		return s.sim.QPos()
	case MethodQVel:
		return s.sim.QVel()
	case MethodSetState:
		p, err := decode[StateParams](req.Params)
		if err != nil {
			return nil, err
		}
		return nil, s.sim.SetState(p.QPos, p.QVel)
	}
	return nil, &badRequest{code: CodeUnknownMethod, err: fmt.Errorf("unknown method %q", req.Method)}
}
