// Package api exposes the planning and chat pipeline over a JSON HTTP
// API.
//
// Endpoints:
//   - POST /api/v1/plan                   - generate a structured trip plan
//   - POST /api/v1/chat                   - one conversational turn
//   - POST /api/v1/sessions               - create an empty session
//   - GET  /api/v1/sessions/{id}/history  - conversation history
//   - GET  /api/v1/healthz                - liveness probe
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/session"
	"github.com/planit-dev/planit/internal/trip"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// PlanService generates a trip plan from a request.
type PlanService interface {
	GeneratePlan(ctx context.Context, req trip.Request) (*trip.PlanResult, error)
}

// ChatService produces an assistant reply for one user message against a
// session's state.
type ChatService interface {
	Respond(ctx context.Context, sess *session.Session, message string) (session.Message, error)
}

// ServerConfig contains everything needed to build the API server.
type ServerConfig struct {
	Logger     log.Logger
	Planner    PlanService      // required
	Chat       ChatService      // required
	Sessions   *session.Manager // required
	RateRPS    float64          // tokens per second per IP (0 = default 5)
	RateBurst  int              // burst size per IP (0 = default 20)
	TrustProxy bool             // trust X-Real-IP/X-Forwarded-For
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the server with all routes and middleware configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Planner == nil {
		return nil, errors.New("planner is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ph := &planHandler{planner: cfg.Planner, sessions: cfg.Sessions, logger: logger}
	ch := &chatHandler{chat: cfg.Chat, sessions: cfg.Sessions, logger: logger}
	sh := &sessionHandler{sessions: cfg.Sessions, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/plan", ph.plan)
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("POST /api/v1/sessions", sh.create)
	mux.HandleFunc("GET /api/v1/sessions/{id}/history", sh.history)

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 20
	}
	rl := newRateLimiter(rps, burst)

	// Middleware stack, outermost first:
	// Recovery -> Logging -> RateLimit -> Routes
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health sits outside the middleware stack so probes never get rate
	// limited.
	top := http.NewServeMux()
	top.HandleFunc("GET /api/v1/healthz", healthz)
	top.Handle("/", handler)

	return &Server{mux: top}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.mux }

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
