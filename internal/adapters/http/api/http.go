// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/types"
	"github.com/okian/enso/pkg/logger"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	GestureDependencies
	LeaderboardDependencies
	RankDependencies
	StatsProvider
}

// SessionDependencies covers session lifecycle and attempt submission.
type SessionDependencies interface {
	CreateSession(ctx context.Context, player string) (types.SessionView, error)
	Session(ctx context.Context, id string) (types.SessionView, error)
	EndSession(ctx context.Context, id string) error
	SubmitAttempt(ctx context.Context, sessionID, attemptID string, path geometry.Path) (types.AttemptResult, error)
	WriteOverlay(ctx context.Context, sessionID string, w io.Writer) error
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the game API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	sessionHandler     *SessionHandler
	gestureHandler     *GestureHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers. maxLimit bounds
// the leaderboard page size; values below 1 use the default of 100.
func NewServer(deps Dependencies, maxLimit int) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		sessionHandler:     NewSessionHandler(deps),
		gestureHandler:     NewGestureHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionHandler.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleGet, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleDelete, "session"))
	mux.HandleFunc("POST /sessions/{id}/attempts", MetricsMiddleware(s.sessionHandler.HandleAttempt, "attempts"))
	mux.HandleFunc("GET /sessions/{id}/overlay.png", MetricsMiddleware(s.sessionHandler.HandleOverlay, "overlay"))
	mux.HandleFunc("GET /sessions/{id}/ws", MetricsMiddleware(s.gestureHandler.HandleGesture, "ws"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes the matching error body.
// Unclassified failures are logged.
func writeFailure(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.Get().Named("api").Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, Wrap(op, err))
}
