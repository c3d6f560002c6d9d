// Package http exposes a processor over a small JSON API.
//
// The processor core is not safe for concurrent dispatch, so the server
// serializes all dispatches behind a mutex; this is an instance of the
// caller-side mutual exclusion the core requires.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	fin "github.com/DrewCarlson/Fin"
	"github.com/DrewCarlson/Fin/internal/logging"
	"github.com/DrewCarlson/Fin/pkg/domain"
)

// Server bridges HTTP requests to a processor.
type Server[S any] struct {
	proc   *fin.Processor[S]
	logger *slog.Logger

	// onRejected is the application's rejection callback. The server owns
	// the processor's rejected handler seat to observe per-request
	// rejections and chains to this one.
	onRejected fin.RejectedHandler[S]

	mu       sync.Mutex
	rejected bool // valid only while mu is held around a dispatch
}

// Option configures a Server.
type Option[S any] func(*Server[S])

// WithLogger sets the request logger.
func WithLogger[S any](logger *slog.Logger) Option[S] {
	return func(s *Server[S]) {
		s.logger = logger
	}
}

// WithRejectedHandler forwards rejections to the application.
// The server replaces the processor's rejected handler at construction, so
// applications that also want rejection callbacks register them here.
func WithRejectedHandler[S any](h fin.RejectedHandler[S]) Option[S] {
	return func(s *Server[S]) {
		s.onRejected = h
	}
}

// NewHandler creates an HTTP handler for the processor.
//
// Routes:
//
//	POST /v1/actions  {"name": "...", "payload": ...} -> 200 with the committed
//	                  state, 409 if the action was rejected, 422 if no reducer
//	                  is configured.
//	GET  /v1/state    -> 200 with the last committed state.
//	GET  /healthz     -> 204.
func NewHandler[S any](proc *fin.Processor[S], opts ...Option[S]) http.Handler {
	s := &Server[S]{
		proc:   proc,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	proc.SetRejectedHandler(func(state S, action domain.Action) {
		s.rejected = true
		if s.onRejected != nil {
			s.onRejected(state, action)
		}
	})

	r := chi.NewRouter()
	r.Post("/v1/actions", s.handleDispatch)
	r.Get("/v1/state", s.handleState)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

type dispatchRequest struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

type dispatchResponse[S any] struct {
	ActionID string `json:"action_id"`
	State    S      `json:"state"`
}

type errorResponse struct {
	Error    string `json:"error"`
	ActionID string `json:"action_id,omitempty"`
}

func (s *Server[S]) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var body dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("dispatch: invalid request body", "err", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if body.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "action name is required"})
		return
	}

	action := domain.NewAction(body.Name, body.Payload)

	s.mu.Lock()
	s.rejected = false
	err := s.proc.Dispatch(r.Context(), action)
	rejected := s.rejected
	state := s.proc.State()
	s.mu.Unlock()

	switch {
	case errors.Is(err, domain.ErrNoReducer):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), ActionID: action.ID})
	case err != nil:
		s.logger.Error("dispatch failed", "action", action.Name, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), ActionID: action.ID})
	case rejected:
		writeJSON(w, http.StatusConflict, errorResponse{Error: "action rejected", ActionID: action.ID})
	default:
		writeJSON(w, http.StatusOK, dispatchResponse[S]{ActionID: action.ID, State: state})
	}
}

func (s *Server[S]) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	state := s.proc.State()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}
