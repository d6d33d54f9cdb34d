package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/openrelief/surveyflow/internal/logging"
	"github.com/openrelief/surveyflow/internal/presentation/graph"
	"github.com/openrelief/surveyflow/internal/runtime"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/schema"
	"github.com/openrelief/surveyflow/pkg/session"
)

// Engine is the part of the survey facade the HTTP API needs.
type Engine interface {
	Definition() *domain.Definition
	Resources(ctx context.Context, answers []domain.Answer) ([]domain.Group, error)
}

// Server exposes a session manager over JSON/HTTP.
type Server struct {
	Engine   Engine
	Sessions *session.Manager
	Streams  *StreamManager

	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by GET /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// SessionView is the response body for session endpoints.
type SessionView struct {
	State    *domain.State `json:"state"`
	Form     *domain.Form  `json:"form,omitempty"`
	Terminal bool          `json:"terminal"`
}

// AdvanceView is the response body for POST /sessions/{id}/advance.
type AdvanceView struct {
	Step runtime.Step `json:"step"`
	SessionView
}

// RetreatView is the response body for POST /sessions/{id}/retreat.
type RetreatView struct {
	Moved bool `json:"moved"`
	SessionView
}

// AnswerRequest is the body of PUT /sessions/{id}/answers/{questionID}.
// Value is a string for single-choice questions and an array for multi-choice ones.
type AnswerRequest struct {
	Value domain.Value `json:"value"`
}

// CreateSessionRequest is the optional body of POST /sessions.
type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type errorView struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// NewHandler creates the HTTP handler for the engine and its sessions.
func NewHandler(engine Engine, sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/definition", s.GetDefinition)
	r.Get("/definition/graph", s.GetGraph)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Put("/answers/{questionID}", s.PutAnswer)
			r.Post("/advance", s.Advance)
			r.Post("/retreat", s.Retreat)
			r.Get("/tags", s.GetTags)
			r.Get("/resources", s.GetResources)
			r.Get("/graph", s.GetSessionGraph)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	r.Get("/submissions/{sessionID}", s.GetSubmission)

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.version != "" {
		resp["version"] = s.version
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetDefinition handles GET /definition.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Definition())
}

// GetGraph handles GET /definition/graph and returns Mermaid text.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Engine.Definition(), nil))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Sessions.List()})
}

// CreateSession handles POST /sessions. The body is optional.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	state, err := s.Sessions.Create(r.Context(), body.SessionID)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	s.broadcast(nil, state)
	s.writeJSON(w, http.StatusCreated, s.view(state))
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(state))
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutAnswer handles PUT /sessions/{sessionID}/answers/{questionID}.
func (s *Server) PutAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	questionID := chi.URLParam(r, "questionID")

	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	value := body.Value
	// A lone string is accepted for a multi-choice question.
	if q, ok := s.Engine.Definition().Question(questionID); ok && q.Kind == domain.KindMulti {
		if id, scalar := value.Scalar(); scalar {
			value = domain.Many(id)
		}
	}

	var before, after *domain.State
	err := s.Sessions.WithLock(r.Context(), sessionID, func(_ context.Context, c *runtime.Controller) error {
		before = c.State()
		if err := c.Answer(domain.Answer{QuestionID: questionID, Value: value}); err != nil {
			return err
		}
		after = c.State()
		return nil
	})
	if err != nil {
		s.fail(w, "PutAnswer", err)
		return
	}
	s.broadcast(before, after)
	s.writeJSON(w, http.StatusOK, s.view(after))
}

// Advance handles POST /sessions/{sessionID}/advance. Blocked and unrouted advances
// are reported in the step with status 200; the client decides how to present them.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var (
		step          runtime.Step
		before, after *domain.State
	)
	err := s.Sessions.WithLock(r.Context(), sessionID, func(ctx context.Context, c *runtime.Controller) error {
		before = c.State()
		var err error
		step, err = c.Advance(ctx)
		after = c.State()
		return err
	})
	if err != nil {
		s.fail(w, "Advance", err)
		return
	}
	s.broadcast(before, after)
	s.writeJSON(w, http.StatusOK, AdvanceView{Step: step, SessionView: s.view(after)})
}

// Retreat handles POST /sessions/{sessionID}/retreat.
func (s *Server) Retreat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var (
		moved         bool
		before, after *domain.State
	)
	err := s.Sessions.WithLock(r.Context(), sessionID, func(ctx context.Context, c *runtime.Controller) error {
		before = c.State()
		moved = c.Retreat(ctx)
		after = c.State()
		return nil
	})
	if err != nil {
		s.fail(w, "Retreat", err)
		return
	}
	s.broadcast(before, after)
	s.writeJSON(w, http.StatusOK, RetreatView{Moved: moved, SessionView: s.view(after)})
}

// GetTags handles GET /sessions/{sessionID}/tags.
func (s *Server) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.Sessions.Tags(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "GetTags", err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

// GetResources handles GET /sessions/{sessionID}/resources.
func (s *Server) GetResources(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "GetResources", err)
		return
	}

	groups, err := s.Engine.Resources(r.Context(), state.Answers.All())
	if err != nil {
		s.fail(w, "GetResources", err)
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]domain.Group{"groups": groups})
}

// GetSessionGraph handles GET /sessions/{sessionID}/graph: the definition graph with
// the session's path highlighted.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "GetSessionGraph", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Engine.Definition(), graph.OverlayFromHistory(state.History)))
}

// GetSubmission handles GET /submissions/{sessionID}.
func (s *Server) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.Sessions.Submission(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "GetSubmission", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}

// SubscribeEvents handles GET /sessions/{sessionID}/events (SSE). Each message is a
// JSON domain.StateDiff. The optional watch query parameter filters by changed field:
// a comma separated list of answers, history and status.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.Sessions.Get(r.Context(), sessionID); err != nil {
		s.fail(w, "SubscribeEvents", err)
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			watch = append(watch, strings.TrimSpace(field))
		}
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Info("sse subscribed", "session_id", sessionID)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "session_id", sessionID)
			return
		case diff, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matches(diff, watch) {
				continue
			}
			data, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("sse encode failed", "session_id", sessionID, "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func matches(diff *domain.StateDiff, watch []string) bool {
	for _, field := range watch {
		switch field {
		case "answers":
			if len(diff.Answers) > 0 {
				return true
			}
		case "history":
			if diff.History != nil || diff.CurrentFormID != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		}
	}
	return false
}

func (s *Server) broadcast(before, after *domain.State) {
	if diff := domain.Diff(before, after); diff != nil {
		s.Streams.Broadcast(after.SessionID, diff)
	}
}

func (s *Server) view(state *domain.State) SessionView {
	v := SessionView{State: state}
	if f, ok := s.Engine.Definition().Form(state.CurrentFormID()); ok {
		v.Form = f
		v.Terminal = f.Terminal()
	}
	return v
}

// fail maps domain errors onto HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrUnknownQuestion):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrSessionExists):
		s.writeError(w, http.StatusConflict, err)
	case errors.As(err, &verr):
		view := errorView{Error: "invalid answer"}
		if problems := schema.ValidationErrors(err); problems != nil {
			for _, p := range problems {
				view.Problems = append(view.Problems, p.Error())
			}
		} else {
			view.Problems = []string{verr.Error()}
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, view)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.logger.Error(op+" failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorView{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StreamManager fans state diffs out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *domain.StateDiff]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan *domain.StateDiff]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for the session and returns it with its
// cancel func, which unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan *domain.StateDiff, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan *domain.StateDiff, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan *domain.StateDiff]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast delivers the diff to every subscriber of the session. Slow clients whose
// buffer is full miss the message.
func (sm *StreamManager) Broadcast(sessionID string, diff *domain.StateDiff) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- diff:
		default:
			sm.logger.Warn("sse client buffer full, dropping message", "session_id", sessionID)
		}
	}
}
