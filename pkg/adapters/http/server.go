package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/bardic/internal/dto"
	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Sessions is the session surface the HTTP transport drives.
type Sessions interface {
	Start(ctx context.Context, storyID string) (string, *domain.Output, error)
	Resume(ctx context.Context, storyID, saveID string) (string, *domain.Output, error)
	Current(ctx context.Context, sessionID string) (*domain.Output, error)
	Choose(ctx context.Context, sessionID string, index int) (*domain.Output, error)
	SubmitInputs(ctx context.Context, sessionID string, inputs map[string]string) error
	Info(ctx context.Context, sessionID string) (domain.StoryInfo, error)
	Save(ctx context.Context, sessionID, saveName string) (string, error)
	Load(ctx context.Context, sessionID, saveID string) (*domain.Output, error)
	End(ctx context.Context, sessionID string) error
	Stories(ctx context.Context) ([]string, error)
	Saves(ctx context.Context) ([]domain.SaveSummary, error)
	DeleteSave(ctx context.Context, saveID string) error
}

var _ Sessions = (*session.Manager)(nil)

// Server is a thin JSON API over a session manager.
type Server struct {
	Sessions Sessions
	Streams  *StreamManager

	logger   *slog.Logger
	metrics  http.Handler
	validate bool
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRequestValidation checks /api requests against the OpenAPI
// description before they reach a handler.
func WithRequestValidation() Option {
	return func(s *Server) {
		s.validate = true
	}
}

// WithStreams shares a StreamManager, typically one also fed to
// session.WithChangeListener.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/openapi.yaml", s.serveSpec)
	r.Route("/api", func(r chi.Router) {
		if s.validate {
			router, err := newOpenAPIRouter(context.Background())
			if err != nil {
				s.logger.Error("request validation disabled", "err", err)
			} else {
				r.Use(s.requestValidator(router))
			}
		}
		r.Get("/health", s.GetHealth)
		r.Get("/stories", s.ListStories)
		r.Post("/story/start", s.StartStory)
		r.Route("/story/{session}", func(r chi.Router) {
			r.Get("/current", s.Current)
			r.Get("/info", s.Info)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/choose", s.Choose)
			r.Post("/inputs", s.SubmitInputs)
			r.Post("/save", s.Save)
			r.Post("/load", s.Load)
			r.Delete("/", s.End)
		})
		r.Get("/saves", s.ListSaves)
		r.Delete("/saves/{id}", s.DeleteSave)
	})
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

// GetHealth handles GET /api/health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListStories handles GET /api/stories.
func (s *Server) ListStories(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.Stories(r.Context())
	if err != nil {
		s.fail(w, r, "ListStories", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"stories": ids})
}

// StartStory handles POST /api/story/start.
func (s *Server) StartStory(w http.ResponseWriter, r *http.Request) {
	var body dto.StartRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.StoryID == "" {
		s.writeError(w, http.StatusBadRequest, "story_id is required")
		return
	}

	var (
		id  string
		out *domain.Output
		err error
	)
	if body.SaveID != "" {
		id, out, err = s.Sessions.Resume(r.Context(), body.StoryID, body.SaveID)
	} else {
		id, out, err = s.Sessions.Start(r.Context(), body.StoryID)
	}
	if err != nil {
		s.fail(w, r, "StartStory", err)
		return
	}
	resp := dto.FromOutput(out)
	resp.SessionID = id
	s.writeJSON(w, http.StatusCreated, resp)
}

// Current handles GET /api/story/{session}/current.
func (s *Server) Current(w http.ResponseWriter, r *http.Request) {
	out, err := s.Sessions.Current(r.Context(), chi.URLParam(r, "session"))
	s.respondOutput(w, r, "Current", out, err)
}

// Info handles GET /api/story/{session}/info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	info, err := s.Sessions.Info(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.fail(w, r, "Info", err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// Choose handles POST /api/story/{session}/choose.
func (s *Server) Choose(w http.ResponseWriter, r *http.Request) {
	var body dto.ChooseRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Index == nil {
		s.writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	out, err := s.Sessions.Choose(r.Context(), chi.URLParam(r, "session"), *body.Index)
	s.respondOutput(w, r, "Choose", out, err)
}

// SubmitInputs handles POST /api/story/{session}/inputs.
func (s *Server) SubmitInputs(w http.ResponseWriter, r *http.Request) {
	var body dto.InputsRequest
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.Sessions.SubmitInputs(r.Context(), chi.URLParam(r, "session"), body.Inputs); err != nil {
		s.fail(w, r, "SubmitInputs", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save handles POST /api/story/{session}/save.
func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	var body dto.SaveRequest
	if !s.decode(w, r, &body) {
		return
	}
	id, err := s.Sessions.Save(r.Context(), chi.URLParam(r, "session"), body.SaveName)
	if err != nil {
		s.fail(w, r, "Save", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, dto.SaveResponse{SaveID: id})
}

// Load handles POST /api/story/{session}/load.
func (s *Server) Load(w http.ResponseWriter, r *http.Request) {
	var body dto.LoadRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.SaveID == "" {
		s.writeError(w, http.StatusBadRequest, "save_id is required")
		return
	}
	out, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "session"), body.SaveID)
	s.respondOutput(w, r, "Load", out, err)
}

// End handles DELETE /api/story/{session}.
func (s *Server) End(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.End(r.Context(), chi.URLParam(r, "session")); err != nil {
		s.fail(w, r, "End", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSaves handles GET /api/saves.
func (s *Server) ListSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := s.Sessions.Saves(r.Context())
	if err != nil {
		s.fail(w, r, "ListSaves", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]domain.SaveSummary{"saves": saves})
}

// DeleteSave handles DELETE /api/saves/{id}.
func (s *Server) DeleteSave(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.DeleteSave(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "DeleteSave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func (s *Server) respondOutput(w http.ResponseWriter, r *http.Request, op string, out *domain.Output, err error) {
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dto.FromOutput(out))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case session.IsNotFound(err), errors.Is(err, domain.ErrPassageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrChoiceOutOfRange),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrSaveVersion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoOutput):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "session_id", chi.URLParam(r, "session"), "err", err)
	} else {
		s.logger.Warn(op+" rejected", "session_id", chi.URLParam(r, "session"), "err", err)
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, dto.Error{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// SubscribeEvents handles GET /api/story/{session}/events (SSE).
// Each event carries a StateDiff produced by the session manager.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	sessionID := chi.URLParam(r, "session")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
