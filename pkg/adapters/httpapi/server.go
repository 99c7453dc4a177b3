// Package httpapi exposes the interview engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LACSistemas/EscriturasNew/internal/logging"
	"github.com/LACSistemas/EscriturasNew/internal/presentation/graph"
	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/LACSistemas/EscriturasNew/pkg/engine"
	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

// maxRequestBody bounds multipart submissions, slightly above the upload
// limit to leave room for the other form fields.
const maxRequestBody = workflow.MaxUploadSize + 1<<20

// Engine is the interview core the server drives.
type Engine interface {
	StartSession(ctx context.Context, sessionID string) (*engine.Outcome, error)
	Prompt(ctx context.Context, sessionID string) (*engine.Outcome, error)
	ProcessStep(ctx context.Context, sessionID string, resp engine.Response) (*engine.Outcome, error)
	Reset(ctx context.Context, sessionID string) (*engine.Outcome, error)
	Delete(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, sessionID string) (*domain.Session, error)
	Definition() *workflow.Definition
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine   Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGatherer mounts /metrics over the given prometheus gatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(eng Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: eng,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Post("/sessions", s.createSession)
	r.Get("/sessions", s.listSessions)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.getPrompt)
		r.Delete("/", s.deleteSession)
		r.Post("/steps", s.processStep)
		r.Post("/reset", s.resetSession)
		r.Get("/history", s.getHistory)
		r.Get("/graph.mmd", s.getSessionGraph)
	})
	r.Get("/workflow/transitions", s.getTransitions)
	r.Get("/workflow/graph.mmd", s.getGraph)

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	outcome, err := s.engine.StartSession(r.Context(), body.SessionID)
	if err != nil {
		s.mapError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, outcome)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Sessions(r.Context())
	if err != nil {
		s.mapError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) getPrompt(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.engine.Prompt(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.mapError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.mapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) processStep(w http.ResponseWriter, r *http.Request) {
	resp, err := decodeResponse(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.engine.ProcessStep(r.Context(), chi.URLParam(r, "sessionID"), resp)
	if err != nil {
		s.mapError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.engine.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.mapError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.mapError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID,
		"history":    session.History,
	})
}

func (s *Server) getSessionGraph(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.mapError(w, r, err)
		return
	}

	visited := make([]string, 0, len(session.History))
	for _, entry := range session.History {
		visited = append(visited, entry.Step)
	}
	overlay := &graph.Overlay{VisitedSteps: visited, CurrentStep: session.CurrentStep}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.engine.Definition(), overlay))
}

func (s *Server) getTransitions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"entry":       s.engine.Definition().Entry(),
		"transitions": s.engine.Definition().TransitionMap(),
	})
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.engine.Definition(), nil))
}

// decodeResponse accepts either a JSON body for answers or multipart form
// data for file uploads.
func decodeResponse(r *http.Request) (engine.Response, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if strings.HasPrefix(contentType, "multipart/") {
		return decodeMultipart(r)
	}

	var body struct {
		Sequence uint64 `json:"sequence"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return engine.Response{}, fmt.Errorf("invalid request body: %w", err)
	}
	return engine.Response{Sequence: body.Sequence, Answer: body.Answer}, nil
}

func decodeMultipart(r *http.Request) (engine.Response, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	if err := r.ParseMultipartForm(maxRequestBody); err != nil {
		return engine.Response{}, fmt.Errorf("invalid multipart body: %w", err)
	}

	var resp engine.Response
	if raw := r.FormValue("sequence"); raw != "" {
		seq, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return engine.Response{}, fmt.Errorf("invalid sequence %q", raw)
		}
		resp.Sequence = seq
	}
	resp.Answer = r.FormValue("answer")

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return resp, nil
		}
		return engine.Response{}, fmt.Errorf("invalid file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return engine.Response{}, fmt.Errorf("failed to read file: %w", err)
	}
	resp.FileData = data
	resp.Filename = header.Filename
	return resp, nil
}

func (s *Server) mapError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		stale      *domain.StaleRequestError
		extraction *domain.ExtractionError
		transition *domain.TransitionError
	)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s.writeError(w, r, http.StatusNotFound, "session not found")
	case errors.As(err, &validation):
		s.writeError(w, r, http.StatusUnprocessableEntity, validation.Error())
	case errors.As(err, &stale):
		s.writeError(w, r, http.StatusConflict, stale.Error())
	case errors.As(err, &extraction):
		s.writeError(w, r, http.StatusBadGateway, extraction.Error())
	case errors.As(err, &transition):
		s.logger.Error("unmatched transition", "path", r.URL.Path, "err", err)
		s.writeError(w, r, http.StatusInternalServerError, transition.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}
