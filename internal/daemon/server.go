// Package daemon exposes the learning progress core over HTTP. Handlers
// are thin: decode, validate, call the service, map domain errors to
// status codes.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
	"github.com/darasahq/darasa/internal/points"
	"github.com/darasahq/darasa/internal/progress"
)

// Server represents the darasa daemon HTTP server
type Server struct {
	server *http.Server
	router *http.ServeMux

	progressService *progress.Service
	pointsService   *points.Service
	learners        domain.LearnerStore
	ledger          domain.LedgerStore
	validate        *validator.Validate
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Addr string

	Progress *progress.Service
	Points   *points.Service
	Learners domain.LearnerStore
	Ledger   domain.LedgerStore
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		router:          http.NewServeMux(),
		progressService: cfg.Progress,
		pointsService:   cfg.Points,
		learners:        cfg.Learners,
		ledger:          cfg.Ledger,
		validate:        validator.New(),
	}

	s.setupRoutes()

	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health
	s.router.HandleFunc("GET /v1/health", s.handleHealth)

	// Learners
	s.router.HandleFunc("GET /v1/learners/{id}", s.handleGetLearner)
	s.router.HandleFunc("GET /v1/learners/{id}/ledger", s.handleGetLedger)
	s.router.HandleFunc("POST /v1/learners/{id}/recommendations/refresh", s.handleRefreshRecommendations)
	s.router.HandleFunc("POST /v1/learners/{id}/reconcile", s.handleReconcile)

	// Progress
	s.router.HandleFunc("POST /v1/lessons/complete", s.handleCompleteLesson)
	s.router.HandleFunc("POST /v1/exercises/submit", s.handleSubmitExercise)
	s.router.HandleFunc("POST /v1/submissions/{id}/score", s.handleScoreSubmission)

	// Points
	s.router.HandleFunc("POST /v1/learners/{id}/points/award", s.handleAwardPoints)
	s.router.HandleFunc("POST /v1/learners/{id}/points/spend", s.handleSpendPoints)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting darasa daemon", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetLearner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid learner id", err)
		return
	}

	learner, err := s.learners.Get(r.Context(), id)
	if err != nil {
		s.domainError(w, "get learner", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, learner)
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid learner id", err)
		return
	}

	entries, err := s.ledger.ListByLearner(r.Context(), id)
	if err != nil {
		s.domainError(w, "list ledger", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"learner_id": id,
		"entries":    entries,
	})
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LearnerID   uuid.UUID `json:"learner_id" validate:"required"`
		ClassroomID uuid.UUID `json:"classroom_id" validate:"required"`
		UnitID      string    `json:"unit_id" validate:"required"`
		LessonID    string    `json:"lesson_id" validate:"required"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	learner, err := s.progressService.CompleteLesson(r.Context(), req.LearnerID, req.ClassroomID, req.UnitID, req.LessonID)
	if err != nil {
		s.domainError(w, "complete lesson", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, learner)
}

func (s *Server) handleSubmitExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LearnerID   uuid.UUID       `json:"learner_id" validate:"required"`
		ClassroomID uuid.UUID       `json:"classroom_id" validate:"required"`
		UnitID      string          `json:"unit_id" validate:"required"`
		ExerciseID  string          `json:"exercise_id" validate:"required"`
		Score       *int            `json:"score" validate:"omitempty,gte=0"`
		Answers     json.RawMessage `json:"answers"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	learner, err := s.progressService.SubmitExercise(r.Context(), req.LearnerID, req.ClassroomID, req.UnitID, req.ExerciseID,
		progress.Attempt{Score: req.Score, Answers: req.Answers})
	if err != nil {
		s.domainError(w, "submit exercise", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, learner)
}

func (s *Server) handleScoreSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid submission id", err)
		return
	}

	var req struct {
		LearnerID uuid.UUID  `json:"learner_id" validate:"required"`
		Score     int        `json:"score" validate:"gte=0"`
		GraderID  *uuid.UUID `json:"grader_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	learner, err := s.progressService.ScoreSubmission(r.Context(), req.LearnerID, submissionID, req.Score, req.GraderID)
	if err != nil {
		s.domainError(w, "score submission", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, learner)
}

func (s *Server) handleRefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid learner id", err)
		return
	}

	learner, err := s.progressService.RefreshRecommendations(r.Context(), id)
	if err != nil {
		s.domainError(w, "refresh recommendations", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, learner.Recommendations)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid learner id", err)
		return
	}

	drift, err := s.pointsService.Reconcile(r.Context(), id)
	if err != nil {
		s.domainError(w, "reconcile", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, drift)
}

func (s *Server) handleAwardPoints(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid learner id", err)
		return
	}

	var req struct {
		ClassroomID uuid.UUID `json:"classroom_id" validate:"required"`
		GranterID   uuid.UUID `json:"granter_id" validate:"required"`
		Amount      int       `json:"amount" validate:"gt=0"`
		Detail      string    `json:"detail"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	learner, err := s.pointsService.Award(r.Context(), id, req.ClassroomID, req.GranterID, req.Amount, req.Detail)
	if err != nil {
		s.domainError(w, "award points", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, learner.Game)
}

func (s *Server) handleSpendPoints(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid learner id", err)
		return
	}

	var req struct {
		ClassroomID uuid.UUID `json:"classroom_id" validate:"required"`
		Amount      int       `json:"amount" validate:"gt=0"`
		Detail      string    `json:"detail"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	learner, err := s.pointsService.Spend(r.Context(), id, req.ClassroomID, req.Amount, req.Detail)
	if err != nil {
		s.domainError(w, "spend points", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, learner.Game)
}

// decode parses and validates a JSON request body, writing the error
// response itself when the payload is bad.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.jsonError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

// domainError maps domain sentinel errors to HTTP status codes.
func (s *Server) domainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrLearnerNotFound),
		errors.Is(err, domain.ErrClassroomNotFound),
		errors.Is(err, domain.ErrNotFound):
		s.jsonError(w, http.StatusNotFound, fmt.Sprintf("%s: not found", op), err)
	case errors.Is(err, domain.ErrNotEnrolled):
		s.jsonError(w, http.StatusForbidden, fmt.Sprintf("%s: not enrolled", op), err)
	case errors.Is(err, domain.ErrInsufficientPoints):
		s.jsonError(w, http.StatusConflict, fmt.Sprintf("%s: insufficient points", op), err)
	case errors.Is(err, domain.ErrInvalidReference),
		errors.Is(err, domain.ErrInvalidSubmissionTarget),
		errors.Is(err, domain.ErrScoreExceedsMax),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidInput):
		s.jsonError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s: invalid request", op), err)
	default:
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed", op), err)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
