package learning

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/pkg/handlers"
	"github.com/agentplane/agentplane/pkg/routes"
	"github.com/google/uuid"
)

const defaultHistoryLimit = 10

// Handler provides HTTP handlers for learning session operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a new learning HTTP handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger,
	}
}

// Routes returns the route group configuration for learning endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/learning",
		Tags:        []string{"Learning"},
		Description: "Learning session lifecycle and evaluation",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/statistics", Handler: h.Statistics},
			{Method: "GET", Pattern: "/active", Handler: h.Active},
			{Method: "GET", Pattern: "/agent/{agentId}", Handler: h.FindByAgent},
			{Method: "GET", Pattern: "/agent/{agentId}/history", Handler: h.History},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/performance", Handler: h.Performance},
			{Method: "POST", Pattern: "", Handler: h.Start},
			{Method: "POST", Pattern: "/{id}/train", Handler: h.BeginTraining},
			{Method: "POST", Pattern: "/{id}/evaluate", Handler: h.BeginEvaluation},
			{Method: "POST", Pattern: "/{id}/complete", Handler: h.Complete},
			{Method: "POST", Pattern: "/{id}/fail", Handler: h.Fail},
			{Method: "PUT", Pattern: "/{id}/metrics", Handler: h.RecordMetrics},
			{Method: "PUT", Pattern: "/{id}/snapshot", Handler: h.SaveSnapshot},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List handles GET /api/learning. Optional status and type query parameters
// narrow the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		result []*Session
		err    error
	)
	switch {
	case query.Get("status") != "":
		result, err = h.sys.FindByStatus(r.Context(), SessionStatus(query.Get("status")))
	case query.Get("type") != "":
		result, err = h.sys.FindByType(r.Context(), SessionType(query.Get("type")))
	default:
		result, err = h.sys.ListAll(r.Context())
	}

	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find handles GET /api/learning/{id}.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// FindByAgent handles GET /api/learning/agent/{agentId}.
func (h *Handler) FindByAgent(w http.ResponseWriter, r *http.Request) {
	agentID, err := uuid.Parse(r.PathValue("agentId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.FindByAgent(r.Context(), agentID)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// History handles GET /api/learning/agent/{agentId}/history with an optional
// limit query parameter.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	agentID, err := uuid.Parse(r.PathValue("agentId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
		limit = n
	}

	result, err := h.sys.History(r.Context(), agentID, limit)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Active handles GET /api/learning/active.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.ActiveSessions(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Start handles POST /api/learning.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Start(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// BeginTraining handles POST /api/learning/{id}/train.
func (h *Handler) BeginTraining(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id uuid.UUID) (*Session, error) {
		return h.sys.BeginTraining(r.Context(), id)
	})
}

// BeginEvaluation handles POST /api/learning/{id}/evaluate.
func (h *Handler) BeginEvaluation(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id uuid.UUID) (*Session, error) {
		return h.sys.BeginEvaluation(r.Context(), id)
	})
}

// Complete handles POST /api/learning/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id uuid.UUID) (*Session, error) {
		return h.sys.Complete(r.Context(), id)
	})
}

// Fail handles POST /api/learning/{id}/fail.
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id uuid.UUID) (*Session, error) {
		return h.sys.Fail(r.Context(), id)
	})
}

// RecordMetrics handles PUT /api/learning/{id}/metrics.
func (h *Handler) RecordMetrics(w http.ResponseWriter, r *http.Request) {
	var metrics Metrics
	if err := json.NewDecoder(r.Body).Decode(&metrics); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.lifecycle(w, r, func(id uuid.UUID) (*Session, error) {
		return h.sys.RecordMetrics(r.Context(), id, metrics)
	})
}

// SaveSnapshot handles PUT /api/learning/{id}/snapshot.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var snapshot ModelSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.lifecycle(w, r, func(id uuid.UUID) (*Session, error) {
		return h.sys.SaveSnapshot(r.Context(), id, snapshot)
	})
}

// Performance handles GET /api/learning/{id}/performance.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	score, err := h.sys.EvaluatePerformance(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]float64{"score": score})
}

// Delete handles DELETE /api/learning/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Statistics handles GET /api/learning/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Statistics(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// lifecycle parses the id path value and writes the outcome of a single
// session operation.
func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, op func(uuid.UUID) (*Session, error)) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := op(id)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
