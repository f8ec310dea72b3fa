package tasks

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/pkg/handlers"
	"github.com/agentplane/agentplane/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP handlers for task operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a new tasks HTTP handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger,
	}
}

// Routes returns the route group configuration for task endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/tasks",
		Tags:        []string{"Tasks"},
		Description: "Task lifecycle and orchestration",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/statistics", Handler: h.Statistics},
			{Method: "GET", Pattern: "/pending", Handler: h.Pending},
			{Method: "GET", Pattern: "/running", Handler: h.Running},
			{Method: "GET", Pattern: "/agent/{agentId}", Handler: h.FindByAgent},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/{id}/start", Handler: h.Start},
			{Method: "POST", Pattern: "/{id}/complete", Handler: h.Complete},
			{Method: "POST", Pattern: "/{id}/fail", Handler: h.Fail},
			{Method: "POST", Pattern: "/{id}/cancel", Handler: h.Cancel},
			{Method: "PUT", Pattern: "/{id}/priority", Handler: h.Prioritize},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "GET", Pattern: "/orchestration/workload", Handler: h.Workload},
			{Method: "GET", Pattern: "/orchestration/failures", Handler: h.Failures},
			{Method: "POST", Pattern: "/orchestration/redistribute/{agentId}", Handler: h.Redistribute},
			{Method: "GET", Pattern: "/orchestration/allocation", Handler: h.Allocation},
		},
	}
}

// List handles GET /api/tasks. Optional agent_id, status, priority, and type
// query parameters narrow the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), filters)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find handles GET /api/tasks/{id}.
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

// FindByAgent handles GET /api/tasks/agent/{agentId}.
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

// Pending handles GET /api/tasks/pending.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.PendingTasks(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Running handles GET /api/tasks/running.
func (h *Handler) Running(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.RunningTasks(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create handles POST /api/tasks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Create(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Start handles POST /api/tasks/{id}/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id uuid.UUID) (*Task, error) {
		return h.sys.Start(r.Context(), id)
	})
}

// Complete handles POST /api/tasks/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OutputData json.RawMessage `json:"output_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.lifecycle(w, r, func(id uuid.UUID) (*Task, error) {
		return h.sys.Complete(r.Context(), id, body.OutputData)
	})
}

// Fail handles POST /api/tasks/{id}/fail.
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.lifecycle(w, r, func(id uuid.UUID) (*Task, error) {
		return h.sys.Fail(r.Context(), id, body.ErrorMessage)
	})
}

// Cancel handles POST /api/tasks/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(id uuid.UUID) (*Task, error) {
		return h.sys.Cancel(r.Context(), id)
	})
}

// Prioritize handles PUT /api/tasks/{id}/priority.
func (h *Handler) Prioritize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Priority TaskPriority `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.lifecycle(w, r, func(id uuid.UUID) (*Task, error) {
		return h.sys.Prioritize(r.Context(), id, body.Priority)
	})
}

// Delete handles DELETE /api/tasks/{id}.
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

// Statistics handles GET /api/tasks/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Statistics(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Workload handles GET /api/tasks/orchestration/workload.
func (h *Handler) Workload(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.BalanceWorkload(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Failures handles GET /api/tasks/orchestration/failures.
func (h *Handler) Failures(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.DetectAgentFailures(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Redistribute handles POST /api/tasks/orchestration/redistribute/{agentId}.
func (h *Handler) Redistribute(w http.ResponseWriter, r *http.Request) {
	agentID, err := uuid.Parse(r.PathValue("agentId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.RedistributeTasks(r.Context(), agentID); err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Allocation handles GET /api/tasks/orchestration/allocation.
func (h *Handler) Allocation(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.OptimizeAllocation(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// lifecycle parses the id path value and writes the outcome of a single
// lifecycle operation.
func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, op func(uuid.UUID) (*Task, error)) {
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
