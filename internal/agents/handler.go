package agents

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/pkg/handlers"
	"github.com/agentplane/agentplane/pkg/pagination"
	"github.com/agentplane/agentplane/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP handlers for agent operations. The transport layer
// only deserializes requests and maps errors to status codes; all sequencing
// lives in the System.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a new agents HTTP handler.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger,
		pagination: pagination,
	}
}

// Routes returns the route group configuration for agent endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/agents",
		Tags:        []string{"Agents"},
		Description: "Agent lifecycle and configuration",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/statistics", Handler: h.Statistics},
			{Method: "GET", Pattern: "/name/{name}", Handler: h.FindByName},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "PUT", Pattern: "/{id}/status", Handler: h.UpdateStatus},
			{Method: "PUT", Pattern: "/{id}/configuration", Handler: h.UpdateConfiguration},
			{Method: "POST", Pattern: "/{id}/capabilities", Handler: h.AddCapability},
			{Method: "DELETE", Pattern: "/{id}/capabilities/{name}", Handler: h.RemoveCapability},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List handles GET /api/agents to retrieve a paginated list of agents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find handles GET /api/agents/{id} to retrieve a single agent.
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

// FindByName handles GET /api/agents/name/{name}.
func (h *Handler) FindByName(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.FindByName(r.Context(), r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create handles POST /api/agents to create a new agent.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
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

// UpdateStatus handles PUT /api/agents/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Status AgentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// UpdateConfiguration handles PUT /api/agents/{id}/configuration.
func (h *Handler) UpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cfg Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.UpdateConfiguration(r.Context(), id, cfg)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// AddCapability handles POST /api/agents/{id}/capabilities.
func (h *Handler) AddCapability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var capability Capability
	if err := json.NewDecoder(r.Body).Decode(&capability); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.AddCapability(r.Context(), id, capability)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// RemoveCapability handles DELETE /api/agents/{id}/capabilities/{name}.
func (h *Handler) RemoveCapability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.RemoveCapability(r.Context(), id, r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /api/agents/{id}.
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

// Statistics handles GET /api/agents/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Statistics(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
