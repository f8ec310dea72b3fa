package plugins

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/pkg/handlers"
	"github.com/agentplane/agentplane/pkg/routes"
)

// Handler provides HTTP handlers for plugin registry operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a new plugins HTTP handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger,
	}
}

// Routes returns the route group configuration for plugin endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/plugins",
		Tags:        []string{"Plugins"},
		Description: "Plugin registry",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/enabled", Handler: h.ListEnabled},
			{Method: "GET", Pattern: "/{id}", Handler: h.Get},
			{Method: "POST", Pattern: "", Handler: h.Register},
			{Method: "PUT", Pattern: "/{id}/enable", Handler: h.Enable},
			{Method: "PUT", Pattern: "/{id}/disable", Handler: h.Disable},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Unregister},
		},
	}
}

// List handles GET /api/plugins.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// ListEnabled handles GET /api/plugins/enabled.
func (h *Handler) ListEnabled(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.ListEnabled(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/plugins/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Register handles POST /api/plugins.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterPluginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Register(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Enable handles PUT /api/plugins/{id}/enable.
func (h *Handler) Enable(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Enable(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Disable handles PUT /api/plugins/{id}/disable.
func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Disable(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Unregister handles DELETE /api/plugins/{id}.
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Unregister(r.Context(), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
