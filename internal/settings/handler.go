package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/pkg/handlers"
	"github.com/agentplane/agentplane/pkg/routes"
)

// Handler provides HTTP handlers for the global settings store. The store
// has no domain service; handlers talk to the repository directly.
type Handler struct {
	repo   Repository
	logger *slog.Logger
}

// NewHandler creates a new settings HTTP handler.
func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Routes returns the route group configuration for settings endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/settings",
		Tags:        []string{"Settings"},
		Description: "Global platform settings",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{key}", Handler: h.Get},
			{Method: "PUT", Pattern: "/{key}", Handler: h.Set},
			{Method: "DELETE", Pattern: "/{key}", Handler: h.Delete},
		},
	}
}

// List handles GET /api/settings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.repo.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/settings/{key}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.repo.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Set handles PUT /api/settings/{key}. The request body is the setting's
// JSON value.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	var value json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if len(value) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: value required", ErrInvalidRequest))
		return
	}

	result, err := h.repo.Set(r.Context(), &Setting{
		Key:   r.PathValue("key"),
		Value: value,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /api/settings/{key}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("key")); err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
