package messages

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/agentplane/agentplane/internal/platform"
	"github.com/agentplane/agentplane/pkg/handlers"
	"github.com/agentplane/agentplane/pkg/routes"
	"github.com/google/uuid"
)

const defaultRecentLimit = 50

// Handler provides HTTP handlers for messaging operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a new messages HTTP handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger,
	}
}

// Routes returns the route group configuration for messaging endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api/messages",
		Tags:        []string{"Messages"},
		Description: "Inter-agent messaging",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Recent},
			{Method: "GET", Pattern: "/sender/{agentId}", Handler: h.FindBySender},
			{Method: "GET", Pattern: "/receiver/{agentId}", Handler: h.FindByReceiver},
			{Method: "GET", Pattern: "/conversation/{a}/{b}", Handler: h.Conversation},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Send},
			{Method: "POST", Pattern: "/broadcast", Handler: h.Broadcast},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// Recent handles GET /api/messages. Optional type and limit query parameters
// narrow the result.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	if t := r.URL.Query().Get("type"); t != "" {
		result, err := h.sys.FindByType(r.Context(), MessageType(t))
		if err != nil {
			handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, result)
		return
	}

	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
		limit = n
	}

	result, err := h.sys.Recent(r.Context(), limit)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find handles GET /api/messages/{id}.
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

// FindBySender handles GET /api/messages/sender/{agentId}.
func (h *Handler) FindBySender(w http.ResponseWriter, r *http.Request) {
	h.byAgent(w, r, h.sys.FindBySender)
}

// FindByReceiver handles GET /api/messages/receiver/{agentId}.
func (h *Handler) FindByReceiver(w http.ResponseWriter, r *http.Request) {
	h.byAgent(w, r, h.sys.FindByReceiver)
}

// Conversation handles GET /api/messages/conversation/{a}/{b}.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	a, err := uuid.Parse(r.PathValue("a"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	b, err := uuid.Parse(r.PathValue("b"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Conversation(r.Context(), a, b)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Send handles POST /api/messages.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	h.deliver(w, r, h.sys.Send)
}

// Broadcast handles POST /api/messages/broadcast.
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	h.deliver(w, r, h.sys.Broadcast)
}

// Delete handles DELETE /api/messages/{id}.
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

func (h *Handler) byAgent(w http.ResponseWriter, r *http.Request, find func(ctx context.Context, agentID uuid.UUID) ([]*Message, error)) {
	agentID, err := uuid.Parse(r.PathValue("agentId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := find(r.Context(), agentID)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, req SendMessageRequest) (*Message, error)) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := op(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, platform.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}
