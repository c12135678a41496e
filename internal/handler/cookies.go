package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/growtools/backend/internal/contextkeys"
	"github.com/growtools/backend/internal/service"
)

// CookiesHandler serves the access-gateway endpoint the web UI calls on
// behalf of the extension.
type CookiesHandler struct {
	access *service.AccessService
}

// NewCookiesHandler creates a new CookiesHandler.
func NewCookiesHandler(access *service.AccessService) *CookiesHandler {
	return &CookiesHandler{access: access}
}

// Get handles GET /api/cookies/{toolId}. On success the body carries the
// transport-encoded cookie set and the tool's canonical URL; on denial
// the specific reason is surfaced (403/404 per the state machine).
func (h *CookiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	toolID := chi.URLParam(r, "toolId")

	access, err := h.access.GetCookiesForUser(r.Context(), userID, toolID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, access)
}
