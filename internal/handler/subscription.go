package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/growtools/backend/internal/contextkeys"
	"github.com/growtools/backend/internal/service"
)

// SubscriptionHandler serves the user-facing subscription endpoints.
type SubscriptionHandler struct {
	subs *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subs *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

// List handles GET /api/subscriptions.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	subs, err := h.subs.ListForUser(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, subs)
}

// Pause handles POST /api/subscriptions/{subId}/pause.
func (h *SubscriptionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.subs.Pause)
}

// Resume handles POST /api/subscriptions/{subId}/resume.
func (h *SubscriptionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.subs.Resume)
}

func (h *SubscriptionHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, subID string) error) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := fn(r.Context(), userID, chi.URLParam(r, "subId")); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
