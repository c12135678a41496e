package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/growtools/backend/internal/contextkeys"
	"github.com/growtools/backend/internal/cookie"
	"github.com/growtools/backend/internal/domain"
	"github.com/growtools/backend/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminHandler serves the operator console: cookie vault writes, private
// activation, suspension, the audit trail, and dashboard stats.
type AdminHandler struct {
	db    *pgxpool.Pool
	vault *service.CookieVault
	subs  *service.SubscriptionService
	audit service.AuditStore
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *pgxpool.Pool, vault *service.CookieVault, subs *service.SubscriptionService, audit service.AuditStore) *AdminHandler {
	return &AdminHandler{db: db, vault: vault, subs: subs, audit: audit}
}

// SetToolCookies handles PUT /api/admin/tools/{toolId}/cookies. The
// submitted records are normalized the same way the transport decoder
// normalizes them, then stored encrypted.
func (h *AdminHandler) SetToolCookies(w http.ResponseWriter, r *http.Request) {
	adminID, _ := r.Context().Value(contextkeys.UserID).(string)
	toolID := chi.URLParam(r, "toolId")

	var req domain.SetToolCookiesRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	if err := Valid(&req); err != nil {
		Error(w, err)
		return
	}

	set := cookie.Normalize(cookie.Set(req.Cookies))
	if len(set) == 0 {
		Error(w, domain.ErrBadRequest("no usable cookie records in payload"))
		return
	}

	if err := h.vault.Save(r.Context(), toolID, set, req.ExpiryDate, adminID); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true, "stored": len(set)})
}

// ActivateSubscription handles POST /api/admin/subscriptions/{subId}/activate.
func (h *AdminHandler) ActivateSubscription(w http.ResponseWriter, r *http.Request) {
	adminID, _ := r.Context().Value(contextkeys.UserID).(string)
	subID := chi.URLParam(r, "subId")

	var req domain.ActivateSubscriptionRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	if err := Valid(&req); err != nil {
		Error(w, err)
		return
	}

	if err := h.subs.ActivatePrivate(r.Context(), adminID, subID, &req); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SuspendSubscription handles POST /api/admin/subscriptions/{subId}/suspend.
func (h *AdminHandler) SuspendSubscription(w http.ResponseWriter, r *http.Request) {
	adminID, _ := r.Context().Value(contextkeys.UserID).(string)
	subID := chi.URLParam(r, "subId")

	if err := h.subs.Suspend(r.Context(), adminID, subID); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListLogs handles GET /api/admin/logs?limit=N.
func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	logs, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		Error(w, domain.ErrInternal("failed to list audit logs", err))
		return
	}
	JSON(w, http.StatusOK, logs)
}

// GetStats handles GET /api/admin/stats: dashboard counters.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var users, tools, activeSubs, pendingSubs int

	if err := h.db.QueryRow(r.Context(), "SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		log.Printf("failed to count users: %v", err)
	}
	if err := h.db.QueryRow(r.Context(), "SELECT COUNT(*) FROM tools").Scan(&tools); err != nil {
		log.Printf("failed to count tools: %v", err)
	}
	if err := h.db.QueryRow(r.Context(),
		"SELECT COUNT(*) FROM subscriptions WHERE status = $1 AND activation_status = $2",
		domain.SubStatusActive, domain.ActivationActive).Scan(&activeSubs); err != nil {
		log.Printf("failed to count active subscriptions: %v", err)
	}
	if err := h.db.QueryRow(r.Context(),
		"SELECT COUNT(*) FROM subscriptions WHERE activation_status = $1",
		domain.ActivationPending).Scan(&pendingSubs); err != nil {
		log.Printf("failed to count pending subscriptions: %v", err)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"users":                users,
		"tools":                tools,
		"activeSubscriptions":  activeSubs,
		"pendingSubscriptions": pendingSubs,
	})
}
