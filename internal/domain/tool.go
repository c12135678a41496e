package domain

import (
	"time"

	"github.com/growtools/backend/internal/cookie"
)

// Tool is a resellable third-party SaaS product. The encrypted cookie blob
// for its shared session lives on the tool row; CookieExpiry is an
// admin-facing freshness reminder and never gates access (only the
// subscription's billing period does).
type Tool struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	URL           string     `json:"url"`
	Description   string     `json:"description,omitempty"`
	PriceShared   int64      `json:"priceShared"`  // monthly price in paise
	PricePrivate  int64      `json:"pricePrivate"` // monthly price in paise
	CookieBlob    string     `json:"-"`            // AES-GCM ciphertext, base64
	CookieExpiry  *time.Time `json:"cookieExpiry,omitempty"`
	CookieUpdated *time.Time `json:"cookieUpdatedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ToolResponse is the catalog view of a tool (no blob internals).
type ToolResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	URL          string `json:"url"`
	Description  string `json:"description,omitempty"`
	PriceShared  int64  `json:"priceShared"`
	PricePrivate int64  `json:"pricePrivate"`
	HasCookies   bool   `json:"hasCookies"`
}

// Public returns the catalog view of the tool.
func (t *Tool) Public() *ToolResponse {
	return &ToolResponse{
		ID:           t.ID,
		Name:         t.Name,
		Slug:         t.Slug,
		URL:          t.URL,
		Description:  t.Description,
		PriceShared:  t.PriceShared,
		PricePrivate: t.PricePrivate,
		HasCookies:   t.CookieBlob != "",
	}
}

// CreateToolRequest is the validated input for creating a tool.
type CreateToolRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Slug         string `json:"slug" validate:"required,min=1,max=100"`
	URL          string `json:"url" validate:"required,url"`
	Description  string `json:"description"`
	PriceShared  int64  `json:"priceShared" validate:"gte=0"`
	PricePrivate int64  `json:"pricePrivate" validate:"gte=0"`
}

// UpdateToolRequest is the validated input for updating a tool.
type UpdateToolRequest struct {
	Name         string `json:"name"`
	URL          string `json:"url" validate:"omitempty,url"`
	Description  string `json:"description"`
	PriceShared  *int64 `json:"priceShared" validate:"omitempty,gte=0"`
	PricePrivate *int64 `json:"pricePrivate" validate:"omitempty,gte=0"`
}

// SetToolCookiesRequest is the admin input for replacing a tool's session
// cookies. ExpiryDate is informational only.
type SetToolCookiesRequest struct {
	Cookies    []cookie.Record `json:"cookies" validate:"required,min=1"`
	ExpiryDate *time.Time      `json:"expiryDate,omitempty"`
}

// ToolAccess is what the access gateway hands to the extension: the
// transport-encoded cookie set plus the tool's canonical URL.
type ToolAccess struct {
	Cookies string `json:"cookies"`
	URL     string `json:"url"`
}

// AdminLog is one append-only audit entry. Entries are never mutated.
type AdminLog struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"adminId"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Audit actions.
const (
	AuditCookiesUpdated        = "tool_cookies_updated"
	AuditSubscriptionActivated = "subscription_activated"
	AuditSubscriptionSuspended = "subscription_suspended"
)
