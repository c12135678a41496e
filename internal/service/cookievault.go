package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/growtools/backend/internal/cookie"
	"github.com/growtools/backend/internal/domain"
	"github.com/growtools/backend/pkg/crypto"
)

// CookieVault persists a tool's shared session cookies as an AES-GCM
// encrypted blob and decrypts them on read. Every write appends an audit
// entry naming the admin.
type CookieVault struct {
	tools ToolStore
	audit AuditStore
	enc   *crypto.Encryptor
}

// NewCookieVault creates a vault over the given stores and encryptor.
func NewCookieVault(tools ToolStore, audit AuditStore, enc *crypto.Encryptor) *CookieVault {
	return &CookieVault{tools: tools, audit: audit, enc: enc}
}

// Save encrypts the canonical cookie set and overwrites the tool's blob.
// ExpiryDate is stored as an admin reminder and never gates reads.
func (v *CookieVault) Save(ctx context.Context, toolID string, set cookie.Set, expiry *time.Time, adminID string) error {
	tool, err := v.tools.FindByID(ctx, toolID)
	if err != nil {
		return domain.ErrInternal("failed to load tool", err)
	}
	if tool == nil {
		return domain.ErrNotFound("tool not found")
	}

	blob, err := v.enc.EncryptJSON(set)
	if err != nil {
		return domain.ErrInternal("failed to encrypt cookies", err)
	}

	if err := v.tools.SaveCookieBlob(ctx, toolID, blob, expiry); err != nil {
		return domain.ErrInternal("failed to store cookie blob", err)
	}

	entry := &domain.AdminLog{
		ID:         domain.NewID(),
		AdminID:    adminID,
		Action:     domain.AuditCookiesUpdated,
		TargetType: "tool",
		TargetID:   toolID,
		Detail:     fmt.Sprintf("%d cookies stored", len(set)),
		CreatedAt:  time.Now(),
	}
	if err := v.audit.Append(ctx, entry); err != nil {
		// The blob write already succeeded; a lost audit row is logged,
		// not surfaced as a failure to the admin.
		log.Printf("[vault] failed to append audit entry for tool %s: %v", toolID, err)
	}

	log.Printf("[vault] cookies updated for tool %s by admin %s (%d records)", toolID, adminID, len(set))
	return nil
}

// Load decrypts and parses the tool's cookie blob. A missing blob yields
// ErrCookiesNotConfigured; a blob that fails to decrypt or parse yields
// ErrCorruptCookieBlob so callers can tell "never set" from "tampered".
func (v *CookieVault) Load(ctx context.Context, toolID string) (cookie.Set, error) {
	tool, err := v.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load tool", err)
	}
	if tool == nil {
		return nil, domain.ErrNotFound("tool not found")
	}
	if tool.CookieBlob == "" {
		return nil, domain.ErrCookiesNotConfigured
	}

	var set cookie.Set
	if err := v.enc.DecryptJSON(tool.CookieBlob, &set); err != nil {
		log.Printf("[vault] corrupt cookie blob for tool %s: %v", toolID, err)
		return nil, domain.ErrCorruptCookieBlob
	}
	return set, nil
}
