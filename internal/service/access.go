package service

import (
	"context"
	"log"

	"github.com/growtools/backend/internal/cookie"
	"github.com/growtools/backend/internal/domain"
)

// AccessService is the access gateway: it authorizes a (user, tool) pair
// against the activation state machine and only then decrypts the tool's
// cookie blob for transport to the extension.
type AccessService struct {
	users UserStore
	tools ToolStore
	subs  *SubscriptionService
	vault *CookieVault
}

// NewAccessService creates a new AccessService.
func NewAccessService(users UserStore, tools ToolStore, subs *SubscriptionService, vault *CookieVault) *AccessService {
	return &AccessService{users: users, tools: tools, subs: subs, vault: vault}
}

// GetCookiesForUser returns the transport-encoded cookie set and the
// tool's canonical URL, or the specific denial. Admins and operators
// bypass the subscription check; everyone else must hold a subscription
// that is ACTIVE on both dimensions and within its billing period. The
// vault is never consulted before authorization passes.
func (s *AccessService) GetCookiesForUser(ctx context.Context, userID, toolID string) (*domain.ToolAccess, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("unknown user")
	}

	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load tool", err)
	}
	if tool == nil {
		return nil, domain.ErrNotFound("tool not found")
	}

	if user.Role != domain.RoleAdmin && user.Role != domain.RoleOperator {
		if err := s.subs.Authorize(ctx, userID, toolID); err != nil {
			return nil, err
		}
	}

	set, err := s.vault.Load(ctx, toolID)
	if err != nil {
		return nil, err
	}

	encoded, err := cookie.EncodeTransport(set)
	if err != nil {
		return nil, domain.ErrInternal("failed to encode cookies", err)
	}

	log.Printf("[access] granted %s → %s (%d cookies)", userID, tool.Slug, len(set))
	return &domain.ToolAccess{Cookies: encoded, URL: tool.URL}, nil
}
