package service

import (
	"context"
	"time"

	"github.com/growtools/backend/internal/domain"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them in production; tests swap in in-memory fakes.

// UserStore is the persistence surface for users.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// ToolStore is the persistence surface for tools and cookie blobs.
type ToolStore interface {
	Create(ctx context.Context, t *domain.Tool) error
	FindByID(ctx context.Context, id string) (*domain.Tool, error)
	ListAll(ctx context.Context) ([]*domain.Tool, error)
	Update(ctx context.Context, t *domain.Tool) error
	SaveCookieBlob(ctx context.Context, toolID, blob string, expiry *time.Time) error
}

// SubscriptionStore is the persistence surface for tool subscriptions.
type SubscriptionStore interface {
	Create(ctx context.Context, s *domain.ToolSubscription) error
	FindByID(ctx context.Context, id string) (*domain.ToolSubscription, error)
	FindByUserAndTool(ctx context.Context, userID, toolID string) (*domain.ToolSubscription, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.ToolSubscription, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateActivation(ctx context.Context, id, activation string, credentials *string) error
	CountActiveByUser(ctx context.Context, userID, excludeID string) (int, error)
	ListExpired(ctx context.Context, now time.Time) ([]*domain.ToolSubscription, error)
}

// PoolStore is the persistence surface for shared credential pools.
type PoolStore interface {
	Create(ctx context.Context, p *domain.CredentialPool) error
	FindAvailable(ctx context.Context, toolID string) (*domain.CredentialPool, error)
	Increment(ctx context.Context, id string) error
	Decrement(ctx context.Context, id string) error
}

// AuditStore is the append-only audit trail.
type AuditStore interface {
	Append(ctx context.Context, entry *domain.AdminLog) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AdminLog, error)
}
