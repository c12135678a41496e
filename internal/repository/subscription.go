package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/growtools/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository handles database operations for tool
// subscriptions. Rows are never deleted, only status-transitioned.
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subColumns = `id, user_id, tool_id, plan_type, status, activation_status, pool_id,
	credentials, order_id, current_period_start, current_period_end, suspended_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.ToolSubscription, error) {
	var s domain.ToolSubscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.ToolID, &s.PlanType, &s.Status, &s.ActivationStatus,
		&s.PoolID, &s.Credentials, &s.OrderID,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.SuspendedAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return &s, nil
}

// Create inserts a new subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, s *domain.ToolSubscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, tool_id, plan_type, status, activation_status, pool_id,
			credentials, order_id, current_period_start, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.UserID, s.ToolID, s.PlanType, s.Status, s.ActivationStatus, s.PoolID,
		s.Credentials, s.OrderID, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// FindByID returns a subscription by ID, or nil when absent.
func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.ToolSubscription, error) {
	query := `SELECT ` + subColumns + ` FROM subscriptions WHERE id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, id))
}

// FindByUserAndTool returns the user's most recent subscription for the
// tool, or nil when they never subscribed.
func (r *SubscriptionRepository) FindByUserAndTool(ctx context.Context, userID, toolID string) (*domain.ToolSubscription, error) {
	query := `
		SELECT ` + subColumns + ` FROM subscriptions
		WHERE user_id = $1 AND tool_id = $2
		ORDER BY created_at DESC LIMIT 1
	`
	return scanSubscription(r.db.QueryRow(ctx, query, userID, toolID))
}

// ListByUser returns all of a user's subscriptions, newest first.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.ToolSubscription, error) {
	query := `SELECT ` + subColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.ToolSubscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, nil
}

// UpdateStatus sets the user-facing status dimension.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	return nil
}

// UpdateActivation sets the activation dimension, optionally attaching
// encrypted dedicated credentials (PRIVATE activation).
func (r *SubscriptionRepository) UpdateActivation(ctx context.Context, id, activation string, credentials *string) error {
	query := `
		UPDATE subscriptions
		SET activation_status = $2,
		    credentials = COALESCE($3, credentials),
		    suspended_at = CASE WHEN $2 = 'SUSPENDED' THEN NOW() ELSE suspended_at END,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id, activation, credentials)
	if err != nil {
		return fmt.Errorf("failed to update activation status: %w", err)
	}
	return nil
}

// CountActiveByUser counts the user's subscriptions that are both ACTIVE
// and activated, excluding the given subscription id.
func (r *SubscriptionRepository) CountActiveByUser(ctx context.Context, userID, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM subscriptions
		WHERE user_id = $1 AND id != $2 AND status = 'ACTIVE' AND activation_status = 'ACTIVE'
	`
	var count int
	if err := r.db.QueryRow(ctx, query, userID, excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active subscriptions: %w", err)
	}
	return count, nil
}

// ListExpired returns subscriptions still marked ACTIVE whose billing
// period has lapsed. Used by the reporting sweep; the authorization path
// always recomputes expiry itself.
func (r *SubscriptionRepository) ListExpired(ctx context.Context, now time.Time) ([]*domain.ToolSubscription, error) {
	query := `
		SELECT ` + subColumns + ` FROM subscriptions
		WHERE status = 'ACTIVE' AND current_period_end < $1
		ORDER BY current_period_end
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.ToolSubscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, nil
}
