package repository

import (
	"context"
	"fmt"

	"github.com/growtools/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolRepository handles database operations for shared credential pools.
type PoolRepository struct {
	db *pgxpool.Pool
}

// NewPoolRepository creates a new PoolRepository.
func NewPoolRepository(db *pgxpool.Pool) *PoolRepository {
	return &PoolRepository{db: db}
}

const poolColumns = `id, tool_id, login_email, login_password, current_users, max_users, created_at`

func scanPool(row pgx.Row) (*domain.CredentialPool, error) {
	var p domain.CredentialPool
	err := row.Scan(&p.ID, &p.ToolID, &p.LoginEmail, &p.LoginPassword, &p.CurrentUsers, &p.MaxUsers, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan credential pool: %w", err)
	}
	return &p, nil
}

// Create inserts a new pool.
func (r *PoolRepository) Create(ctx context.Context, p *domain.CredentialPool) error {
	query := `
		INSERT INTO credential_pools (id, tool_id, login_email, login_password, current_users, max_users, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.ToolID, p.LoginEmail, p.LoginPassword, p.CurrentUsers, p.MaxUsers, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create credential pool: %w", err)
	}
	return nil
}

// FindAvailable returns the pool for the tool with the fewest current
// users that still has headroom, or nil when every pool is full.
func (r *PoolRepository) FindAvailable(ctx context.Context, toolID string) (*domain.CredentialPool, error) {
	query := `
		SELECT ` + poolColumns + ` FROM credential_pools
		WHERE tool_id = $1 AND current_users < max_users
		ORDER BY current_users ASC, created_at ASC
		LIMIT 1
	`
	return scanPool(r.db.QueryRow(ctx, query, toolID))
}

// Increment adds one occupant to the pool. The guard in the WHERE clause
// (together with the table's CHECK constraint) keeps current_users from
// ever exceeding max_users under concurrent assignment.
func (r *PoolRepository) Increment(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE credential_pools
		SET current_users = current_users + 1
		WHERE id = $1 AND current_users < max_users
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment pool occupancy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pool %s is full", id)
	}
	return nil
}

// Decrement releases one occupant from the pool.
func (r *PoolRepository) Decrement(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE credential_pools
		SET current_users = GREATEST(current_users - 1, 0)
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to decrement pool occupancy: %w", err)
	}
	return nil
}
