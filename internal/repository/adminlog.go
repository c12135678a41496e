package repository

import (
	"context"
	"fmt"

	"github.com/growtools/backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminLogRepository handles the append-only audit trail. There is no
// update or delete path on purpose.
type AdminLogRepository struct {
	db *pgxpool.Pool
}

// NewAdminLogRepository creates a new AdminLogRepository.
func NewAdminLogRepository(db *pgxpool.Pool) *AdminLogRepository {
	return &AdminLogRepository{db: db}
}

// Append records one audit entry.
func (r *AdminLogRepository) Append(ctx context.Context, entry *domain.AdminLog) error {
	query := `
		INSERT INTO admin_logs (id, admin_id, action, target_type, target_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.AdminID, entry.Action, entry.TargetType, entry.TargetID, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append admin log: %w", err)
	}
	return nil
}

// ListRecent returns the newest audit entries up to limit.
func (r *AdminLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AdminLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, admin_id, action, target_type, target_id, detail, created_at
		FROM admin_logs ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin logs: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AdminLog
	for rows.Next() {
		var e domain.AdminLog
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.TargetType, &e.TargetID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin log: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
