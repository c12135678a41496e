package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/growtools/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ToolRepository handles database operations for tools and their encrypted
// cookie blobs.
type ToolRepository struct {
	db *pgxpool.Pool
}

// NewToolRepository creates a new ToolRepository.
func NewToolRepository(db *pgxpool.Pool) *ToolRepository {
	return &ToolRepository{db: db}
}

const toolColumns = `id, name, slug, url, description, price_shared, price_private,
	cookie_blob, cookie_expiry, cookie_updated_at, created_at, updated_at`

func scanTool(row pgx.Row) (*domain.Tool, error) {
	var t domain.Tool
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.URL, &t.Description,
		&t.PriceShared, &t.PricePrivate,
		&t.CookieBlob, &t.CookieExpiry, &t.CookieUpdated,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan tool: %w", err)
	}
	return &t, nil
}

// Create inserts a new tool.
func (r *ToolRepository) Create(ctx context.Context, t *domain.Tool) error {
	query := `
		INSERT INTO tools (id, name, slug, url, description, price_shared, price_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.Name, t.Slug, t.URL, t.Description,
		t.PriceShared, t.PricePrivate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tool: %w", err)
	}
	return nil
}

// FindByID returns a tool by ID, or nil when absent.
func (r *ToolRepository) FindByID(ctx context.Context, id string) (*domain.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools WHERE id = $1`
	return scanTool(r.db.QueryRow(ctx, query, id))
}

// ListAll returns all tools ordered by name.
func (r *ToolRepository) ListAll(ctx context.Context) ([]*domain.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	defer rows.Close()

	var tools []*domain.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}

// Update rewrites a tool's catalog fields.
func (r *ToolRepository) Update(ctx context.Context, t *domain.Tool) error {
	query := `
		UPDATE tools
		SET name = $2, url = $3, description = $4, price_shared = $5, price_private = $6, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, t.ID, t.Name, t.URL, t.Description, t.PriceShared, t.PricePrivate)
	if err != nil {
		return fmt.Errorf("failed to update tool: %w", err)
	}
	return nil
}

// SaveCookieBlob overwrites the tool's encrypted cookie blob and stamps
// cookie_updated_at. Expiry is admin-facing metadata only.
func (r *ToolRepository) SaveCookieBlob(ctx context.Context, toolID, blob string, expiry *time.Time) error {
	query := `
		UPDATE tools
		SET cookie_blob = $2, cookie_expiry = $3, cookie_updated_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, toolID, blob, expiry)
	if err != nil {
		return fmt.Errorf("failed to save cookie blob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tool %s not found", toolID)
	}
	return nil
}
