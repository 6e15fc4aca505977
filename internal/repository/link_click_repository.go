package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kelaskita/affiliate-api/internal/models"
)

// LinkClickRepository provides append-only access to click events.
type LinkClickRepository struct {
	db *sqlx.DB
}

// NewLinkClickRepository creates a new instance of LinkClickRepository.
func NewLinkClickRepository(db *sqlx.DB) *LinkClickRepository {
	return &LinkClickRepository{db: db}
}

// Create inserts a new click event. There are no update or delete paths.
func (r *LinkClickRepository) Create(ctx context.Context, click *models.LinkClick) error {
	if click.ID == "" {
		click.ID = uuid.NewString()
	}
	if click.CreatedAt.IsZero() {
		click.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO link_clicks (id, affiliate_id, ip_address, user_agent, created_at) VALUES (:id, :affiliate_id, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, click); err != nil {
		return fmt.Errorf("create link click: %w", err)
	}
	return nil
}

// ListByAffiliate returns the click events for one affiliate, newest first.
func (r *LinkClickRepository) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.LinkClick, error) {
	const query = `SELECT id, affiliate_id, ip_address, user_agent, created_at FROM link_clicks WHERE affiliate_id = $1 ORDER BY created_at DESC`
	clicks := []models.LinkClick{}
	if err := r.db.SelectContext(ctx, &clicks, query, affiliateID); err != nil {
		return nil, fmt.Errorf("list link clicks: %w", err)
	}
	return clicks, nil
}

// CountByAffiliate returns the total number of clicks for an affiliate.
func (r *LinkClickRepository) CountByAffiliate(ctx context.Context, affiliateID string) (int, error) {
	const query = `SELECT COUNT(*) FROM link_clicks WHERE affiliate_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, affiliateID); err != nil {
		return 0, fmt.Errorf("count link clicks: %w", err)
	}
	return count, nil
}
