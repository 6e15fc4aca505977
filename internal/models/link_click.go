package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LinkClick is an append-only referral link click event. Rows are never
// updated or deleted.
type LinkClick struct {
	ID          string    `db:"id" json:"id"`
	AffiliateID string    `db:"affiliate_id" json:"affiliate_id"`
	IPAddress   string    `db:"ip_address" json:"ip_address"`
	UserAgent   *string   `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AffiliateStats aggregates an affiliate's activity. All fields default to
// zero when the affiliate has no matching rows.
type AffiliateStats struct {
	AffiliateID        string          `json:"affiliate_id"`
	TotalClicks        int             `json:"total_clicks"`
	TotalRegistrations int             `json:"total_registrations"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
	PendingCommission  decimal.Decimal `json:"pending_commission"`
	VerifiedCommission decimal.Decimal `json:"verified_commission"`
}
