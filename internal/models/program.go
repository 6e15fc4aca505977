package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionType selects how a program's commission is derived.
type CommissionType string

const (
	CommissionPercentage CommissionType = "percentage"
	CommissionFlat       CommissionType = "flat"
)

// Program is a sellable offering. Deletion is a soft transition on is_active;
// rows are never removed so existing registrations keep a valid reference.
type Program struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Description    string          `db:"description" json:"description"`
	Fee            decimal.Decimal `db:"fee" json:"fee"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	CommissionType CommissionType  `db:"commission_type" json:"commission_type"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
