package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus tracks payout processing.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
)

// PayoutRequest is an affiliate's claim on accumulated verified commission.
// processed_at is stamped the first time status becomes paid and is never
// cleared afterwards, even if status is reverted to pending.
type PayoutRequest struct {
	ID                string          `db:"id" json:"id"`
	AffiliateID       string          `db:"affiliate_id" json:"affiliate_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	BankName          string          `db:"bank_name" json:"bank_name"`
	AccountNumber     string          `db:"account_number" json:"account_number"`
	AccountHolderName string          `db:"account_holder_name" json:"account_holder_name"`
	Status            PayoutStatus    `db:"status" json:"status"`
	ProcessedAt       *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
