package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegistrationStatus tracks payment verification. The only transition is
// pending -> payment_verified.
type RegistrationStatus string

const (
	RegistrationPending         RegistrationStatus = "pending"
	RegistrationPaymentVerified RegistrationStatus = "payment_verified"
)

// Registration is a student signup made through an affiliate link. The
// commission amount is a snapshot computed at creation time and never
// recomputed, even if the program's rate changes later.
type Registration struct {
	ID                string             `db:"id" json:"id"`
	AffiliateID       string             `db:"affiliate_id" json:"affiliate_id"`
	ProgramID         string             `db:"program_id" json:"program_id"`
	StudentName       string             `db:"student_name" json:"student_name"`
	StudentEmail      string             `db:"student_email" json:"student_email"`
	StudentPhone      string             `db:"student_phone" json:"student_phone"`
	CommissionAmount  decimal.Decimal    `db:"commission_amount" json:"commission_amount"`
	Status            RegistrationStatus `db:"status" json:"status"`
	PaymentVerifiedAt *time.Time         `db:"payment_verified_at" json:"payment_verified_at,omitempty"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
}
