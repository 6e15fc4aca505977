package service

import (
	"github.com/shopspring/decimal"

	"github.com/kelaskita/affiliate-api/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// Commission derives the commission amount for a program. Percentage
// programs earn fee * rate / 100, flat programs earn the rate itself. A
// negative result (possible when a negative rate slipped into storage) is
// clamped to zero.
func Commission(fee, rate decimal.Decimal, commissionType models.CommissionType) decimal.Decimal {
	var amount decimal.Decimal
	switch commissionType {
	case models.CommissionPercentage:
		amount = fee.Mul(rate).Div(oneHundred)
	case models.CommissionFlat:
		amount = rate
	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// ProgramCommission applies the rule to a stored program.
func ProgramCommission(program *models.Program) decimal.Decimal {
	return Commission(program.Fee, program.CommissionRate, program.CommissionType)
}
