package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinePolicy computes the overdue fine for a loan. It is a pure value type
// with no storage dependencies.
type FinePolicy struct {
	perDay decimal.Decimal
}

func NewFinePolicy(perDay decimal.Decimal) FinePolicy {
	return FinePolicy{perDay: perDay}
}

// Calculate returns the fine owed when a loan due at dueDate settles at
// settledAt. Only whole overdue days count; fractions of a day round down,
// and settling at or before the due date owes nothing. The result is always
// a non-negative integer multiple of the daily rate.
func (p FinePolicy) Calculate(dueDate, settledAt time.Time) decimal.Decimal {
	if !settledAt.After(dueDate) {
		return decimal.Zero
	}
	days := int64(settledAt.Sub(dueDate) / (24 * time.Hour))
	if days <= 0 {
		return decimal.Zero
	}
	return p.perDay.Mul(decimal.NewFromInt(days))
}
