package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment settles a transaction's fine. At most one payment exists per
// transaction, enforced by a unique constraint on TransactionID; the record
// is immutable once written.
type Payment struct {
	ID               int32           `json:"id"`
	TransactionID    int32           `json:"transaction_id"`
	PaymentReference string          `json:"payment_reference"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentDate      time.Time       `json:"payment_date"`
	Status           PaymentStatus   `json:"status"`
}
