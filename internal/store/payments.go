package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/davidkorir/library-api/internal/models"
)

const uniqueViolation = "23505"

type CreatePaymentParams struct {
	TransactionID    int32
	PaymentReference string
	Amount           decimal.Decimal
	Status           models.PaymentStatus
}

// CreatePayment records a fine settlement. The unique constraint on
// transaction_id enforces the one-payment-per-transaction invariant; a second
// insert surfaces as ErrDuplicatePayment.
func (s *Store) CreatePayment(ctx context.Context, arg CreatePaymentParams) (models.Payment, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO payments (transaction_id, payment_reference, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, transaction_id, payment_reference, amount, payment_date, status`,
		arg.TransactionID, arg.PaymentReference, arg.Amount, arg.Status,
	)
	var p models.Payment
	err := row.Scan(&p.ID, &p.TransactionID, &p.PaymentReference, &p.Amount, &p.PaymentDate, &p.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Payment{}, models.ErrDuplicatePayment
		}
		return models.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}
