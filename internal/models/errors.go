package models

import "errors"

// Domain errors surfaced by the catalog and borrowing services. Handlers map
// these to 4xx responses; any other error is reported as an internal error.
var (
	// ErrBookNotFound is returned when a book id does not resolve to a live record.
	ErrBookNotFound = errors.New("book not found")

	// ErrBookUnavailable is returned when a book has no copies left to issue.
	ErrBookUnavailable = errors.New("book not available")

	// ErrTransactionNotFound is returned when a transaction id does not resolve,
	// or when it belongs to a different user. The two cases are deliberately
	// indistinguishable so callers cannot probe for other members' records.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyReturned is returned when a RETURNED transaction is returned again.
	ErrAlreadyReturned = errors.New("book already returned")

	// ErrNoFineDue is returned when paying a fine on a transaction that is not
	// returned yet or carries no fine.
	ErrNoFineDue = errors.New("no fine due on this transaction")

	// ErrFineAmountMismatch is returned when the submitted payment amount does
	// not equal the outstanding fine.
	ErrFineAmountMismatch = errors.New("payment amount does not match outstanding fine")

	// ErrDuplicatePayment is returned when a transaction's fine was already paid.
	ErrDuplicatePayment = errors.New("fine already paid for this transaction")

	// ErrBookHasActiveLoans is returned when deleting a book that still has
	// issued copies outstanding.
	ErrBookHasActiveLoans = errors.New("book has active loans")

	// ErrValidation wraps request-level validation failures.
	ErrValidation = errors.New("validation error")
)
