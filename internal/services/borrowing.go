package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidkorir/library-api/internal/models"
	"github.com/davidkorir/library-api/internal/store"
)

// BorrowingService orchestrates the catalog, the transaction ledger and the
// fine policy. Every mutating operation runs inside one store transaction so
// copy counts and ledger rows move together or not at all.
type BorrowingService struct {
	store    store.Querier
	policy   FinePolicy
	loanDays int
	notifier Notifier
	logger   *slog.Logger
}

func NewBorrowingService(st store.Querier, notifier Notifier, logger *slog.Logger) *BorrowingService {
	return &BorrowingService{
		store:    st,
		policy:   NewFinePolicy(decimal.NewFromInt(5)), // 5 currency units per overdue day
		loanDays: 14,                                   // 2 week loan period
		notifier: notifier,
		logger:   logger,
	}
}

// WithLoanPeriod overrides the default loan period in days.
func (s *BorrowingService) WithLoanPeriod(days int) *BorrowingService {
	s.loanDays = days
	return s
}

// WithFinePerDay overrides the default daily fine rate.
func (s *BorrowingService) WithFinePerDay(rate decimal.Decimal) *BorrowingService {
	s.policy = NewFinePolicy(rate)
	return s
}

// IssueBook lends one copy of the book to the caller. The availability check
// and the decrement are a single atomic store operation; creating the ledger
// row in the same transaction means a failure there rolls the copy back.
func (s *BorrowingService) IssueBook(ctx context.Context, user models.Identity, bookID int32) (*models.Transaction, error) {
	var issued models.Transaction
	var book models.Book

	err := s.store.InTx(ctx, func(q store.Querier) error {
		var err error
		book, err = q.GetBookByID(ctx, bookID)
		if err != nil {
			return err
		}

		ok, err := q.DecrementAvailableCopies(ctx, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrBookUnavailable
		}

		now := time.Now().UTC()
		issued, err = q.CreateTransaction(ctx, store.CreateTransactionParams{
			UserID:    user.ID,
			BookID:    bookID,
			IssueDate: now,
			DueDate:   now.AddDate(0, 0, s.loanDays),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatch("issue", func(ctx context.Context) error {
		return s.notifier.BookIssued(ctx, BookIssuedEvent{
			UserName:  user.Name,
			UserEmail: user.Email,
			BookTitle: book.Title,
			IssueDate: issued.IssueDate,
			DueDate:   issued.DueDate,
		})
	})

	return &issued, nil
}

// ReturnBook closes an issued transaction: it settles the fine, flips the
// ledger state and puts the copy back on the shelf, all in one transaction.
func (s *BorrowingService) ReturnBook(ctx context.Context, user models.Identity, transactionID int32) (*models.Transaction, error) {
	var returned models.Transaction
	var book models.Book

	err := s.store.InTx(ctx, func(q store.Querier) error {
		txn, err := s.resolveTransaction(ctx, q, user, transactionID)
		if err != nil {
			return err
		}
		if txn.Status == models.TransactionReturned {
			return models.ErrAlreadyReturned
		}

		now := time.Now().UTC()
		fine := s.policy.Calculate(txn.DueDate, now)

		returned, err = q.MarkTransactionReturned(ctx, store.MarkTransactionReturnedParams{
			ID:         txn.ID,
			ReturnDate: now,
			FineAmount: fine,
		})
		if err != nil {
			return err
		}

		if err := q.IncrementAvailableCopies(ctx, txn.BookID); err != nil {
			return err
		}

		book, err = q.GetBookByID(ctx, txn.BookID)
		if err != nil {
			// The book may have been soft-deleted while on loan; the return
			// itself still stands.
			book = models.Book{}
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch("return", func(ctx context.Context) error {
		return s.notifier.BookReturned(ctx, BookReturnedEvent{
			UserName:   user.Name,
			UserEmail:  user.Email,
			BookTitle:  book.Title,
			ReturnDate: *returned.ReturnDate,
			FineAmount: returned.FineAmount,
		})
	})

	return &returned, nil
}

// PayFine settles the fine on a returned transaction. The submitted amount
// must equal the outstanding fine exactly; the one-payment-per-transaction
// rule is enforced by the store's uniqueness constraint.
func (s *BorrowingService) PayFine(ctx context.Context, user models.Identity, transactionID int32, amount decimal.Decimal) (*models.Payment, error) {
	var payment models.Payment

	err := s.store.InTx(ctx, func(q store.Querier) error {
		txn, err := s.resolveTransaction(ctx, q, user, transactionID)
		if err != nil {
			return err
		}
		if txn.Status != models.TransactionReturned || !txn.FineAmount.IsPositive() {
			return models.ErrNoFineDue
		}
		if !amount.Equal(txn.FineAmount) {
			return models.ErrFineAmountMismatch
		}

		payment, err = q.CreatePayment(ctx, store.CreatePaymentParams{
			TransactionID:    txn.ID,
			PaymentReference: uuid.NewString(),
			Amount:           amount,
			Status:           models.PaymentSuccess,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// History returns the caller's transactions in insertion order.
func (s *BorrowingService) History(ctx context.Context, user models.Identity) ([]models.TransactionWithBook, error) {
	transactions, err := s.store.ListTransactionsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get transaction history: %w", err)
	}
	return transactions, nil
}

// AllTransactions returns every ledger entry. Callers must hold the elevated
// role; the handler layer enforces that before this is reached.
func (s *BorrowingService) AllTransactions(ctx context.Context, limit, offset int32) ([]models.TransactionWithBook, error) {
	transactions, err := s.store.ListTransactions(ctx, store.ListTransactionsParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

// resolveTransaction scopes the lookup to the owning user unless the caller
// holds the elevated role. Someone else's transaction resolves exactly like a
// missing one.
func (s *BorrowingService) resolveTransaction(ctx context.Context, q store.Querier, user models.Identity, id int32) (models.Transaction, error) {
	if user.IsAdmin() {
		return q.GetTransactionByID(ctx, id)
	}
	return q.GetTransactionForUser(ctx, store.GetTransactionForUserParams{ID: id, UserID: user.ID})
}

// dispatch delivers a notification outside the unit of work. A slow or failed
// delivery is logged and never propagates to the caller.
func (s *BorrowingService) dispatch(event string, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Error("notification delivery failed", "event", event, "error", err)
		}
	}()
}
