package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidkorir/library-api/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every query method
// runs against the pool directly or inside a transaction without changes.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Querier is the persistence surface consumed by the services. The postgres
// Store implements it; tests substitute an in-memory implementation.
type Querier interface {
	// Catalog
	CreateBook(ctx context.Context, arg CreateBookParams) (models.Book, error)
	GetBookByID(ctx context.Context, id int32) (models.Book, error)
	UpdateBook(ctx context.Context, arg UpdateBookParams) (models.Book, error)
	SoftDeleteBook(ctx context.Context, id int32) error
	ListBooks(ctx context.Context, arg ListBooksParams) ([]models.Book, error)
	SearchBooks(ctx context.Context, arg SearchBooksParams) ([]models.Book, error)
	CountBooks(ctx context.Context) (int64, error)
	DecrementAvailableCopies(ctx context.Context, bookID int32) (bool, error)
	IncrementAvailableCopies(ctx context.Context, bookID int32) error
	CountActiveLoansForBook(ctx context.Context, bookID int32) (int64, error)

	// Ledger
	CreateTransaction(ctx context.Context, arg CreateTransactionParams) (models.Transaction, error)
	GetTransactionByID(ctx context.Context, id int32) (models.Transaction, error)
	GetTransactionForUser(ctx context.Context, arg GetTransactionForUserParams) (models.Transaction, error)
	MarkTransactionReturned(ctx context.Context, arg MarkTransactionReturnedParams) (models.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID int32) ([]models.TransactionWithBook, error)
	ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]models.TransactionWithBook, error)

	// Payments
	CreatePayment(ctx context.Context, arg CreatePaymentParams) (models.Payment, error)

	// InTx runs fn against a Querier bound to a single database transaction.
	// The transaction rolls back if fn returns an error.
	InTx(ctx context.Context, fn func(Querier) error) error
}

// Store is the postgres-backed Querier.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

var _ Querier = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

// InTx wraps fn in an explicit transaction. All writes made by a single
// borrowing operation go through here so a failure on any step leaves no
// partial state visible to other callers.
func (s *Store) InTx(ctx context.Context, fn func(Querier) error) error {
	if s.pool == nil {
		return fmt.Errorf("store: nested transactions are not supported")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&Store{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
