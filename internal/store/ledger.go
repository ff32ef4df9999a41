package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/davidkorir/library-api/internal/models"
)

const transactionColumns = `id, user_id, book_id, issue_date, due_date, return_date, fine_amount, status`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.BookID,
		&t.IssueDate,
		&t.DueDate,
		&t.ReturnDate,
		&t.FineAmount,
		&t.Status,
	)
	return t, err
}

type CreateTransactionParams struct {
	UserID    int32
	BookID    int32
	IssueDate time.Time
	DueDate   time.Time
}

func (s *Store) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (models.Transaction, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO transactions (user_id, book_id, issue_date, due_date, status)
		VALUES ($1, $2, $3, $4, 'ISSUED')
		RETURNING `+transactionColumns,
		arg.UserID, arg.BookID, arg.IssueDate, arg.DueDate,
	)
	txn, err := scanTransaction(row)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return txn, nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id int32) (models.Transaction, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1`,
		id,
	)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, models.ErrTransactionNotFound
		}
		return models.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

type GetTransactionForUserParams struct {
	ID     int32
	UserID int32
}

// GetTransactionForUser resolves a transaction scoped to its owning user. A
// transaction owned by someone else comes back as ErrTransactionNotFound,
// identical to a nonexistent id.
func (s *Store) GetTransactionForUser(ctx context.Context, arg GetTransactionForUserParams) (models.Transaction, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND user_id = $2`,
		arg.ID, arg.UserID,
	)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, models.ErrTransactionNotFound
		}
		return models.Transaction{}, fmt.Errorf("get transaction for user: %w", err)
	}
	return txn, nil
}

type MarkTransactionReturnedParams struct {
	ID         int32
	ReturnDate time.Time
	FineAmount decimal.Decimal
}

// MarkTransactionReturned performs the ISSUED -> RETURNED transition. The
// status predicate makes the transition single-shot: if a concurrent return
// already flipped the row, no rows match and the caller gets
// ErrAlreadyReturned instead of a second mutation.
func (s *Store) MarkTransactionReturned(ctx context.Context, arg MarkTransactionReturnedParams) (models.Transaction, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE transactions
		SET status = 'RETURNED', return_date = $2, fine_amount = $3
		WHERE id = $1 AND status = 'ISSUED'
		RETURNING `+transactionColumns,
		arg.ID, arg.ReturnDate, arg.FineAmount,
	)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, models.ErrAlreadyReturned
		}
		return models.Transaction{}, fmt.Errorf("mark transaction returned: %w", err)
	}
	return txn, nil
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID int32) ([]models.TransactionWithBook, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.user_id, t.book_id, t.issue_date, t.due_date, t.return_date, t.fine_amount, t.status,
		       b.title, b.author
		FROM transactions t
		JOIN books b ON b.id = t.book_id
		WHERE t.user_id = $1
		ORDER BY t.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions by user: %w", err)
	}
	defer rows.Close()
	return collectTransactionsWithBook(rows)
}

type ListTransactionsParams struct {
	Limit  int32
	Offset int32
}

func (s *Store) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]models.TransactionWithBook, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.user_id, t.book_id, t.issue_date, t.due_date, t.return_date, t.fine_amount, t.status,
		       b.title, b.author
		FROM transactions t
		JOIN books b ON b.id = t.book_id
		ORDER BY t.id
		LIMIT $1 OFFSET $2`,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactionsWithBook(rows)
}

func collectTransactionsWithBook(rows pgx.Rows) ([]models.TransactionWithBook, error) {
	result := []models.TransactionWithBook{}
	for rows.Next() {
		var t models.TransactionWithBook
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.BookID,
			&t.IssueDate,
			&t.DueDate,
			&t.ReturnDate,
			&t.FineAmount,
			&t.Status,
			&t.BookTitle,
			&t.BookAuthor,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}
