package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/davidkorir/library-api/internal/models"
)

const bookColumns = `id, title, author, category, isbn, total_copies, available_copies, deleted_at, created_at, updated_at`

func scanBook(row pgx.Row) (models.Book, error) {
	var b models.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Category,
		&b.ISBN,
		&b.TotalCopies,
		&b.AvailableCopies,
		&b.DeletedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

type CreateBookParams struct {
	Title           string
	Author          string
	Category        string
	ISBN            string
	TotalCopies     int32
	AvailableCopies int32
}

func (s *Store) CreateBook(ctx context.Context, arg CreateBookParams) (models.Book, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO books (title, author, category, isbn, total_copies, available_copies)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+bookColumns,
		arg.Title, arg.Author, arg.Category, arg.ISBN, arg.TotalCopies, arg.AvailableCopies,
	)
	book, err := scanBook(row)
	if err != nil {
		return models.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return book, nil
}

func (s *Store) GetBookByID(ctx context.Context, id int32) (models.Book, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, models.ErrBookNotFound
		}
		return models.Book{}, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

type UpdateBookParams struct {
	ID          int32
	Title       string
	Author      string
	Category    string
	ISBN        string
	TotalCopies int32
}

// UpdateBook rewrites the descriptive fields and total_copies. When the total
// shrinks, available_copies is clamped down in the same statement so the
// invariant holds without a second round trip.
func (s *Store) UpdateBook(ctx context.Context, arg UpdateBookParams) (models.Book, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE books
		SET title = $2,
		    author = $3,
		    category = $4,
		    isbn = $5,
		    total_copies = $6,
		    available_copies = LEAST(available_copies, $6),
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+bookColumns,
		arg.ID, arg.Title, arg.Author, arg.Category, arg.ISBN, arg.TotalCopies,
	)
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, models.ErrBookNotFound
		}
		return models.Book{}, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// SoftDeleteBook hides the book from the catalog while keeping its row so
// transaction history stays intact.
func (s *Store) SoftDeleteBook(ctx context.Context, id int32) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE books
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("soft delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrBookNotFound
	}
	return nil
}

type ListBooksParams struct {
	Limit  int32
	Offset int32
}

func (s *Store) ListBooks(ctx context.Context, arg ListBooksParams) ([]models.Book, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE deleted_at IS NULL
		ORDER BY id
		LIMIT $1 OFFSET $2`,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

type SearchBooksParams struct {
	Query    string
	Category string
	Limit    int32
	Offset   int32
}

func (s *Store) SearchBooks(ctx context.Context, arg SearchBooksParams) ([]models.Book, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		ORDER BY id
		LIMIT $3 OFFSET $4`,
		arg.Query, arg.Category, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

func (s *Store) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM books WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}

// DecrementAvailableCopies takes one copy off the shelf. The availability
// check and the decrement are a single conditional UPDATE, so two callers
// racing for the last copy cannot both succeed; the loser sees false and no
// row is touched.
func (s *Store) DecrementAvailableCopies(ctx context.Context, bookID int32) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND available_copies > 0`,
		bookID,
	)
	if err != nil {
		return false, fmt.Errorf("decrement available copies: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementAvailableCopies puts a copy back, clamped at total_copies so a
// stray double-return can never push the count past the owned total.
func (s *Store) IncrementAvailableCopies(ctx context.Context, bookID int32) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE books
		SET available_copies = LEAST(available_copies + 1, total_copies), updated_at = now()
		WHERE id = $1`,
		bookID,
	)
	if err != nil {
		return fmt.Errorf("increment available copies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrBookNotFound
	}
	return nil
}

func (s *Store) CountActiveLoansForBook(ctx context.Context, bookID int32) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM transactions WHERE book_id = $1 AND status = 'ISSUED'`,
		bookID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return count, nil
}

func collectBooks(rows pgx.Rows) ([]models.Book, error) {
	books := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}
