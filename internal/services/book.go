package services

import (
	"context"
	"fmt"

	"github.com/davidkorir/library-api/internal/models"
	"github.com/davidkorir/library-api/internal/store"
)

// BookService handles catalog administration and read-side listings.
type BookService struct {
	store store.Querier
}

func NewBookService(st store.Querier) *BookService {
	return &BookService{store: st}
}

func (s *BookService) CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.Book, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	available := req.TotalCopies
	if req.AvailableCopies != nil {
		available = *req.AvailableCopies
	}

	book, err := s.store.CreateBook(ctx, store.CreateBookParams{
		Title:           req.Title,
		Author:          req.Author,
		Category:        req.Category,
		ISBN:            req.ISBN,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: available,
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return &book, nil
}

func (s *BookService) GetBook(ctx context.Context, id int32) (*models.Book, error) {
	book, err := s.store.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (s *BookService) UpdateBook(ctx context.Context, id int32, req models.UpdateBookRequest) (*models.Book, error) {
	var updated models.Book

	err := s.store.InTx(ctx, func(q store.Querier) error {
		book, err := q.GetBookByID(ctx, id)
		if err != nil {
			return err
		}

		params := store.UpdateBookParams{
			ID:          book.ID,
			Title:       book.Title,
			Author:      book.Author,
			Category:    book.Category,
			ISBN:        book.ISBN,
			TotalCopies: book.TotalCopies,
		}
		if req.Title != nil {
			params.Title = *req.Title
		}
		if req.Author != nil {
			params.Author = *req.Author
		}
		if req.Category != nil {
			params.Category = *req.Category
		}
		if req.ISBN != nil {
			params.ISBN = *req.ISBN
		}
		if req.TotalCopies != nil {
			params.TotalCopies = *req.TotalCopies
		}

		updated, err = q.UpdateBook(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBook soft-deletes a catalog entry. Deletion is refused while copies
// are still out on loan so the ledger never references a vanished title.
func (s *BookService) DeleteBook(ctx context.Context, id int32) error {
	return s.store.InTx(ctx, func(q store.Querier) error {
		if _, err := q.GetBookByID(ctx, id); err != nil {
			return err
		}
		active, err := q.CountActiveLoansForBook(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return models.ErrBookHasActiveLoans
		}
		return q.SoftDeleteBook(ctx, id)
	})
}

func (s *BookService) ListBooks(ctx context.Context, page, limit int) (*models.BookListResponse, error) {
	page, limit = normalizePage(page, limit)

	books, err := s.store.ListBooks(ctx, store.ListBooksParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	total, err := s.store.CountBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	resp := &models.BookListResponse{Books: books}
	resp.Pagination.Page = page
	resp.Pagination.Limit = limit
	resp.Pagination.Total = total
	return resp, nil
}

func (s *BookService) SearchBooks(ctx context.Context, req models.BookSearchRequest) ([]models.Book, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	books, err := s.store.SearchBooks(ctx, store.SearchBooksParams{
		Query:    req.Query,
		Category: req.Category,
		Limit:    int32(limit),
		Offset:   int32((page - 1) * limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// BooksByCategory groups the catalog by category for the public landing view.
// Books without a category land under "Uncategorized".
func (s *BookService) BooksByCategory(ctx context.Context) (map[string][]models.CategorySummary, error) {
	books, err := s.store.ListBooks(ctx, store.ListBooksParams{Limit: 1000, Offset: 0})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	grouped := make(map[string][]models.CategorySummary)
	for _, book := range books {
		category := book.Category
		if category == "" {
			category = "Uncategorized"
		}
		grouped[category] = append(grouped[category], models.CategorySummary{
			ID:     book.ID,
			Title:  book.Title,
			Author: book.Author,
		})
	}
	return grouped, nil
}

func (s *BookService) CountBooks(ctx context.Context) (int64, error) {
	return s.store.CountBooks(ctx)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
