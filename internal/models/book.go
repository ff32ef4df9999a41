package models

import (
	"fmt"
	"time"
)

// Book represents a title in the catalog. AvailableCopies is the contended
// counter: it only moves through the store's atomic decrement/increment and
// always satisfies 0 <= available_copies <= total_copies.
type Book struct {
	ID              int32      `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Category        string     `json:"category"`
	ISBN            string     `json:"isbn"`
	TotalCopies     int32      `json:"total_copies"`
	AvailableCopies int32      `json:"available_copies"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateBookRequest represents the request to add a book to the catalog.
// AvailableCopies defaults to TotalCopies when omitted.
type CreateBookRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=255"`
	Author          string `json:"author" binding:"required,min=1,max=255"`
	Category        string `json:"category" binding:"omitempty,max=100"`
	ISBN            string `json:"isbn" binding:"omitempty,max=20"`
	TotalCopies     int32  `json:"total_copies" binding:"required,min=0"`
	AvailableCopies *int32 `json:"available_copies" binding:"omitempty,min=0"`
}

// Validate enforces the copy-count invariant before the record is written.
func (r CreateBookRequest) Validate() error {
	if r.AvailableCopies != nil && *r.AvailableCopies > r.TotalCopies {
		return fmt.Errorf("%w: available_copies (%d) exceeds total_copies (%d)",
			ErrValidation, *r.AvailableCopies, r.TotalCopies)
	}
	return nil
}

// UpdateBookRequest represents a partial update to a catalog entry.
type UpdateBookRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Author      *string `json:"author" binding:"omitempty,min=1,max=255"`
	Category    *string `json:"category" binding:"omitempty,max=100"`
	ISBN        *string `json:"isbn" binding:"omitempty,max=20"`
	TotalCopies *int32  `json:"total_copies" binding:"omitempty,min=0"`
}

// BookListResponse is a paginated slice of catalog entries.
type BookListResponse struct {
	Books      []Book `json:"books"`
	Pagination struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
	} `json:"pagination"`
}

// CategorySummary is the public group-by-category projection.
type CategorySummary struct {
	ID     int32  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// BookSearchRequest carries the catalog search filters.
type BookSearchRequest struct {
	Query    string `json:"query" form:"query"`
	Category string `json:"category" form:"category"`
	Page     int    `json:"page" form:"page"`
	Limit    int    `json:"limit" form:"limit"`
}
