package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the borrow lifecycle state. ISSUED is the initial
// state, RETURNED is terminal; there are no other states.
type TransactionStatus string

const (
	TransactionIssued   TransactionStatus = "ISSUED"
	TransactionReturned TransactionStatus = "RETURNED"
)

// Transaction records one issue event and its eventual return. FineAmount is
// zero until the return settles it and never changes afterwards.
type Transaction struct {
	ID         int32             `json:"id"`
	UserID     int32             `json:"user_id"`
	BookID     int32             `json:"book_id"`
	IssueDate  time.Time         `json:"issue_date"`
	DueDate    time.Time         `json:"due_date"`
	ReturnDate *time.Time        `json:"return_date,omitempty"`
	FineAmount decimal.Decimal   `json:"fine_amount"`
	Status     TransactionStatus `json:"status"`
}

// TransactionWithBook joins the book title and author onto a transaction for
// history listings.
type TransactionWithBook struct {
	Transaction
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
}

// IssueBookRequest represents a request to borrow a copy of a book.
type IssueBookRequest struct {
	BookID int32 `json:"book_id" binding:"required,min=1"`
}

// ReturnBookRequest represents a request to return a borrowed copy.
type ReturnBookRequest struct {
	TransactionID int32 `json:"transaction_id" binding:"required,min=1"`
}

// PayFineRequest represents a fine payment against a returned transaction.
type PayFineRequest struct {
	TransactionID int32           `json:"transaction_id" binding:"required,min=1"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}
