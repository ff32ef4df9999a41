package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// BookIssuedEvent is emitted after an issue operation commits.
type BookIssuedEvent struct {
	UserName  string
	UserEmail string
	BookTitle string
	IssueDate time.Time
	DueDate   time.Time
}

// BookReturnedEvent is emitted after a return operation commits.
type BookReturnedEvent struct {
	UserName   string
	UserEmail  string
	BookTitle  string
	ReturnDate time.Time
	FineAmount decimal.Decimal
}

// Notifier receives borrow lifecycle events. Delivery is fire-and-forget:
// errors are logged by the caller and never affect the operation that
// produced the event. Implementations must be safe for concurrent use.
type Notifier interface {
	BookIssued(ctx context.Context, evt BookIssuedEvent) error
	BookReturned(ctx context.Context, evt BookReturnedEvent) error
}

// LogNotifier writes events to the structured log. It stands in for the email
// notifier when SMTP is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BookIssued(_ context.Context, evt BookIssuedEvent) error {
	n.logger.Info("book issued",
		"user", evt.UserEmail,
		"title", evt.BookTitle,
		"due_date", evt.DueDate,
	)
	return nil
}

func (n *LogNotifier) BookReturned(_ context.Context, evt BookReturnedEvent) error {
	n.logger.Info("book returned",
		"user", evt.UserEmail,
		"title", evt.BookTitle,
		"fine_amount", evt.FineAmount.String(),
	)
	return nil
}
