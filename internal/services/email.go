package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/davidkorir/library-api/internal/config"
)

// EmailNotifier delivers borrow lifecycle events over SMTP. It implements
// Notifier; the borrowing service invokes it outside the unit of work, so a
// mail outage can never roll back a lend or return.
type EmailNotifier struct {
	config config.SMTPConfig
	logger *slog.Logger
}

func NewEmailNotifier(cfg config.SMTPConfig, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{config: cfg, logger: logger}
}

func (n *EmailNotifier) BookIssued(ctx context.Context, evt BookIssuedEvent) error {
	subject := "Book Issued Successfully"
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"You have issued the book: %q.\n"+
			"Issue date: %s\n"+
			"Due date: %s\n\n"+
			"Please return it on time to avoid fines.\n",
		evt.UserName,
		evt.BookTitle,
		evt.IssueDate.Format("02-01-2006"),
		evt.DueDate.Format("02-01-2006"),
	)
	return n.send(ctx, evt.UserEmail, subject, body)
}

func (n *EmailNotifier) BookReturned(ctx context.Context, evt BookReturnedEvent) error {
	fineLine := "No fine."
	if evt.FineAmount.IsPositive() {
		fineLine = fmt.Sprintf("Your fine is %s.", evt.FineAmount.StringFixed(2))
	}
	subject := "Book Returned Successfully"
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"You have returned the book: %q.\n"+
			"Return date: %s\n"+
			"%s\n",
		evt.UserName,
		evt.BookTitle,
		evt.ReturnDate.Format("02-01-2006"),
		fineLine,
	)
	return n.send(ctx, evt.UserEmail, subject, body)
}

func (n *EmailNotifier) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		n.logger.Warn("skipping notification, recipient has no email address", "subject", subject)
		return nil
	}

	message := n.buildMessage(to, subject, body)
	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	if err := smtp.SendMail(addr, auth, n.config.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (n *EmailNotifier) buildMessage(to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
