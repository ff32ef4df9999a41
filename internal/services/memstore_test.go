package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidkorir/library-api/internal/models"
	"github.com/davidkorir/library-api/internal/store"
)

// memStore is an in-memory store.Querier for service tests. A single mutex
// serializes every operation; InTx holds it for the whole unit of work and
// restores a snapshot when the callback fails, which mirrors the atomicity
// the postgres store gets from real transactions.
type memStore struct {
	mu   sync.Mutex
	data memData
}

type memData struct {
	books         map[int32]models.Book
	transactions  map[int32]models.Transaction
	payments      map[int32]models.Payment
	paymentsByTxn map[int32]int32

	nextBookID    int32
	nextTxnID     int32
	nextPaymentID int32
}

func newMemStore() *memStore {
	return &memStore{
		data: memData{
			books:         make(map[int32]models.Book),
			transactions:  make(map[int32]models.Transaction),
			payments:      make(map[int32]models.Payment),
			paymentsByTxn: make(map[int32]int32),
			nextBookID:    1,
			nextTxnID:     1,
			nextPaymentID: 1,
		},
	}
}

var _ store.Querier = (*memStore)(nil)

func (d memData) clone() memData {
	out := d
	out.books = make(map[int32]models.Book, len(d.books))
	for k, v := range d.books {
		out.books[k] = v
	}
	out.transactions = make(map[int32]models.Transaction, len(d.transactions))
	for k, v := range d.transactions {
		out.transactions[k] = v
	}
	out.payments = make(map[int32]models.Payment, len(d.payments))
	for k, v := range d.payments {
		out.payments[k] = v
	}
	out.paymentsByTxn = make(map[int32]int32, len(d.paymentsByTxn))
	for k, v := range d.paymentsByTxn {
		out.paymentsByTxn[k] = v
	}
	return out
}

// InTx serializes the unit of work under the store mutex and rolls the data
// back to the entry snapshot when fn fails.
func (m *memStore) InTx(_ context.Context, fn func(store.Querier) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(&memTx{data: &m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// memTx is the unlocked view handed to InTx callbacks.
type memTx struct {
	data *memData
}

var _ store.Querier = (*memTx)(nil)

func (t *memTx) InTx(context.Context, func(store.Querier) error) error {
	return errors.New("memstore: nested transactions are not supported")
}

// Locked pass-throughs for calls made outside a transaction.

func (m *memStore) CreateBook(ctx context.Context, arg store.CreateBookParams) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).CreateBook(ctx, arg)
}

func (m *memStore) GetBookByID(ctx context.Context, id int32) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).GetBookByID(ctx, id)
}

func (m *memStore) UpdateBook(ctx context.Context, arg store.UpdateBookParams) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).UpdateBook(ctx, arg)
}

func (m *memStore) SoftDeleteBook(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).SoftDeleteBook(ctx, id)
}

func (m *memStore) ListBooks(ctx context.Context, arg store.ListBooksParams) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).ListBooks(ctx, arg)
}

func (m *memStore) SearchBooks(ctx context.Context, arg store.SearchBooksParams) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).SearchBooks(ctx, arg)
}

func (m *memStore) CountBooks(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).CountBooks(ctx)
}

func (m *memStore) DecrementAvailableCopies(ctx context.Context, bookID int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).DecrementAvailableCopies(ctx, bookID)
}

func (m *memStore) IncrementAvailableCopies(ctx context.Context, bookID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).IncrementAvailableCopies(ctx, bookID)
}

func (m *memStore) CountActiveLoansForBook(ctx context.Context, bookID int32) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).CountActiveLoansForBook(ctx, bookID)
}

func (m *memStore) CreateTransaction(ctx context.Context, arg store.CreateTransactionParams) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).CreateTransaction(ctx, arg)
}

func (m *memStore) GetTransactionByID(ctx context.Context, id int32) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).GetTransactionByID(ctx, id)
}

func (m *memStore) GetTransactionForUser(ctx context.Context, arg store.GetTransactionForUserParams) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).GetTransactionForUser(ctx, arg)
}

func (m *memStore) MarkTransactionReturned(ctx context.Context, arg store.MarkTransactionReturnedParams) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).MarkTransactionReturned(ctx, arg)
}

func (m *memStore) ListTransactionsByUser(ctx context.Context, userID int32) ([]models.TransactionWithBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).ListTransactionsByUser(ctx, userID)
}

func (m *memStore) ListTransactions(ctx context.Context, arg store.ListTransactionsParams) ([]models.TransactionWithBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).ListTransactions(ctx, arg)
}

func (m *memStore) CreatePayment(ctx context.Context, arg store.CreatePaymentParams) (models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: &m.data}).CreatePayment(ctx, arg)
}

// Catalog

func (t *memTx) CreateBook(_ context.Context, arg store.CreateBookParams) (models.Book, error) {
	now := time.Now().UTC()
	book := models.Book{
		ID:              t.data.nextBookID,
		Title:           arg.Title,
		Author:          arg.Author,
		Category:        arg.Category,
		ISBN:            arg.ISBN,
		TotalCopies:     arg.TotalCopies,
		AvailableCopies: arg.AvailableCopies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	t.data.nextBookID++
	t.data.books[book.ID] = book
	return book, nil
}

func (t *memTx) GetBookByID(_ context.Context, id int32) (models.Book, error) {
	book, ok := t.data.books[id]
	if !ok || book.DeletedAt != nil {
		return models.Book{}, models.ErrBookNotFound
	}
	return book, nil
}

func (t *memTx) UpdateBook(_ context.Context, arg store.UpdateBookParams) (models.Book, error) {
	book, ok := t.data.books[arg.ID]
	if !ok || book.DeletedAt != nil {
		return models.Book{}, models.ErrBookNotFound
	}
	book.Title = arg.Title
	book.Author = arg.Author
	book.Category = arg.Category
	book.ISBN = arg.ISBN
	book.TotalCopies = arg.TotalCopies
	if book.AvailableCopies > arg.TotalCopies {
		book.AvailableCopies = arg.TotalCopies
	}
	book.UpdatedAt = time.Now().UTC()
	t.data.books[book.ID] = book
	return book, nil
}

func (t *memTx) SoftDeleteBook(_ context.Context, id int32) error {
	book, ok := t.data.books[id]
	if !ok || book.DeletedAt != nil {
		return models.ErrBookNotFound
	}
	now := time.Now().UTC()
	book.DeletedAt = &now
	t.data.books[id] = book
	return nil
}

func (t *memTx) liveBooks() []models.Book {
	books := []models.Book{}
	for _, book := range t.data.books {
		if book.DeletedAt == nil {
			books = append(books, book)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books
}

func paginate[T any](items []T, limit, offset int32) []T {
	if offset >= int32(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit < int32(len(items)) {
		items = items[:limit]
	}
	return items
}

func (t *memTx) ListBooks(_ context.Context, arg store.ListBooksParams) ([]models.Book, error) {
	return paginate(t.liveBooks(), arg.Limit, arg.Offset), nil
}

func (t *memTx) SearchBooks(_ context.Context, arg store.SearchBooksParams) ([]models.Book, error) {
	query := strings.ToLower(arg.Query)
	matched := []models.Book{}
	for _, book := range t.liveBooks() {
		if query != "" &&
			!strings.Contains(strings.ToLower(book.Title), query) &&
			!strings.Contains(strings.ToLower(book.Author), query) {
			continue
		}
		if arg.Category != "" && book.Category != arg.Category {
			continue
		}
		matched = append(matched, book)
	}
	return paginate(matched, arg.Limit, arg.Offset), nil
}

func (t *memTx) CountBooks(context.Context) (int64, error) {
	return int64(len(t.liveBooks())), nil
}

func (t *memTx) DecrementAvailableCopies(_ context.Context, bookID int32) (bool, error) {
	book, ok := t.data.books[bookID]
	if !ok || book.DeletedAt != nil || book.AvailableCopies <= 0 {
		return false, nil
	}
	book.AvailableCopies--
	t.data.books[bookID] = book
	return true, nil
}

func (t *memTx) IncrementAvailableCopies(_ context.Context, bookID int32) error {
	book, ok := t.data.books[bookID]
	if !ok {
		return models.ErrBookNotFound
	}
	if book.AvailableCopies < book.TotalCopies {
		book.AvailableCopies++
	}
	t.data.books[bookID] = book
	return nil
}

func (t *memTx) CountActiveLoansForBook(_ context.Context, bookID int32) (int64, error) {
	var count int64
	for _, txn := range t.data.transactions {
		if txn.BookID == bookID && txn.Status == models.TransactionIssued {
			count++
		}
	}
	return count, nil
}

// Ledger

func (t *memTx) CreateTransaction(_ context.Context, arg store.CreateTransactionParams) (models.Transaction, error) {
	txn := models.Transaction{
		ID:         t.data.nextTxnID,
		UserID:     arg.UserID,
		BookID:     arg.BookID,
		IssueDate:  arg.IssueDate,
		DueDate:    arg.DueDate,
		FineAmount: decimal.Zero,
		Status:     models.TransactionIssued,
	}
	t.data.nextTxnID++
	t.data.transactions[txn.ID] = txn
	return txn, nil
}

func (t *memTx) GetTransactionByID(_ context.Context, id int32) (models.Transaction, error) {
	txn, ok := t.data.transactions[id]
	if !ok {
		return models.Transaction{}, models.ErrTransactionNotFound
	}
	return txn, nil
}

func (t *memTx) GetTransactionForUser(_ context.Context, arg store.GetTransactionForUserParams) (models.Transaction, error) {
	txn, ok := t.data.transactions[arg.ID]
	if !ok || txn.UserID != arg.UserID {
		return models.Transaction{}, models.ErrTransactionNotFound
	}
	return txn, nil
}

func (t *memTx) MarkTransactionReturned(_ context.Context, arg store.MarkTransactionReturnedParams) (models.Transaction, error) {
	txn, ok := t.data.transactions[arg.ID]
	if !ok || txn.Status != models.TransactionIssued {
		return models.Transaction{}, models.ErrAlreadyReturned
	}
	returnDate := arg.ReturnDate
	txn.ReturnDate = &returnDate
	txn.FineAmount = arg.FineAmount
	txn.Status = models.TransactionReturned
	t.data.transactions[arg.ID] = txn
	return txn, nil
}

func (t *memTx) listJoined(filter func(models.Transaction) bool) []models.TransactionWithBook {
	out := []models.TransactionWithBook{}
	for _, txn := range t.data.transactions {
		if !filter(txn) {
			continue
		}
		book := t.data.books[txn.BookID]
		out = append(out, models.TransactionWithBook{
			Transaction: txn,
			BookTitle:   book.Title,
			BookAuthor:  book.Author,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memTx) ListTransactionsByUser(_ context.Context, userID int32) ([]models.TransactionWithBook, error) {
	return t.listJoined(func(txn models.Transaction) bool { return txn.UserID == userID }), nil
}

func (t *memTx) ListTransactions(_ context.Context, arg store.ListTransactionsParams) ([]models.TransactionWithBook, error) {
	all := t.listJoined(func(models.Transaction) bool { return true })
	return paginate(all, arg.Limit, arg.Offset), nil
}

// Payments

func (t *memTx) CreatePayment(_ context.Context, arg store.CreatePaymentParams) (models.Payment, error) {
	if _, exists := t.data.paymentsByTxn[arg.TransactionID]; exists {
		return models.Payment{}, models.ErrDuplicatePayment
	}
	payment := models.Payment{
		ID:               t.data.nextPaymentID,
		TransactionID:    arg.TransactionID,
		PaymentReference: arg.PaymentReference,
		Amount:           arg.Amount,
		PaymentDate:      time.Now().UTC(),
		Status:           arg.Status,
	}
	t.data.nextPaymentID++
	t.data.payments[payment.ID] = payment
	t.data.paymentsByTxn[arg.TransactionID] = payment.ID
	return payment, nil
}
