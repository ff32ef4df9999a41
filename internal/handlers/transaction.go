package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/davidkorir/library-api/internal/middleware"
	"github.com/davidkorir/library-api/internal/models"
)

// BorrowingServiceInterface defines the borrowing operations the handler needs
type BorrowingServiceInterface interface {
	IssueBook(ctx context.Context, user models.Identity, bookID int32) (*models.Transaction, error)
	ReturnBook(ctx context.Context, user models.Identity, transactionID int32) (*models.Transaction, error)
	PayFine(ctx context.Context, user models.Identity, transactionID int32, amount decimal.Decimal) (*models.Payment, error)
	History(ctx context.Context, user models.Identity) ([]models.TransactionWithBook, error)
	AllTransactions(ctx context.Context, limit, offset int32) ([]models.TransactionWithBook, error)
}

// TransactionHandler exposes the borrow/return/fine lifecycle over HTTP.
type TransactionHandler struct {
	borrowing BorrowingServiceInterface
}

func NewTransactionHandler(borrowing BorrowingServiceInterface) *TransactionHandler {
	return &TransactionHandler{borrowing: borrowing}
}

// IssueBook handles POST /transactions/issue
func (h *TransactionHandler) IssueBook(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondMissingIdentity(c)
		return
	}

	var req models.IssueBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	transaction, err := h.borrowing.IssueBook(c.Request.Context(), identity, req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    transaction,
		Message: "Book issued successfully",
	})
}

// ReturnBook handles POST /transactions/return
func (h *TransactionHandler) ReturnBook(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondMissingIdentity(c)
		return
	}

	var req models.ReturnBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	transaction, err := h.borrowing.ReturnBook(c.Request.Context(), identity, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    transaction,
		Message: "Book returned successfully",
	})
}

// PayFine handles POST /transactions/pay-fine
func (h *TransactionHandler) PayFine(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondMissingIdentity(c)
		return
	}

	var req models.PayFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	payment, err := h.borrowing.PayFine(c.Request.Context(), identity, req.TransactionID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    payment,
		Message: "Fine paid successfully",
	})
}

// MyHistory handles GET /transactions/my-history
func (h *TransactionHandler) MyHistory(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondMissingIdentity(c)
		return
	}

	transactions, err := h.borrowing.History(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    transactions,
	})
}

// AllTransactions handles GET /transactions/all (elevated role only, enforced
// by the RequireAdmin middleware on the route).
func (h *TransactionHandler) AllTransactions(c *gin.Context) {
	limit := parseQueryInt(c, "limit", 50, 1, 500)
	offset := parseQueryInt(c, "offset", 0, 0, 1<<30)

	transactions, err := h.borrowing.AllTransactions(c.Request.Context(), int32(limit), int32(offset))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    transactions,
	})
}

func parseQueryInt(c *gin.Context, name string, def, min, max int) int {
	value, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || value < min || value > max {
		return def
	}
	return value
}

func respondMissingIdentity(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    "MISSING_IDENTITY",
			Message: "Caller identity not found in context",
		},
	})
}
