package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davidkorir/library-api/internal/models"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// respondError maps domain errors to stable codes and 4xx statuses. Anything
// outside the taxonomy is an infrastructure failure and is reported as a
// plain 500 without internal detail.
func respondError(c *gin.Context, err error) {
	status, code, message := classifyError(err)
	c.JSON(status, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, models.ErrBookNotFound):
		return http.StatusNotFound, "BOOK_NOT_FOUND", err.Error()
	case errors.Is(err, models.ErrTransactionNotFound):
		// Unauthorized access to another user's transaction takes this same
		// path so existence is never leaked.
		return http.StatusNotFound, "TRANSACTION_NOT_FOUND", err.Error()
	case errors.Is(err, models.ErrBookUnavailable):
		return http.StatusConflict, "BOOK_UNAVAILABLE", err.Error()
	case errors.Is(err, models.ErrAlreadyReturned):
		return http.StatusConflict, "ALREADY_RETURNED", err.Error()
	case errors.Is(err, models.ErrDuplicatePayment):
		return http.StatusConflict, "DUPLICATE_PAYMENT", err.Error()
	case errors.Is(err, models.ErrBookHasActiveLoans):
		return http.StatusConflict, "BOOK_HAS_ACTIVE_LOANS", err.Error()
	case errors.Is(err, models.ErrNoFineDue):
		return http.StatusBadRequest, "NO_FINE_DUE", err.Error()
	case errors.Is(err, models.ErrFineAmountMismatch):
		return http.StatusBadRequest, "FINE_AMOUNT_MISMATCH", err.Error()
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request data",
			Details: err.Error(),
		},
	})
}
