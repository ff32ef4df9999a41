package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davidkorir/library-api/internal/models"
)

// BookServiceInterface defines the catalog operations the handler needs
type BookServiceInterface interface {
	CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.Book, error)
	GetBook(ctx context.Context, id int32) (*models.Book, error)
	UpdateBook(ctx context.Context, id int32, req models.UpdateBookRequest) (*models.Book, error)
	DeleteBook(ctx context.Context, id int32) error
	ListBooks(ctx context.Context, page, limit int) (*models.BookListResponse, error)
	SearchBooks(ctx context.Context, req models.BookSearchRequest) ([]models.Book, error)
	BooksByCategory(ctx context.Context) (map[string][]models.CategorySummary, error)
	CountBooks(ctx context.Context) (int64, error)
}

// BookHandler exposes catalog management and browsing over HTTP.
type BookHandler struct {
	books BookServiceInterface
}

func NewBookHandler(books BookServiceInterface) *BookHandler {
	return &BookHandler{books: books}
}

// CreateBook handles POST /books (admin)
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	book, err := h.books.CreateBook(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    book,
		Message: "Book created successfully",
	})
}

// GetBook handles GET /books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	book, err := h.books.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    book,
	})
}

// UpdateBook handles PUT /books/:id (admin)
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	book, err := h.books.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    book,
		Message: "Book updated successfully",
	})
}

// DeleteBook handles DELETE /books/:id (admin)
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.books.DeleteBook(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Book deleted successfully",
	})
}

// ListBooks handles GET /books
func (h *BookHandler) ListBooks(c *gin.Context) {
	page := parseQueryInt(c, "page", 1, 1, 1<<30)
	limit := parseQueryInt(c, "limit", 20, 1, 100)

	books, err := h.books.ListBooks(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    books,
	})
}

// SearchBooks handles GET /books/search
func (h *BookHandler) SearchBooks(c *gin.Context) {
	var req models.BookSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	books, err := h.books.SearchBooks(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    books,
	})
}

// BooksByCategory handles GET /books/by-category (public)
func (h *BookHandler) BooksByCategory(c *gin.Context) {
	grouped, err := h.books.BooksByCategory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, grouped)
}

// CountBooks handles GET /books/count
func (h *BookHandler) CountBooks(c *gin.Context) {
	count, err := h.books.CountBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func pathID(c *gin.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid book ID",
				Details: "ID must be a positive integer",
			},
		})
		return 0, false
	}
	return int32(id), true
}
