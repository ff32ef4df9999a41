package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/davidkorir/library-api/internal/config"
	"github.com/davidkorir/library-api/internal/database"
	"github.com/davidkorir/library-api/internal/handlers"
	"github.com/davidkorir/library-api/internal/middleware"
	"github.com/davidkorir/library-api/internal/services"
	"github.com/davidkorir/library-api/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.Server.Mode)

	db, err := database.New(cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redis, err := database.NewRedis(cfg)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	// Notifications go out by email when SMTP is configured, otherwise they
	// land in the structured log.
	var notifier services.Notifier = services.NewLogNotifier(logger)
	if cfg.SMTP.Enabled {
		notifier = services.NewEmailNotifier(cfg.SMTP, logger)
	}

	st := store.New(db.Pool)
	borrowingService := services.NewBorrowingService(st, notifier, logger).
		WithLoanPeriod(cfg.Loan.PeriodDays).
		WithFinePerDay(decimal.NewFromFloat(cfg.Loan.FinePerDay))
	bookService := services.NewBookService(st)

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	rateLimiter := middleware.NewRateLimiter(redis.Client)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	healthHandler := handlers.NewHealthHandler(db, redis)
	bookHandler := handlers.NewBookHandler(bookService)
	transactionHandler := handlers.NewTransactionHandler(borrowingService)

	// Public routes (no authentication required)
	public := r.Group("/api/v1")
	{
		public.GET("/ping", healthHandler.Ping)
		public.GET("/health", healthHandler.Health)
		public.GET("/books/by-category", bookHandler.BooksByCategory)
	}

	// Protected routes (authentication required)
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware.RequireAuth())
	protected.Use(rateLimiter.APILimit())
	{
		books := protected.Group("/books")
		{
			books.GET("", bookHandler.ListBooks)
			books.GET("/search", bookHandler.SearchBooks)
			books.GET("/count", bookHandler.CountBooks)
			books.GET("/:id", bookHandler.GetBook)

			// Catalog management requires the elevated role
			admin := books.Group("")
			admin.Use(authMiddleware.RequireAdmin())
			{
				admin.POST("", bookHandler.CreateBook)
				admin.PUT("/:id", bookHandler.UpdateBook)
				admin.DELETE("/:id", bookHandler.DeleteBook)
			}
		}

		transactions := protected.Group("/transactions")
		{
			transactions.POST("/issue", transactionHandler.IssueBook)
			transactions.POST("/return", transactionHandler.ReturnBook)
			transactions.POST("/pay-fine", transactionHandler.PayFine)
			transactions.GET("/my-history", transactionHandler.MyHistory)
			transactions.GET("/all", authMiddleware.RequireAdmin(), transactionHandler.AllTransactions)
		}
	}

	// Root health check
	r.GET("/health", healthHandler.Health)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", port, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
