package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expenseapi/internal/api"
	"expenseapi/internal/auth"
	"expenseapi/internal/config"
	"expenseapi/internal/events"
	"expenseapi/internal/log"
	"expenseapi/internal/seed"
	"expenseapi/internal/services"
	"expenseapi/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "path", cfg.SQLiteDBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.Connect(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		logger.Info("AMQP event publishing enabled",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP event publishing disabled")
	}

	expenseStore := storage.NewExpenseStore(db)
	categoryStore := storage.NewCategoryStore(db)
	budgetStore := storage.NewBudgetStore(db)
	statusStore := storage.NewStatusStore(db)
	userStore := storage.NewUserStore(db)
	settingsStore := storage.NewSettingsStore(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	blacklist := auth.NewBlacklist()

	budgetService := services.NewBudgetService(expenseStore, budgetStore, categoryStore)
	categoryService := services.NewCategoryService(categoryStore, budgetStore, budgetService)
	statusService := services.NewStatusService(statusStore)
	expenseService := services.NewExpenseService(expenseStore, categoryStore, statusStore, budgetService, publisher)
	userService := services.NewUserService(userStore, settingsStore, blacklist, cfg.JWTExpiry)
	authService := services.NewAuthService(userStore, tokens, blacklist)

	if cfg.SeedData {
		seeder := seed.New(categoryService, statusService, expenseService, logger)
		if err := seeder.Run(context.Background()); err != nil {
			logger.Error("Seeding failed", "error", err)
			os.Exit(1)
		}
	}

	server := api.NewServer(api.Deps{
		Logger:      logger,
		AuthService: authService,
		Users:       userService,
		Categories:  categoryService,
		Statuses:    statusService,
		Expenses:    expenseService,
		Budgets:     budgetService,
		BudgetRepo:  budgetStore,
		Tokens:      tokens,
		Blacklist:   blacklist,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		blacklist.Janitor(cfg.BlacklistSweepInterval, ctx.Done())
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
