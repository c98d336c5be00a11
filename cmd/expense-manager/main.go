package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/yann-pourcenoux/expense-manager/internal/amqp"
	"github.com/yann-pourcenoux/expense-manager/internal/auth"
	"github.com/yann-pourcenoux/expense-manager/internal/backend"
	"github.com/yann-pourcenoux/expense-manager/internal/config"
	apphttp "github.com/yann-pourcenoux/expense-manager/internal/http"
	applog "github.com/yann-pourcenoux/expense-manager/internal/log"
	"github.com/yann-pourcenoux/expense-manager/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := backend.Open(cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if store.Cleanup != nil {
		defer func() {
			if err := store.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// AMQP is optional: without it mutations still succeed, they just are
	// not exported to the spreadsheet.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event publishing", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - ledger events will not be published")
	}

	calc := services.NewSplitCalculator(store.Store, store.Store)
	profiles := services.NewProfileService(store.Store)
	svc := apphttp.Services{
		Expenses:   services.NewExpenseService(store.Store, calc, publisher),
		Transfers:  services.NewTransferService(store.Store, publisher),
		Income:     services.NewIncomeService(store.Store),
		Categories: services.NewCategoryService(store.Store, store.Store),
		Profiles:   profiles,
		Balances:   services.NewBalanceEngine(store.Store),
		Auth:       auth.NewService(store.Store, profiles),
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.CacheConfig{
		Size: cfg.BalanceCacheSize,
		TTL:  cfg.BalanceCacheTTL,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting expense-manager server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
