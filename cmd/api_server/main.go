package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/residential-billing-ledger/internal/accrual"
	"github.com/residential-billing-ledger/internal/billing_api"
	"github.com/residential-billing-ledger/internal/billing_api/service"
	"github.com/residential-billing-ledger/internal/config"
	"github.com/residential-billing-ledger/internal/data/mongo"
	"github.com/residential-billing-ledger/internal/data/postgres"
	"github.com/residential-billing-ledger/internal/logger"
	"github.com/residential-billing-ledger/internal/platform/documents"
	"github.com/residential-billing-ledger/internal/platform/persistence"
	"github.com/residential-billing-ledger/internal/platform/storage"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting billing API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"config_file", cfg.Source,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		postgresDB.Close()
		os.Exit(1)
	}

	residentRepo := postgres.NewResidentRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	receiptRepo := postgres.NewReceiptRepository(log, postgresDB)
	expenseRepo := postgres.NewExpenseRepository(log, postgresDB)
	activityRepo := mongo.NewActivityRepository(log, mongoDB.Database())

	accrualService, err := accrual.NewService(log, postgresDB, residentRepo, ledgerRepo, outboxRepo, cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize rent accrual", "error", err)
		os.Exit(1)
	}

	objectStore := storage.NewSupabaseClient(log, &cfg.Storage)
	if cfg.Storage.URL == "" {
		log.Warn("Object storage is not configured; payments and expense uploads will fail")
	}

	services := billing_api.Services{
		Residents: service.NewResidentService(log, residentRepo, ledgerRepo, accrualService),
		Ledger: service.NewLedgerService(log, service.LedgerDeps{
			Transactor:     postgresDB,
			LedgerRepo:     ledgerRepo,
			ResidentRepo:   residentRepo,
			OutboxRepo:     outboxRepo,
			ReceiptRepo:    receiptRepo,
			Renderer:       documents.NewPDFReceiptRenderer(),
			Store:          objectStore,
			ReceiptsBucket: cfg.Storage.ReceiptsBucket,
			Accruer:        accrualService,
		}),
		Payments: service.NewPaymentService(log, ledgerRepo, receiptRepo, objectStore, accrualService, cfg.Storage.SignedURLTTL),
		Expenses: service.NewExpenseService(log, postgresDB, expenseRepo, objectStore, service.ExpenseOptions{
			Bucket:            cfg.Storage.ExpensesBucket,
			SignedURLTTL:      cfg.Storage.SignedURLTTL,
			MaxUploadBytes:    cfg.Uploads.MaxRequestBytes,
			AllowedExtensions: cfg.Uploads.AllowedExtensions,
		}),
		Activity: service.NewActivityService(activityRepo, residentRepo),
		Readiness: map[string]func(ctx context.Context) error{
			"postgres": postgresDB.Ping,
			"mongodb":  mongoDB.Ping,
		},
	}

	server, err := billing_api.NewServer(log, cfg, services)
	if err != nil {
		log.Error("Failed to initialize HTTP server", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)

	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	log.Info("Starting graceful shutdown...")

	// drain requests before the pools they use go away
	shutdownErr := server.Stop(context.Background())
	if shutdownErr != nil {
		log.Error("Error during server shutdown", "error", shutdownErr)
	}

	accrualService.Shutdown()
	postgresDB.Close()

	closeCtx, cancelClose := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	defer cancelClose()
	if err := mongoDB.Close(closeCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serverErr != nil || shutdownErr != nil {
		log.Error("Billing API shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Billing API shutdown completed successfully")
}
