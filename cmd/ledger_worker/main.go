package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/residential-billing-ledger/internal/accrual"
	"github.com/residential-billing-ledger/internal/config"
	"github.com/residential-billing-ledger/internal/data/mongo"
	"github.com/residential-billing-ledger/internal/data/postgres"
	"github.com/residential-billing-ledger/internal/ledger_worker/consumer"
	"github.com/residential-billing-ledger/internal/ledger_worker/outbox_poller"
	"github.com/residential-billing-ledger/internal/ledger_worker/scheduler"
	"github.com/residential-billing-ledger/internal/logger"
	"github.com/residential-billing-ledger/internal/platform/messaging/consumers"
	"github.com/residential-billing-ledger/internal/platform/messaging/producers"
	"github.com/residential-billing-ledger/internal/platform/persistence"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig("ledger_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting ledger worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"config_file", cfg.Source,
	)

	if err := run(log, cfg); err != nil {
		log.Error("Ledger worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Ledger worker shutdown completed successfully")
}

// run wires the three worker loops (outbox relay, activity projection, rent cron) and blocks
// until a termination signal arrives. Resources are released in reverse order of creation.
func run(log *slog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("initialize PostgreSQL: %w", err)
	}
	defer postgresDB.Close()

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("initialize MongoDB: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	residentRepo := postgres.NewResidentRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	activityRepo := mongo.NewActivityRepository(log, mongoDB.Database())

	if err := activityRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("create activity indexes: %w", err)
	}

	ledgerProducer, err := producers.NewLedgerEventProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("initialize ledger Kafka producer: %w", err)
	}
	defer closeLogged(log, "ledger Kafka producer", ledgerProducer.Close)

	ledgerDLQ, err := producers.NewLedgerDeadLetters(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("initialize ledger DLQ producer: %w", err)
	}
	defer closeLogged(log, "ledger DLQ producer", ledgerDLQ.Close)

	// a nil *LedgerDeadLetters must reach the handler as a nil interface
	var deadLetters producers.DeadLetterPublisher
	if ledgerDLQ != nil {
		deadLetters = ledgerDLQ
	}

	accrualService, err := accrual.NewService(log, postgresDB, residentRepo, ledgerRepo, outboxRepo, cfg.WorkerPool.Size)
	if err != nil {
		return fmt.Errorf("initialize rent accrual: %w", err)
	}
	defer accrualService.Shutdown()

	rentScheduler, err := scheduler.NewRentScheduler(log, &cfg.Rent, accrualService)
	if err != nil {
		return fmt.Errorf("schedule rent accrual: %w", err)
	}

	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		outbox_poller.NewKafkaEventPublisher(outboxRepo, ledgerProducer, log),
		log,
	)

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)
	defer closeLogged(log, "Kafka consumer", kafkaConsumer.Close)

	eventHandler := consumer.NewLedgerEventHandler(log, activityRepo, deadLetters)
	if err := kafkaConsumer.Subscribe(ctx, eventHandler.HandleMessage); err != nil {
		return fmt.Errorf("subscribe to ledger events: %w", err)
	}

	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		poller.Start(ctx)
	}()
	go func() {
		defer loops.Done()
		rentScheduler.Start(ctx)
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, waiting for loops to stop", "grace", shutdownGrace.String())

	stopped := make(chan struct{})
	go func() {
		loops.Wait()
		<-kafkaConsumer.Done()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Info("All loops stopped")
	case <-time.After(shutdownGrace):
		log.Warn("Shutdown grace period elapsed, closing resources anyway")
	}
	return nil
}

func closeLogged(log *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error("Error closing "+what, "error", err)
	}
}
