// Package accrual posts automatic rent charges. The API runs it for the residents it is
// about to show, and the worker runs it on a schedule for every active resident.
package accrual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/panjf2000/ants/v2"

	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/domain/rent"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/residential-billing-ledger/internal/platform/persistence"
)

// Service brings residents' auto rent charges up to date.
type Service struct {
	transactor persistence.Transactor
	residents  resident.Repository
	ledger     ledger.Repository
	outbox     outbox.Repository
	pool       *ants.Pool
	logger     *slog.Logger
}

func NewService(
	logger *slog.Logger,
	transactor persistence.Transactor,
	residents resident.Repository,
	ledgerRepo ledger.Repository,
	outboxRepo outbox.Repository,
	poolSize int,
) (*Service, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create accrual worker pool: %w", err)
	}

	return &Service{
		transactor: transactor,
		residents:  residents,
		ledger:     ledgerRepo,
		outbox:     outboxRepo,
		pool:       pool,
		logger:     logger,
	}, nil
}

// EnsureUpToDate inserts every auto rent charge due for the resident up to today and
// returns how many were inserted. Inactive residents are skipped.
func (s *Service) EnsureUpToDate(ctx context.Context, residentID int64, today time.Time) (int, error) {
	inserted := 0

	err := s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		inserted = 0
		residentsTx := s.residents.WithTx(tx)
		ledgerTx := s.ledger.WithTx(tx)
		outboxTx := s.outbox.WithTx(tx)

		if err := ledgerTx.LockResident(ctx, residentID); err != nil {
			return err
		}

		res, err := residentsTx.GetByID(ctx, residentID)
		if err != nil {
			return err
		}
		if !res.IsActive() {
			return nil
		}

		last, err := ledgerTx.LastAutoRentDate(ctx, residentID)
		if err != nil {
			return err
		}

		for _, due := range rent.DueDates(res.RateFrequency, res.StartDate, last, today) {
			entry := ledger.NewAutoRentCharge(residentID, due, res.RateAmount)
			ok, err := ledgerTx.InsertAutoRentCharge(ctx, entry)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			msg, err := outbox.NewMessage(ledger.NewPostedEvent(entry))
			if err != nil {
				return fmt.Errorf("failed to build outbox message: %w", err)
			}
			if err := outboxTx.Create(ctx, msg); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		s.logger.Info("Posted auto rent charges", "resident_id", residentID, "count", inserted)
	}
	return inserted, nil
}

// RefreshActive runs EnsureUpToDate for every active resident on the worker pool.
// A failure for one resident does not stop the others; all failures are joined.
func (s *Service) RefreshActive(ctx context.Context, today time.Time) (int, error) {
	ids, err := s.residents.ListActiveIDs(ctx)
	if err != nil {
		return 0, err
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
		errs  []error
	)
	record := func(residentID int64, n int, err error) {
		mu.Lock()
		defer mu.Unlock()
		total += n
		// removed between listing and locking
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			errs = append(errs, fmt.Errorf("resident %d: %w", residentID, err))
		}
	}

	for _, id := range ids {
		residentID := id
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			n, err := s.EnsureUpToDate(ctx, residentID, today)
			if err != nil {
				s.logger.Error("Failed to accrue rent", "resident_id", residentID, "error", err)
			}
			record(residentID, n, err)
		})
		if submitErr != nil {
			wg.Done()
			s.logger.Error("Failed to submit rent accrual to worker pool", "resident_id", residentID, "error", submitErr)
			record(residentID, 0, submitErr)
		}
	}
	wg.Wait()

	s.logger.Info("Rent accrual pass finished",
		"residents", len(ids),
		"charges_posted", total,
		"failures", len(errs),
	)
	return total, errors.Join(errs...)
}

// Shutdown releases the worker pool.
func (s *Service) Shutdown() {
	s.logger.Info("Shutting down accrual worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}
