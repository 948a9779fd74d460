package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/domain/receipt"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/residential-billing-ledger/internal/platform/documents"
	"github.com/residential-billing-ledger/internal/platform/persistence"
	"github.com/residential-billing-ledger/internal/platform/storage"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	transactor     persistence.Transactor
	ledgerRepo     ledger.Repository
	residentRepo   resident.Repository
	outboxRepo     outbox.Repository
	receiptRepo    receipt.Repository
	renderer       documents.ReceiptRenderer
	store          storage.ObjectStore
	receiptsBucket string
	accruer        RentAccruer
	now            func() time.Time
	logger         *slog.Logger
}

// LedgerDeps groups the collaborators of the ledger service.
type LedgerDeps struct {
	Transactor     persistence.Transactor
	LedgerRepo     ledger.Repository
	ResidentRepo   resident.Repository
	OutboxRepo     outbox.Repository
	ReceiptRepo    receipt.Repository
	Renderer       documents.ReceiptRenderer
	Store          storage.ObjectStore
	ReceiptsBucket string
	Accruer        RentAccruer
}

// NewLedgerService creates a new ledger service
func NewLedgerService(logger *slog.Logger, deps LedgerDeps) LedgerService {
	return &LedgerServiceImpl{
		transactor:     deps.Transactor,
		ledgerRepo:     deps.LedgerRepo,
		residentRepo:   deps.ResidentRepo,
		outboxRepo:     deps.OutboxRepo,
		receiptRepo:    deps.ReceiptRepo,
		renderer:       deps.Renderer,
		store:          deps.Store,
		receiptsBucket: deps.ReceiptsBucket,
		accruer:        deps.Accruer,
		now:            time.Now,
		logger:         logger,
	}
}

// PostLedgerEntry writes the entry, its outbox event and, for payments, the receipt in one
// transaction. Nothing is committed if any step fails.
func (s *LedgerServiceImpl) PostLedgerEntry(ctx context.Context, residentID int64, entryDate time.Time, entryType string, amount decimal.Decimal, description, source *string) (*ledger.Entry, error) {
	entry, err := ledger.NewEntry(residentID, entryDate, entryType, amount, description, source)
	if err != nil {
		return nil, err
	}

	err = s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		ledgerTx := s.ledgerRepo.WithTx(tx)

		if err := ledgerTx.Create(ctx, entry); err != nil {
			return err
		}

		msg, err := outbox.NewMessage(ledger.NewPostedEvent(entry))
		if err != nil {
			return fmt.Errorf("failed to build outbox message: %w", err)
		}
		if err := s.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
			return err
		}

		if entry.Type != ledger.EntryTypePayment {
			return nil
		}
		return s.issueReceipt(ctx, tx, entry)
	})
	if err != nil {
		s.logger.Error("Failed to post ledger entry",
			"resident_id", residentID,
			"entry_type", entryType,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Ledger entry posted",
		"entry_id", entry.ID,
		"resident_id", entry.ResidentID,
		"entry_type", string(entry.Type),
		"amount", entry.Amount.StringFixed(2),
	)
	return entry, nil
}

func (s *LedgerServiceImpl) issueReceipt(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	res, err := s.residentRepo.WithTx(tx).GetByID(ctx, entry.ResidentID)
	if err != nil {
		return err
	}

	balance, err := s.ledgerRepo.WithTx(tx).Balance(ctx, entry.ResidentID)
	if err != nil {
		return err
	}

	pdf, err := s.renderer.Render(&receipt.Document{
		ResidentName: res.FullName,
		EntryID:      entry.ID,
		EntryDate:    entry.EntryDate,
		AmountPaid:   entry.Amount,
		BalanceAfter: balance,
	})
	if err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}

	objectPath := receipt.ObjectPath(entry.ResidentID, entry.ID)
	uploaded, err := s.store.Upload(ctx, s.receiptsBucket, objectPath, pdf, receipt.ContentTypePDF)
	if err != nil {
		return fmt.Errorf("failed to upload receipt: %w", err)
	}

	return s.receiptRepo.WithTx(tx).Upsert(ctx, &receipt.Receipt{
		LedgerEntryID:    entry.ID,
		ResidentID:       entry.ResidentID,
		Bucket:           s.receiptsBucket,
		ObjectPath:       objectPath,
		OriginalFilename: receipt.FileName(entry.ID),
		ContentType:      receipt.ContentTypePDF,
		FileSizeBytes:    uploaded.SizeBytes,
		SHA256:           uploaded.SHA256,
	})
}

// ListLedgerForResident accrues due rent first. Unknown residents fail with
// ErrResidentNotFound rather than returning an empty ledger.
func (s *LedgerServiceImpl) ListLedgerForResident(ctx context.Context, residentID int64) ([]*ledger.Entry, error) {
	if _, err := s.accruer.EnsureUpToDate(ctx, residentID, s.now()); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListByResident(ctx, residentID)
}
