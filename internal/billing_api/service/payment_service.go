package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/receipt"
	"github.com/residential-billing-ledger/internal/platform/storage"
)

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	ledgerRepo   ledger.Repository
	receiptRepo  receipt.Repository
	store        storage.ObjectStore
	accruer      RentAccruer
	signedURLTTL time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(logger *slog.Logger, ledgerRepo ledger.Repository, receiptRepo receipt.Repository, store storage.ObjectStore, accruer RentAccruer, signedURLTTL time.Duration) PaymentService {
	return &PaymentServiceImpl{
		ledgerRepo:   ledgerRepo,
		receiptRepo:  receiptRepo,
		store:        store,
		accruer:      accruer,
		signedURLTTL: signedURLTTL,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *PaymentServiceImpl) ListPayments(ctx context.Context) ([]*ledger.PaymentRecord, error) {
	return s.ledgerRepo.ListPayments(ctx)
}

// RecentPaymentSummary refreshes rent first so balances include today's charges.
func (s *PaymentServiceImpl) RecentPaymentSummary(ctx context.Context, activeOnly bool) ([]*ledger.PaymentSummary, error) {
	if _, err := s.accruer.RefreshActive(ctx, s.now()); err != nil {
		s.logger.Warn("Rent refresh before payment summary failed", "error", err)
	}
	return s.ledgerRepo.RecentPayments(ctx, activeOnly)
}

func (s *PaymentServiceImpl) ReceiptURL(ctx context.Context, ledgerEntryID int64) (string, error) {
	rc, err := s.receiptRepo.GetByLedgerEntryID(ctx, ledgerEntryID)
	if err != nil {
		return "", err
	}

	url, err := s.store.SignedURL(ctx, rc.Bucket, rc.ObjectPath, s.signedURLTTL)
	if err != nil {
		s.logger.Error("Failed to sign receipt URL", "ledger_entry_id", ledgerEntryID, "error", err)
		return "", err
	}
	return url, nil
}
