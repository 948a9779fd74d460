package accrual

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// fakeTransactor runs the callback without a database transaction.
type fakeTransactor struct{}

func (fakeTransactor) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type MockResidentRepository struct {
	mock.Mock
}

func (m *MockResidentRepository) Create(ctx context.Context, r *resident.Resident) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockResidentRepository) GetByID(ctx context.Context, id int64) (*resident.Resident, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resident.Resident), args.Error(1)
}

func (m *MockResidentRepository) ListWithBalances(ctx context.Context) ([]*resident.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*resident.Summary), args.Error(1)
}

func (m *MockResidentRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockResidentRepository) UpdateStatus(ctx context.Context, id int64, status resident.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockResidentRepository) UpdateRate(ctx context.Context, id int64, amount decimal.Decimal, frequency resident.Frequency) error {
	return m.Called(ctx, id, amount, frequency).Error(0)
}

func (m *MockResidentRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockResidentRepository) WithTx(_ pgx.Tx) resident.Repository {
	return m
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, e *ledger.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockLedgerRepository) InsertAutoRentCharge(ctx context.Context, e *ledger.Entry) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) ListByResident(ctx context.Context, residentID int64) ([]*ledger.Entry, error) {
	args := m.Called(ctx, residentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) Balance(ctx context.Context, residentID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, residentID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) LastAutoRentDate(ctx context.Context, residentID int64) (*time.Time, error) {
	args := m.Called(ctx, residentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockLedgerRepository) LockResident(ctx context.Context, residentID int64) error {
	return m.Called(ctx, residentID).Error(0)
}

func (m *MockLedgerRepository) ListPayments(ctx context.Context) ([]*ledger.PaymentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.PaymentRecord), args.Error(1)
}

func (m *MockLedgerRepository) RecentPayments(ctx context.Context, activeOnly bool) ([]*ledger.PaymentSummary, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.PaymentSummary), args.Error(1)
}

func (m *MockLedgerRepository) WithTx(_ pgx.Tx) ledger.Repository {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, msg *outbox.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepository) MarkUnpublishable(ctx context.Context, id uuid.UUID, cause string) error {
	return m.Called(ctx, id, cause).Error(0)
}

func (m *MockOutboxRepository) RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) (shared.OutboxStatus, error) {
	args := m.Called(ctx, id, cause, maxAttempts)
	return args.Get(0).(shared.OutboxStatus), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(_ pgx.Tx) outbox.Repository {
	return m
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
