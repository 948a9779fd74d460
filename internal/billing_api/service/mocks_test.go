package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/activity"
	"github.com/residential-billing-ledger/internal/domain/expense"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/domain/receipt"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/residential-billing-ledger/internal/platform/storage"
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

type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) Upsert(ctx context.Context, rc *receipt.Receipt) error {
	return m.Called(ctx, rc).Error(0)
}

func (m *MockReceiptRepository) GetByLedgerEntryID(ctx context.Context, ledgerEntryID int64) (*receipt.Receipt, error) {
	args := m.Called(ctx, ledgerEntryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) WithTx(_ pgx.Tx) receipt.Repository {
	return m
}

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockExpenseRepository) AddFile(ctx context.Context, f *expense.File) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockExpenseRepository) List(ctx context.Context) ([]*expense.Expense, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*expense.Expense), args.Error(1)
}

func (m *MockExpenseRepository) GetFile(ctx context.Context, fileID int64) (*expense.File, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.File), args.Error(1)
}

func (m *MockExpenseRepository) WithTx(_ pgx.Tx) expense.Repository {
	return m
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Upsert(ctx context.Context, record *activity.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockActivityRepository) ListByResident(ctx context.Context, residentID int64, limit, offset int) ([]*activity.Record, error) {
	args := m.Called(ctx, residentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Record), args.Error(1)
}

func (m *MockActivityRepository) CountByResident(ctx context.Context, residentID int64) (int64, error) {
	args := m.Called(ctx, residentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (*storage.UploadResult, error) {
	args := m.Called(ctx, bucket, objectPath, data, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *MockObjectStore) SignedURL(ctx context.Context, bucket, objectPath string, expiresIn time.Duration) (string, error) {
	args := m.Called(ctx, bucket, objectPath, expiresIn)
	return args.String(0), args.Error(1)
}

type MockReceiptRenderer struct {
	mock.Mock
}

func (m *MockReceiptRenderer) Render(doc *receipt.Document) ([]byte, error) {
	args := m.Called(doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockRentAccruer struct {
	mock.Mock
}

func (m *MockRentAccruer) EnsureUpToDate(ctx context.Context, residentID int64, today time.Time) (int, error) {
	args := m.Called(ctx, residentID, today)
	return args.Int(0), args.Error(1)
}

func (m *MockRentAccruer) RefreshActive(ctx context.Context, today time.Time) (int, error) {
	args := m.Called(ctx, today)
	return args.Int(0), args.Error(1)
}
