package outbox_poller

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepo) MarkUnpublishable(ctx context.Context, id uuid.UUID, cause string) error {
	return m.Called(ctx, id, cause).Error(0)
}

func (m *MockOutboxRepo) RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) (shared.OutboxStatus, error) {
	args := m.Called(ctx, id, cause, maxAttempts)
	return args.Get(0).(shared.OutboxStatus), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockMessagePublisher) Close() error {
	return m.Called().Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
