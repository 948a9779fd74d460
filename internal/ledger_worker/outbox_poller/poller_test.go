package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/residential-billing-ledger/internal/config"
	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPoller(repo *MockOutboxRepo, publisher *MockEventPublisher) *Poller {
	cfg := &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
	return NewPoller(cfg, repo, publisher, newTestLogger())
}

func TestPoller_RelayBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("PublishesEveryMessage", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		publisher := new(MockEventPublisher)
		poller := newTestPoller(repo, publisher)

		first, second := newTestMessage(t, 1), newTestMessage(t, 2)
		repo.On("GetPending", ctx, 10).Return([]*outbox.Message{first, second}, nil).Once()
		publisher.On("Publish", ctx, first).Return(nil).Once()
		publisher.On("Publish", ctx, second).Return(nil).Once()

		relayed, err := poller.relayBatch(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, relayed)
		publisher.AssertExpectations(t)
		repo.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FailureIsRecordedAndBatchContinues", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		publisher := new(MockEventPublisher)
		poller := newTestPoller(repo, publisher)

		failing, ok := newTestMessage(t, 1), newTestMessage(t, 2)
		repo.On("GetPending", ctx, 10).Return([]*outbox.Message{failing, ok}, nil).Once()
		publisher.On("Publish", ctx, failing).Return(errors.New("broker down")).Once()
		repo.On("RecordFailure", ctx, failing.ID, "broker down", 3).Return(shared.OutboxStatusPending, nil).Once()
		publisher.On("Publish", ctx, ok).Return(nil).Once()

		relayed, err := poller.relayBatch(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, relayed)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("ExhaustedMessageIsOnlyLogged", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		publisher := new(MockEventPublisher)
		poller := newTestPoller(repo, publisher)

		msg := newTestMessage(t, 1)
		msg.Attempts = 2
		repo.On("GetPending", ctx, 10).Return([]*outbox.Message{msg}, nil).Once()
		publisher.On("Publish", ctx, msg).Return(errors.New("broker down")).Once()
		repo.On("RecordFailure", ctx, msg.ID, "broker down", 3).Return(shared.OutboxStatusFailedToPublish, nil).Once()

		relayed, err := poller.relayBatch(ctx)

		require.NoError(t, err)
		assert.Zero(t, relayed)
		repo.AssertExpectations(t)
	})

	t.Run("RecordFailureErrorDoesNotAbort", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		publisher := new(MockEventPublisher)
		poller := newTestPoller(repo, publisher)

		msg := newTestMessage(t, 1)
		repo.On("GetPending", ctx, 10).Return([]*outbox.Message{msg}, nil).Once()
		publisher.On("Publish", ctx, msg).Return(errors.New("broker down")).Once()
		repo.On("RecordFailure", ctx, msg.ID, "broker down", 3).Return(shared.OutboxStatus(""), errors.New("db down")).Once()

		_, err := poller.relayBatch(ctx)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("UnpublishableSkipsRetryAccounting", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		publisher := new(MockEventPublisher)
		poller := newTestPoller(repo, publisher)

		msg := newTestMessage(t, 1)
		repo.On("GetPending", ctx, 10).Return([]*outbox.Message{msg}, nil).Once()
		publisher.On("Publish", ctx, msg).Return(fmt.Errorf("%w: bad payload", ErrUnpublishable)).Once()

		relayed, err := poller.relayBatch(ctx)

		require.NoError(t, err)
		assert.Zero(t, relayed)
		repo.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FetchFailure", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		publisher := new(MockEventPublisher)
		poller := newTestPoller(repo, publisher)

		repo.On("GetPending", ctx, 10).Return(nil, errors.New("db down")).Once()

		_, err := poller.relayBatch(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}

func TestPoller_StartStopsOnCancel(t *testing.T) {
	repo := new(MockOutboxRepo)
	publisher := new(MockEventPublisher)
	poller := newTestPoller(repo, publisher)

	repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	repo.AssertCalled(t, "GetPending", mock.Anything, 10)
}
