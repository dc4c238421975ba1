package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconcile struct {
	mu sync.Mutex

	pending   []*entity.ReconcileEvent
	claimErr  error
	failKeys  map[string]error
	processed []*entity.ReconcileEvent
	retried   []*entity.ReconcileEvent
	lastError string

	markFailedCalls int
	releaseCalls    int
	cleanupCalls    int
}

func (f *fakeReconcile) Record(context.Context, entity.FrameJob, error) error { return nil }

func (f *fakeReconcile) ClaimPending(_ context.Context, _, _ int) ([]*entity.ReconcileEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	events := f.pending
	f.pending = nil

	return events, f.claimErr
}

func (f *fakeReconcile) Republish(_ context.Context, event *entity.ReconcileEvent) entity.PublishResult {
	if err, ok := f.failKeys[event.FrameKey]; ok {
		return entity.PublishResult{Outcome: entity.TransportError, Err: err}
	}

	return entity.PublishResult{Outcome: entity.Published}
}

func (f *fakeReconcile) MarkAsProcessedBatch(_ context.Context, events []*entity.ReconcileEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.processed = append(f.processed, events...)

	return nil
}

func (f *fakeReconcile) IncrementRetryCountBatch(_ context.Context, events []*entity.ReconcileEvent, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.retried = append(f.retried, events...)
	f.lastError = lastError

	return nil
}

func (f *fakeReconcile) MarkMaxRetriesAsFailed(context.Context, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.markFailedCalls++

	return nil
}

func (f *fakeReconcile) ReleaseStale(context.Context, time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseCalls++

	return nil
}

func (f *fakeReconcile) Cleanup(context.Context, time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cleanupCalls++

	return nil
}

func event(key string) *entity.ReconcileEvent {
	return &entity.ReconcileEvent{ID: uuid.New(), FrameKey: key, Status: entity.Processing}
}

func newRelay(uc *fakeReconcile, interval time.Duration) *Relay {
	return New(uc, logger.Nop(), interval, interval, interval, time.Second, 10, 3, time.Hour, time.Minute)
}

func TestProcessBatchSplitsPublishedAndFailed(t *testing.T) {
	ok1, bad, ok2 := event("frames/a.jpg"), event("frames/b.jpg"), event("frames/c.jpg")
	uc := &fakeReconcile{
		pending:  []*entity.ReconcileEvent{ok1, bad, ok2},
		failKeys: map[string]error{"frames/b.jpg": errors.New("broker unavailable")},
	}

	newRelay(uc, time.Hour).processBatch(context.Background())

	assert.Equal(t, []*entity.ReconcileEvent{ok1, ok2}, uc.processed)
	assert.Equal(t, []*entity.ReconcileEvent{bad}, uc.retried)
	assert.Equal(t, "broker unavailable", uc.lastError)
}

func TestProcessBatchNothingPending(t *testing.T) {
	uc := &fakeReconcile{}

	newRelay(uc, time.Hour).processBatch(context.Background())

	assert.Empty(t, uc.processed)
	assert.Empty(t, uc.retried)
}

func TestProcessBatchClaimFailure(t *testing.T) {
	uc := &fakeReconcile{claimErr: errors.New("db down")}

	newRelay(uc, time.Hour).processBatch(context.Background())

	assert.Empty(t, uc.processed)
	assert.Empty(t, uc.retried)
}

func TestRelayRunsWorkersUntilShutdown(t *testing.T) {
	uc := &fakeReconcile{pending: []*entity.ReconcileEvent{event("frames/a.jpg")}}
	r := newRelay(uc, 5*time.Millisecond)

	require.NoError(t, r.Start(context.Background()))
	require.Error(t, r.Start(context.Background()))

	require.Eventually(t, func() bool {
		uc.mu.Lock()
		defer uc.mu.Unlock()

		return len(uc.processed) == 1 && uc.markFailedCalls > 0 && uc.releaseCalls > 0 && uc.cleanupCalls > 0
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
}
