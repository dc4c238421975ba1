package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/internal/usecase"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
)

// Relay re-publishes frame jobs whose first publish failed.
type Relay struct {
	uc     usecase.ReconcileUseCase
	logger logger.Interface

	pollInterval        time.Duration
	markFailedInterval  time.Duration
	cleanupInterval     time.Duration
	processBatchTimeout time.Duration
	batchSize           int
	maxRetries          int
	retention           time.Duration
	staleAfter          time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	uc usecase.ReconcileUseCase,
	l logger.Interface,
	pollInterval time.Duration,
	markFailedInterval time.Duration,
	cleanupInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
	maxRetries int,
	retention time.Duration,
	staleAfter time.Duration,
) *Relay {
	return &Relay{
		uc:                  uc,
		logger:              l,
		pollInterval:        pollInterval,
		markFailedInterval:  markFailedInterval,
		cleanupInterval:     cleanupInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
		maxRetries:          maxRetries,
		retention:           retention,
		staleAfter:          staleAfter,
	}
}

func (r *Relay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Relay - Start - relay already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. re-publish pending jobs
	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.processBatch(batchCtx)
		batchCancel()
	})

	// 2. release abandoned claims, give up on jobs out of retries
	r.worker(r.markFailedInterval, func() {
		err := r.uc.ReleaseStale(r.ctx, r.staleAfter)
		if err != nil {
			r.logger.Error(err, "Relay - Start - worker - r.uc.ReleaseStale")
		}

		err = r.uc.MarkMaxRetriesAsFailed(r.ctx, r.maxRetries)
		if err != nil {
			r.logger.Error(err, "Relay - Start - worker - r.uc.MarkMaxRetriesAsFailed")
		}
	})

	// 3. drop settled rows
	r.worker(r.cleanupInterval, func() {
		err := r.uc.Cleanup(r.ctx, r.retention)
		if err != nil {
			r.logger.Error(err, "Relay - Start - worker - r.uc.Cleanup")
		}
	})

	return nil
}

func (r *Relay) processBatch(ctx context.Context) {
	events, err := r.uc.ClaimPending(ctx, r.maxRetries, r.batchSize)
	if err != nil {
		r.logger.Error(err, "Relay - processBatch - r.uc.ClaimPending")

		return
	}
	if len(events) == 0 {
		return
	}

	var (
		published []*entity.ReconcileEvent
		failed    []*entity.ReconcileEvent
		lastErr   error
	)

	for _, event := range events {
		res := r.uc.Republish(ctx, event)
		if res.Enqueued() {
			published = append(published, event)
			continue
		}

		r.logger.Warn("Relay - processBatch - key=%s outcome=%s: %v", event.FrameKey, res.Outcome, res.Err)
		failed = append(failed, event)
		lastErr = res.Err
	}

	if len(published) > 0 {
		err = r.uc.MarkAsProcessedBatch(ctx, published)
		if err != nil {
			r.logger.Error(err, "Relay - processBatch - r.uc.MarkAsProcessedBatch")
		}
	}

	if len(failed) > 0 {
		msg := ""
		if lastErr != nil {
			msg = lastErr.Error()
		}

		err = r.uc.IncrementRetryCountBatch(ctx, failed, msg)
		if err != nil {
			r.logger.Error(err, "Relay - processBatch - r.uc.IncrementRetryCountBatch")
		}
	}
}

func (r *Relay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *Relay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Relay - Shutdown: %w", ctx.Err())
	}
}
