package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure"
	"github.com/andreyxaxa/Frame-Ingest/internal/repo"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/google/uuid"
)

type ReconcileUseCase struct {
	reconcileRepo repo.ReconcileRepo
	transactor    repo.Transactor
	publisher     infrastructure.JobPublisher

	logger logger.Interface
	now    func() time.Time
}

func New(
	reconcileRepo repo.ReconcileRepo,
	transactor repo.Transactor,
	publisher infrastructure.JobPublisher,
	l logger.Interface,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		reconcileRepo: reconcileRepo,
		transactor:    transactor,
		publisher:     publisher,
		logger:        l,
		now:           time.Now,
	}
}

// Record stores a job whose publish failed so the relay can re-publish it.
func (uc *ReconcileUseCase) Record(ctx context.Context, job entity.FrameJob, cause error) error {
	payload, err := json.Marshal(entity.JobEnvelope{Body: job})
	if err != nil {
		return fmt.Errorf("ReconcileUseCase - Record - json.Marshal: %w", err)
	}

	event := &entity.ReconcileEvent{
		ID:        uuid.New(),
		FrameKey:  job.Key,
		Payload:   payload,
		Status:    entity.Pending,
		CreatedAt: uc.now(),
	}
	if cause != nil {
		event.LastError = cause.Error()
	}

	err = uc.reconcileRepo.Create(ctx, event)
	if err != nil {
		return fmt.Errorf("ReconcileUseCase - Record - uc.reconcileRepo.Create: %w", err)
	}

	return nil
}

// ClaimPending selects pending events and marks them processing in one
// transaction, so two relays never claim the same event.
func (uc *ReconcileUseCase) ClaimPending(ctx context.Context, maxRetries, limit int) ([]*entity.ReconcileEvent, error) {
	var events []*entity.ReconcileEvent

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error

		events, err = uc.reconcileRepo.GetPendingEvents(ctx, maxRetries, limit)
		if err != nil {
			return fmt.Errorf("uc.reconcileRepo.GetPendingEvents: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		err = uc.reconcileRepo.MarkAsProcessingBatch(ctx, eventIDs(events))
		if err != nil {
			return fmt.Errorf("uc.reconcileRepo.MarkAsProcessingBatch: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ReconcileUseCase - ClaimPending - uc.transactor.WithinTransaction: %w", err)
	}

	return events, nil
}

// Republish sends the stored job again. A payload that no longer decodes is
// reported as rejected.
func (uc *ReconcileUseCase) Republish(ctx context.Context, event *entity.ReconcileEvent) entity.PublishResult {
	var env entity.JobEnvelope

	err := json.Unmarshal(event.Payload, &env)
	if err != nil {
		return entity.PublishResult{
			Outcome: entity.Rejected,
			Err:     fmt.Errorf("ReconcileUseCase - Republish - json.Unmarshal: %w", err),
		}
	}

	return uc.publisher.Publish(ctx, env.Body)
}

func (uc *ReconcileUseCase) MarkAsProcessedBatch(ctx context.Context, events []*entity.ReconcileEvent) error {
	if len(events) == 0 {
		return nil
	}

	err := uc.reconcileRepo.MarkAsProcessedBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("ReconcileUseCase - MarkAsProcessedBatch - uc.reconcileRepo.MarkAsProcessedBatch: %w", err)
	}

	return nil
}

func (uc *ReconcileUseCase) IncrementRetryCountBatch(ctx context.Context, events []*entity.ReconcileEvent, lastError string) error {
	if len(events) == 0 {
		return nil
	}

	err := uc.reconcileRepo.IncrementRetryCountBatch(ctx, eventIDs(events), lastError)
	if err != nil {
		return fmt.Errorf("ReconcileUseCase - IncrementRetryCountBatch - uc.reconcileRepo.IncrementRetryCountBatch: %w", err)
	}

	return nil
}

func (uc *ReconcileUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	n, err := uc.reconcileRepo.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("ReconcileUseCase - MarkMaxRetriesAsFailed - uc.reconcileRepo.MarkMaxRetriesAsFailed: %w", err)
	}

	if n > 0 {
		uc.logger.Warn("ReconcileUseCase - MarkMaxRetriesAsFailed - %d frame jobs gave up after %d retries", n, maxRetries)
	}

	return nil
}

// ReleaseStale puts back events claimed more than staleAfter ago, such as
// those left behind by a relay that crashed mid-batch.
func (uc *ReconcileUseCase) ReleaseStale(ctx context.Context, staleAfter time.Duration) error {
	n, err := uc.reconcileRepo.ReleaseStaleProcessing(ctx, uc.now().Add(-staleAfter))
	if err != nil {
		return fmt.Errorf("ReconcileUseCase - ReleaseStale - uc.reconcileRepo.ReleaseStaleProcessing: %w", err)
	}

	if n > 0 {
		uc.logger.Warn("ReconcileUseCase - ReleaseStale - %d frame jobs were stuck in processing", n)
	}

	return nil
}

func (uc *ReconcileUseCase) Cleanup(ctx context.Context, retention time.Duration) error {
	n, err := uc.reconcileRepo.DeleteOldProcessedAndFailed(ctx, uc.now().Add(-retention))
	if err != nil {
		return fmt.Errorf("ReconcileUseCase - Cleanup - uc.reconcileRepo.DeleteOldProcessedAndFailed: %w", err)
	}

	if n > 0 {
		uc.logger.Debug("ReconcileUseCase - Cleanup - removed %d events", n)
	}

	return nil
}

func eventIDs(events []*entity.ReconcileEvent) uuid.UUIDs {
	ids := make(uuid.UUIDs, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}

	return ids
}
