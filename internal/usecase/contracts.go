package usecase

import (
	"context"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/dto"
	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
)

type (
	FrameUseCase interface {
		Ingest(ctx context.Context, in dto.FrameUpload) (*entity.Upload, error)
		GetFrame(ctx context.Context, key string) (*entity.FrameObject, error)
		ListDays(ctx context.Context) ([]string, error)
		ListFrames(ctx context.Context, day string) ([]entity.FrameInfo, error)
	}

	ParkingUseCase interface {
		Lots(ctx context.Context) ([]entity.Lot, error)
		Spaces(ctx context.Context) ([]entity.Space, error)
		Spots(ctx context.Context) ([]entity.ParkingSpot, error)
	}

	PassthroughUseCase interface {
		Query(ctx context.Context, sql string, params []any) ([]map[string]any, error)
		List(ctx context.Context, table string, filters map[string]string, limit uint64) ([]map[string]any, error)
		Get(ctx context.Context, table, id string) (map[string]any, error)
		Create(ctx context.Context, table string, values map[string]any) (map[string]any, error)
		Update(ctx context.Context, table, id string, values map[string]any) (map[string]any, error)
		Delete(ctx context.Context, table, id string) error
	}

	Reconciler interface {
		Record(ctx context.Context, job entity.FrameJob, cause error) error
	}

	ReconcileUseCase interface {
		Reconciler
		ClaimPending(ctx context.Context, maxRetries, limit int) ([]*entity.ReconcileEvent, error)
		Republish(ctx context.Context, event *entity.ReconcileEvent) entity.PublishResult
		MarkAsProcessedBatch(ctx context.Context, events []*entity.ReconcileEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.ReconcileEvent, lastError string) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		ReleaseStale(ctx context.Context, staleAfter time.Duration) error
		Cleanup(ctx context.Context, retention time.Duration) error
	}
)
