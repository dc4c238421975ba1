package repo

import (
	"context"
	"io"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/google/uuid"
)

type (
	FrameRepo interface {
		Put(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		Get(ctx context.Context, key string) (*entity.FrameObject, error)
		ListPrefixes(ctx context.Context, prefix, delimiter string) ([]string, error)
		List(ctx context.Context, prefix string) ([]entity.FrameInfo, error)
	}

	LotRepo interface {
		List(ctx context.Context) ([]entity.Lot, error)
	}

	SpaceRepo interface {
		List(ctx context.Context) ([]entity.Space, error)
	}

	PassthroughRepo interface {
		Query(ctx context.Context, sql string, params []any) ([]map[string]any, error)
		Select(ctx context.Context, table string, filters map[string]string, limit uint64) ([]map[string]any, error)
		Get(ctx context.Context, table, id string) (map[string]any, error)
		Insert(ctx context.Context, table string, values map[string]any) (map[string]any, error)
		Update(ctx context.Context, table, id string, values map[string]any) (map[string]any, error)
		Delete(ctx context.Context, table, id string) error
	}

	ReconcileRepo interface {
		Create(ctx context.Context, event *entity.ReconcileEvent) error
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.ReconcileEvent, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs, lastError string) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error)
		ReleaseStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)
		DeleteOldProcessedAndFailed(ctx context.Context, olderThan time.Time) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
