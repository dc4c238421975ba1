package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/pkg/postgres"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	// Table
	reconcileTable = "frame_jobs_reconcile"

	// Columns
	reconcileIDColumn          = "id"
	reconcileFrameKeyColumn    = "frame_key"
	reconcilePayloadColumn     = "payload"
	reconcileStatusColumn      = "status"
	reconcileLastErrorColumn   = "last_error"
	reconcileCreatedAtColumn   = "created_at"
	reconcileProcessedAtColumn = "processed_at"
	reconcileRetryCountColumn  = "retry_count"
)

type ReconcileRepo struct {
	*postgres.Postgres
}

func NewReconcileRepo(pg *postgres.Postgres) *ReconcileRepo {
	return &ReconcileRepo{pg}
}

func (r *ReconcileRepo) Create(ctx context.Context, event *entity.ReconcileEvent) error {
	sql, args, err := r.Builder.
		Insert(reconcileTable).
		Columns(
			reconcileIDColumn,
			reconcileFrameKeyColumn,
			reconcilePayloadColumn,
			reconcileStatusColumn,
			reconcileLastErrorColumn,
			reconcileCreatedAtColumn,
			reconcileRetryCountColumn,
		).
		Values(
			event.ID,
			event.FrameKey,
			event.Payload,
			event.Status,
			event.LastError,
			event.CreatedAt,
			event.RetryCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("ReconcileRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ReconcileRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

// GetPendingEvents locks the returned rows when called inside a transaction,
// so concurrent relays never pick the same event.
func (r *ReconcileRepo) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.ReconcileEvent, error) {
	sql, args, err := r.Builder.
		Select(
			reconcileIDColumn,
			reconcileFrameKeyColumn,
			reconcilePayloadColumn,
			reconcileStatusColumn,
			reconcileLastErrorColumn,
			reconcileCreatedAtColumn,
			reconcileProcessedAtColumn,
			reconcileRetryCountColumn,
		).
		From(reconcileTable).
		Where(squirrel.And{
			squirrel.Eq{reconcileStatusColumn: string(entity.Pending)},
			squirrel.Lt{reconcileRetryCountColumn: maxRetries},
		}).
		OrderBy(reconcileCreatedAtColumn + " ASC").
		Limit(uint64(limit)). //nolint:gosec // limit comes from config
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ReconcileRepo - GetPendingEvents - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ReconcileRepo - GetPendingEvents - executor.Query: %w", err)
	}
	defer rows.Close()

	events := make([]*entity.ReconcileEvent, 0, limit)
	for rows.Next() {
		var (
			event  entity.ReconcileEvent
			status string
		)
		err = rows.Scan(
			&event.ID,
			&event.FrameKey,
			&event.Payload,
			&status,
			&event.LastError,
			&event.CreatedAt,
			&event.ProcessedAt,
			&event.RetryCount,
		)
		if err != nil {
			return nil, fmt.Errorf("ReconcileRepo - GetPendingEvents - rows.Scan: %w", err)
		}
		event.Status = entity.Status(status)
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReconcileRepo - GetPendingEvents - rows.Err: %w", err)
	}

	return events, nil
}

func (r *ReconcileRepo) MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error {
	return r.setStatusBatch(ctx, "MarkAsProcessingBatch", IDs, entity.Processing)
}

func (r *ReconcileRepo) MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error {
	return r.setStatusBatch(ctx, "MarkAsProcessedBatch", IDs, entity.Processed)
}

func (r *ReconcileRepo) setStatusBatch(ctx context.Context, op string, IDs uuid.UUIDs, status entity.Status) error {
	sql, args, err := r.Builder.
		Update(reconcileTable).
		Set(reconcileStatusColumn, string(status)).
		Set(reconcileProcessedAtColumn, time.Now()).
		Where(squirrel.Eq{reconcileIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ReconcileRepo - %s - r.Builder.ToSql: %w", op, err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ReconcileRepo - %s - executor.Exec: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ReconcileRepo - %s: %w", op, errs.ErrRecordNotFound)
	}

	return nil
}

// IncrementRetryCountBatch returns the events to pending with one more
// failed attempt recorded.
func (r *ReconcileRepo) IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs, lastError string) error {
	sql, args, err := r.Builder.
		Update(reconcileTable).
		Set(reconcileRetryCountColumn, squirrel.Expr(reconcileRetryCountColumn+" + 1")).
		Set(reconcileStatusColumn, string(entity.Pending)).
		Set(reconcileLastErrorColumn, lastError).
		Where(squirrel.Eq{reconcileIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ReconcileRepo - IncrementRetryCountBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ReconcileRepo - IncrementRetryCountBatch - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ReconcileRepo - IncrementRetryCountBatch: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ReconcileRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (int64, error) {
	sql, args, err := r.Builder.
		Update(reconcileTable).
		Set(reconcileStatusColumn, string(entity.Failed)).
		Where(squirrel.And{
			squirrel.Eq{reconcileStatusColumn: string(entity.Pending)},
			squirrel.GtOrEq{reconcileRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ReconcileRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("ReconcileRepo - MarkMaxRetriesAsFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ReleaseStaleProcessing returns to pending the events claimed before
// olderThan whose relay never reported back.
func (r *ReconcileRepo) ReleaseStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Update(reconcileTable).
		Set(reconcileStatusColumn, string(entity.Pending)).
		Where(squirrel.And{
			squirrel.Eq{reconcileStatusColumn: string(entity.Processing)},
			squirrel.Lt{reconcileProcessedAtColumn: olderThan},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ReconcileRepo - ReleaseStaleProcessing - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("ReconcileRepo - ReleaseStaleProcessing - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *ReconcileRepo) DeleteOldProcessedAndFailed(ctx context.Context, olderThan time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Delete(reconcileTable).
		Where(squirrel.And{
			squirrel.Eq{reconcileStatusColumn: entity.SettledStatuses()},
			squirrel.Lt{reconcileCreatedAtColumn: olderThan},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ReconcileRepo - DeleteOldProcessedAndFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("ReconcileRepo - DeleteOldProcessedAndFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
