package frame

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/dto"
	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure/metrics"
	"github.com/andreyxaxa/Frame-Ingest/internal/repo"
	"github.com/andreyxaxa/Frame-Ingest/internal/usecase"
	"github.com/andreyxaxa/Frame-Ingest/pkg/framekey"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
)

type FrameUseCase struct {
	frameRepo  repo.FrameRepo
	publisher  infrastructure.JobPublisher
	reconciler usecase.Reconciler
	keys       *framekey.Scheme
	metrics    infrastructure.Metrics

	logger logger.Interface
	now    func() time.Time
}

func New(
	frameRepo repo.FrameRepo,
	publisher infrastructure.JobPublisher,
	reconciler usecase.Reconciler,
	keys *framekey.Scheme,
	m infrastructure.Metrics,
	l logger.Interface,
) *FrameUseCase {
	return &FrameUseCase{
		frameRepo:  frameRepo,
		publisher:  publisher,
		reconciler: reconciler,
		keys:       keys,
		metrics:    m,
		logger:     l,
		now:        time.Now,
	}
}

// Ingest stores the frame and then enqueues a job for it. A failed enqueue
// does not fail the upload: it is reported on the result and recorded for
// reconciliation.
func (uc *FrameUseCase) Ingest(ctx context.Context, in dto.FrameUpload) (*entity.Upload, error) {
	if in.Size == 0 {
		uc.metrics.ObserveUpload(metrics.UploadBadRequest)
		return nil, fmt.Errorf("FrameUseCase - Ingest: %w", errs.ErrEmptyFrame)
	}

	now := uc.now()
	filename := framekey.Filename(in.Filename, now)
	contentType := ResolveContentType(in.ContentType, filename)

	var key string
	if in.Multipart {
		key = uc.keys.Key(now, filename)
	} else {
		key = uc.keys.DisambiguatedKey(now, filename)
	}

	// 1. object must be durable before anyone is told about it
	err := uc.frameRepo.Put(ctx, key, in.Data, contentType, in.Size)
	if err != nil {
		uc.metrics.ObserveUpload(metrics.UploadStoreFailed)
		return nil, fmt.Errorf("FrameUseCase - Ingest - uc.frameRepo.Put: %w", err)
	}
	uc.metrics.ObserveUpload(metrics.UploadStored)

	job := entity.FrameJob{
		Key:         key,
		LotID:       entity.LotID(in.LotID).OrDefault(),
		UploadedAt:  now.UnixMilli(),
		ContentType: contentType,
	}

	// 2. enqueue
	res := uc.publisher.Publish(ctx, job)
	uc.metrics.ObserveEnqueue(res.Outcome)

	if !res.Enqueued() {
		uc.logger.Warn("FrameUseCase - Ingest - enqueue %s for %s: %v", res.Outcome, key, res.Err)

		recErr := uc.reconciler.Record(ctx, job, res.Err)
		if recErr != nil {
			uc.logger.Error(recErr, "FrameUseCase - Ingest - uc.reconciler.Record")
		}
	}

	return &entity.Upload{
		Key:         key,
		ContentType: contentType,
		LotID:       string(job.LotID),
		UploadedAt:  now,
		Publish:     res,
	}, nil
}

func (uc *FrameUseCase) GetFrame(ctx context.Context, key string) (*entity.FrameObject, error) {
	if key == "" {
		return nil, fmt.Errorf("FrameUseCase - GetFrame: %w", errs.ErrFrameNotFound)
	}

	obj, err := uc.frameRepo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("FrameUseCase - GetFrame - uc.frameRepo.Get: %w", err)
	}

	return obj, nil
}

func (uc *FrameUseCase) ListDays(ctx context.Context) ([]string, error) {
	prefixes, err := uc.frameRepo.ListPrefixes(ctx, uc.keys.RootPrefix(), uc.keys.Delimiter())
	if err != nil {
		return nil, fmt.Errorf("FrameUseCase - ListDays - uc.frameRepo.ListPrefixes: %w", err)
	}

	days := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		days = append(days, uc.keys.BucketFromPrefix(p))
	}

	return days, nil
}

func (uc *FrameUseCase) ListFrames(ctx context.Context, day string) ([]entity.FrameInfo, error) {
	if day == "" || strings.Contains(day, uc.keys.Delimiter()) {
		return nil, fmt.Errorf("FrameUseCase - ListFrames: %q: %w", day, errs.ErrInvalidDay)
	}

	frames, err := uc.frameRepo.List(ctx, uc.keys.DayPrefix(day))
	if err != nil {
		return nil, fmt.Errorf("FrameUseCase - ListFrames - uc.frameRepo.List: %w", err)
	}

	return frames, nil
}
