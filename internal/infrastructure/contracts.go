package infrastructure

import (
	"context"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
)

type (
	// JobPublisher never fails the caller; the outcome is carried in the result.
	JobPublisher interface {
		Publish(ctx context.Context, job entity.FrameJob) entity.PublishResult
		Close() error
	}

	JobReceiver interface {
		ReceiveBatch(ctx context.Context) (Batch, error)
		Close() error
	}

	// Batch is a group of delivered jobs. Settle must be called once every
	// message has been acked or retried.
	Batch interface {
		Messages() []Message
		Settle(ctx context.Context) error
	}

	Message interface {
		Body() []byte
		Ack(ctx context.Context) error
		Retry(ctx context.Context) error
	}

	FrameProcessor interface {
		Dispatch(ctx context.Context, lotID, key string) error
	}

	SecretProvider interface {
		Secret(ctx context.Context) (string, error)
	}

	Metrics interface {
		ObserveUpload(result string)
		ObserveEnqueue(outcome entity.PublishOutcome)
		ObserveDispatch(outcome string, took time.Duration)
	}
)
