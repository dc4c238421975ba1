package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure/metrics"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of dispatching one message of a batch. Err is nil
// when the message was acked.
type Outcome struct {
	Key string
	Err error
}

type Dispatcher struct {
	receiver  infrastructure.JobReceiver
	processor infrastructure.FrameProcessor
	metrics   infrastructure.Metrics
	logger    logger.Interface

	processTimeout time.Duration
	commitTimeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	r infrastructure.JobReceiver,
	p infrastructure.FrameProcessor,
	m infrastructure.Metrics,
	l logger.Interface,
	processTimeout time.Duration,
	commitTimeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		receiver:       r,
		processor:      p,
		metrics:        m,
		logger:         l,
		processTimeout: processTimeout,
		commitTimeout:  commitTimeout,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Dispatcher - Start - dispatcher already started")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		for {
			select {
			case <-d.ctx.Done():
				return
			default:
				// 1. wait for a batch
				batch, err := d.receiver.ReceiveBatch(d.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						d.logger.Error(err, "Dispatcher - Start - d.receiver.ReceiveBatch")
					}
					continue
				}

				// 2. dispatch, then commit what was resolved
				d.HandleBatch(d.ctx, batch)

				commitCtx, commitCancel := context.WithTimeout(context.WithoutCancel(d.ctx), d.commitTimeout)
				err = batch.Settle(commitCtx)
				commitCancel()
				if err != nil {
					d.logger.Error(err, "Dispatcher - Start - batch.Settle")
				}
			}
		}
	}()

	return nil
}

// HandleBatch dispatches every message of the batch concurrently and waits
// for all of them. Outcomes are in message order.
func (d *Dispatcher) HandleBatch(ctx context.Context, batch infrastructure.Batch) []Outcome {
	msgs := batch.Messages()
	outcomes := make([]Outcome, len(msgs))

	var g errgroup.Group

	for i, msg := range msgs {
		g.Go(func() error {
			outcomes[i] = d.handle(ctx, msg)

			return nil
		})
	}

	_ = g.Wait()

	return outcomes
}

func (d *Dispatcher) handle(ctx context.Context, msg infrastructure.Message) (out Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("Dispatcher - handle - panic: %v", r)
			d.logger.Error(out.Err, "Dispatcher - handle - panic")
			d.retry(ctx, msg, out.Key)
		}

		if out.Err != nil {
			d.metrics.ObserveDispatch(metrics.DispatchRetried, time.Since(start))
		} else {
			d.metrics.ObserveDispatch(metrics.DispatchAcked, time.Since(start))
		}
	}()

	out.Err = d.dispatch(ctx, msg, &out.Key)
	if out.Err != nil {
		d.logger.Warn("Dispatcher - handle - key=%s: %v", out.Key, out.Err)
		d.retry(ctx, msg, out.Key)

		return out
	}

	err := msg.Ack(ctx)
	if err != nil {
		d.logger.Error(err, "Dispatcher - handle - msg.Ack")
	}

	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, msg infrastructure.Message, key *string) error {
	job, err := decodeJob(msg.Body())
	if err != nil {
		return fmt.Errorf("Dispatcher - dispatch - decodeJob: %w", err)
	}
	*key = job.Key

	processCtx, processCancel := context.WithTimeout(ctx, d.processTimeout)
	defer processCancel()

	err = d.processor.Dispatch(processCtx, string(job.LotID), job.Key)
	if err != nil {
		return fmt.Errorf("Dispatcher - dispatch - d.processor.Dispatch: %w", err)
	}

	return nil
}

func (d *Dispatcher) retry(ctx context.Context, msg infrastructure.Message, key string) {
	err := msg.Retry(ctx)
	if err != nil {
		d.logger.Error(err, "Dispatcher - retry - msg.Retry key=%s", key)
	}
}

func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if !d.started.Load() {
		return nil
	}

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})

	go func() {
		d.wg.Wait()
		close(done)
	}()

	var err error

	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("Dispatcher - Shutdown: %w", ctx.Err())
	}

	closeErr := d.receiver.Close()
	if closeErr != nil {
		err = errors.Join(err, fmt.Errorf("Dispatcher - Shutdown - d.receiver.Close: %w", closeErr))
	}

	return err
}
