package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "frame_ingest"

// Upload and dispatch outcomes.
const (
	UploadStored      = "stored"
	UploadBadRequest  = "bad_request"
	UploadStoreFailed = "store_failed"

	DispatchAcked   = "acked"
	DispatchRetried = "retried"
)

// Prometheus is safe to use as a nil pointer; every method is then a no-op.
type Prometheus struct {
	uploads          *prometheus.CounterVec
	enqueue          *prometheus.CounterVec
	dispatch         *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	uploads, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Frame uploads by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, fmt.Errorf("metrics - New - uploads: %w", err)
	}

	enqueue, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enqueue_total",
		Help:      "Frame job publish attempts by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, fmt.Errorf("metrics - New - enqueue: %w", err)
	}

	dispatch, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Frame jobs forwarded to the processor by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, fmt.Errorf("metrics - New - dispatch: %w", err)
	}

	dispatchDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Time spent forwarding one frame job.",
		Buckets:   prometheus.DefBuckets,
	}))
	if err != nil {
		return nil, fmt.Errorf("metrics - New - dispatchDuration: %w", err)
	}

	m := &Prometheus{
		uploads:          uploads,
		enqueue:          enqueue,
		dispatch:         dispatch,
		dispatchDuration: dispatchDuration,
	}

	return m, nil
}

func (m *Prometheus) ObserveUpload(result string) {
	if m == nil {
		return
	}

	m.uploads.WithLabelValues(result).Inc()
}

func (m *Prometheus) ObserveEnqueue(outcome entity.PublishOutcome) {
	if m == nil {
		return
	}

	m.enqueue.WithLabelValues(outcome.String()).Inc()
}

func (m *Prometheus) ObserveDispatch(outcome string, took time.Duration) {
	if m == nil {
		return
	}

	m.dispatch.WithLabelValues(outcome).Inc()
	m.dispatchDuration.Observe(took.Seconds())
}

// register returns the already registered collector when reg has one with
// the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	return c, err
}
