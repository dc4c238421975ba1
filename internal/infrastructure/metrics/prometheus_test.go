package metrics

import (
	"testing"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCounts(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveUpload(UploadStored)
	m.ObserveUpload(UploadStored)
	m.ObserveEnqueue(entity.TransportError)
	m.ObserveDispatch(DispatchAcked, 20*time.Millisecond)

	require.InDelta(t, 2, testutil.ToFloat64(m.uploads.WithLabelValues(UploadStored)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.enqueue.WithLabelValues("transport_error")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.dispatch.WithLabelValues(DispatchAcked)), 0)
	require.Equal(t, 1, testutil.CollectAndCount(m.dispatchDuration))
}

func TestPrometheusRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := New(reg)
	require.NoError(t, err)

	second, err := New(reg)
	require.NoError(t, err)

	second.ObserveUpload(UploadBadRequest)
	require.InDelta(t, 1, testutil.ToFloat64(first.uploads.WithLabelValues(UploadBadRequest)), 0)
}

func TestNilPrometheusIsNoop(t *testing.T) {
	var m *Prometheus

	require.NotPanics(t, func() {
		m.ObserveUpload(UploadStored)
		m.ObserveEnqueue(entity.Published)
		m.ObserveDispatch(DispatchRetried, time.Second)
	})
}
