package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/livestore/pkg/host"
	"github.com/vango-dev/livestore/pkg/livestore"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	require.NotNil(t, m.Counter)
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	require.NotNil(t, m.Gauge)
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	require.NotNil(t, m.Histogram)
	return m.GetHistogram().GetSampleCount()
}

func TestRecorderMethods(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()))

	c.SubscriptionOpened()
	c.SubscriptionOpened()
	c.SubscriptionClosed()
	assert.Equal(t, 1.0, gaugeValue(t, c.subscriptionsActive))
	assert.Equal(t, 2.0, counterValue(t, c.subscriptionsTotal))

	c.BatchDelivered(3, 1, time.Millisecond)
	c.BatchDelivered(5, 0, time.Millisecond)
	assert.Equal(t, 1.0, counterValue(t, c.batchesTotal))
	assert.Equal(t, 3.0, counterValue(t, c.changesTotal))
	assert.Equal(t, uint64(1), histogramCount(t, c.deliveryDuration))

	c.RevisionBumped()
	assert.Equal(t, 1.0, counterValue(t, c.revisionsTotal))

	c.TaskCompleted(time.Millisecond, false)
	c.TaskCompleted(time.Millisecond, true)
	c.TaskDropped()
	assert.Equal(t, 1.0, counterValue(t, c.tasksTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, counterValue(t, c.tasksTotal.WithLabelValues("panic")))
	assert.Equal(t, uint64(2), histogramCount(t, c.taskDuration))
	assert.Equal(t, 1.0, counterValue(t, c.tasksDropped))

	c.ComponentRendered(time.Millisecond)
	assert.Equal(t, 1.0, counterValue(t, c.rendersTotal))
	assert.Equal(t, uint64(1), histogramCount(t, c.renderDuration))
}

func TestNamespaceAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("store"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.1, 1}),
	)
	c.RevisionBumped()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "app_store_revisions_total" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.GetMetric(), 1)
	labels := found.GetMetric()[0].GetLabel()
	require.Len(t, labels, 1)
	assert.Equal(t, "env", labels[0].GetName())
	assert.Equal(t, "test", labels[0].GetValue())
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))
	assert.Panics(t, func() { New(WithRegistry(reg)) })
}

func TestHandlerServesRegistry(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()))
	c.RevisionBumped()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "livestore_revisions_total 1"))
}

func TestCollectorWiredThroughStoreAndHost(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()))
	h := host.New(&host.Config{
		Recorder: c,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer h.Close()

	s, err := livestore.New(map[string]any{"a": 1},
		livestore.WithScheduler(h),
		livestore.WithRecorder(c))
	require.NoError(t, err)

	ci := h.Mount(host.FuncComponent(func() string {
		return livestore.UseStore(s).String()
	}))
	require.NoError(t, s.Value().Set("a", 2))
	h.Drain()

	assert.Equal(t, `{"a":2}`, ci.Output())
	assert.Equal(t, 1.0, gaugeValue(t, c.subscriptionsActive))
	assert.Equal(t, 1.0, counterValue(t, c.batchesTotal))
	assert.Equal(t, 1.0, counterValue(t, c.revisionsTotal))
	assert.Equal(t, 1.0, counterValue(t, c.tasksTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, counterValue(t, c.rendersTotal))

	h.Unmount(ci)
	assert.Zero(t, gaugeValue(t, c.subscriptionsActive))
}
