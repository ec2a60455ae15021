package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerCountsFailures(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("reports:warmup").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("reports:warmup").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:warmup", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("reports:warmup")))
}

func TestSetLowStock(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetLowStock("s1", 7)
	m.SetLowStock("s1", 3)
	require.Equal(t, 3.0, testutil.ToFloat64(m.lowStock.WithLabelValues("s1")))

	var nilMetrics *Metrics
	nilMetrics.SetLowStock("s1", 1)
	require.NoError(t, nilMetrics.Track("x").End(nil))
}
