package observability

import (
	"testing"

	"github.com/Zhima-Mochi/delegate-expiry/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFillsDefaults(t *testing.T) {
	p := New(nil, nil, nil, nil)

	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Logger())
	assert.NotPanics(t, func() {
		p.Metrics().Counter(observability.MDelegateNotifications).Add(1)
		p.Metrics().Histogram(observability.MDispatchDuration).Observe(1)
	})
}

func TestInstrumentsAreReachableByKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Instruments(prometrics.NewWith(reg, "", ""))
	p := New(nil, nil, counters, histograms)

	p.Metrics().Counter(observability.MSubscriptionsPruned).Add(2, observability.L("event", "heartbeat"))
	p.Metrics().Counter("unknown").Add(1)

	n, err := testutil.GatherAndCount(reg, string(observability.MSubscriptionsPruned))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
