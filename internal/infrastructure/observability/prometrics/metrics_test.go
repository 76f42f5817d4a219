package prometrics

import (
	"strings"
	"testing"

	"github.com/Zhima-Mochi/delegate-expiry/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWith(reg, "delegate_expiry", "")

	c1 := r.Counter("delegate_notifications_total", "Delegate notifications.", "event", "outcome")
	c2 := r.Counter("delegate_notifications_total", "Delegate notifications.", "event", "outcome")

	c1.Add(1, observability.L("event", "heartbeat"), observability.L("outcome", "handled"))
	c2.Bind(observability.L("event", "heartbeat"), observability.L("outcome", "handled")).Add(2)

	expected := `
# HELP delegate_expiry_delegate_notifications_total Delegate notifications.
# TYPE delegate_expiry_delegate_notifications_total counter
delegate_expiry_delegate_notifications_total{event="heartbeat",outcome="handled"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "delegate_expiry_delegate_notifications_total"))
}

func TestHistogramDefaultsBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWith(reg, "", "")

	h := r.Histogram("delegate_dispatch_duration_seconds", "Dispatch latency.", nil, "event")
	h.Observe(0.01, observability.L("event", "heartbeat"))
	h.Bind(observability.L("event", "other")).Observe(0.2)

	n, err := testutil.GatherAndCount(reg, "delegate_dispatch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
