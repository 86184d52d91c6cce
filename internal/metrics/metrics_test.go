package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Subscriptions.WithLabelValues("created").Inc()
	m.RateLimited.WithLabelValues("subscribe", "normal").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscriptions.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("subscribe", "normal")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "newsletter_subscriptions_total")
	assert.Contains(t, names, "newsletter_rate_limited_total")
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
