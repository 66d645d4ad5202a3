package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAttempt("success")
	m.ObserveAttempt("success")
	m.ObserveAttempt("failed")
	m.ObserveDispatch("partial_success", 250*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Attempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("partial_success")))

	m.ObserveRequest("/api/clients/{id}", 404)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/clients/{id}", "404")))
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "duplicate registration must be rejected")
}
