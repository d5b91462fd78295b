package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Transition("Completed")
	m.Transition("Completed")
	m.Rejection("create", "insufficient_balance")
	m.Observe("create", 15*time.Millisecond)
	m.Notification("transaction.pending", "delivered")
	m.SetSubscribers(3)

	count, err := testutil.GatherAndCount(reg, "benefits_transaction_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP benefits_transaction_transitions_total Transaction status changes by resulting status
# TYPE benefits_transaction_transitions_total counter
benefits_transaction_transitions_total{status="Completed"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "benefits_transaction_transitions_total"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.Transition("Pending")
		m.Rejection("approve", "invalid_state")
		m.Observe("approve", time.Second)
		m.Notification("transaction.approved", "dropped")
		m.SetSubscribers(1)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).SetSubscribers(2)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "benefits_notification_subscribers 2")
}
