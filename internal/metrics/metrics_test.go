package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndGauges(t *testing.T) {
	m := New()

	m.MessageReceived("a")
	m.MessageReceived("a")
	m.MalformedPayload("a")
	m.SkippedRecords("inbound", 3)
	m.SkippedRecords("inbound", 0)
	m.Published("a", true)
	m.PublishFailed("a")
	m.ActionTimedOut()
	m.SetConnection(2)
	m.SetCollectionSize("rates", 7)
	m.SetPending(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.malformed.WithLabelValues("a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.skipped.WithLabelValues("inbound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("a", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishErrors.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionTimeouts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.connection))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.collectionSize.WithLabelValues("rates")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pending))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MessageReceived("a")
		m.Published("a", false)
		m.SetConnection(1)
		m.SetWebsocketClients(3)
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.SetCollectionSize("inbound", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `eckcosting_collection_size{collection="inbound"} 2`))
}
