// Package metrics exposes prometheus instruments for the sync core. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eckcosting"

// Metrics groups every instrument on its own registry
type Metrics struct {
	registry *prometheus.Registry

	messages       *prometheus.CounterVec
	malformed      *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	published      *prometheus.CounterVec
	publishErrors  *prometheus.CounterVec
	actionTimeouts prometheus.Counter
	connection     prometheus.Gauge
	collectionSize *prometheus.GaugeVec
	pending        prometheus.Gauge
	wsClients      prometheus.Gauge
}

// New creates and registers the instruments, plus Go runtime collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_received_total",
			Help: "Inbound broker messages by topic.",
		}, []string{"topic"}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "malformed_payloads_total",
			Help: "Inbound payloads dropped because they were not valid JSON.",
		}, []string{"topic"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "skipped_records_total",
			Help: "Snapshot records that did not decode into the collection type.",
		}, []string{"collection"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "publishes_total",
			Help: "Outbound publishes by topic and retain flag.",
		}, []string{"topic", "retained"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "publish_errors_total",
			Help: "Outbound publishes that failed.",
		}, []string{"topic"}),
		actionTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "action_timeouts_total",
			Help: "Published actions not confirmed by a snapshot in time.",
		}),
		connection: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "broker_connection_status",
			Help: "0 disconnected, 1 connecting, 2 connected.",
		}),
		collectionSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "collection_size",
			Help: "Current number of records per collection.",
		}, []string{"collection"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pending_actions",
			Help: "Published actions awaiting snapshot confirmation.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "websocket_clients",
			Help: "Connected dashboard websocket clients.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messages, m.malformed, m.skipped, m.published, m.publishErrors,
		m.actionTimeouts, m.connection, m.collectionSize, m.pending, m.wsClients,
	)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) MessageReceived(topic string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(topic).Inc()
}

func (m *Metrics) MalformedPayload(topic string) {
	if m == nil {
		return
	}
	m.malformed.WithLabelValues(topic).Inc()
}

func (m *Metrics) SkippedRecords(collection string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.WithLabelValues(collection).Add(float64(n))
}

func (m *Metrics) Published(topic string, retained bool) {
	if m == nil {
		return
	}
	flag := "false"
	if retained {
		flag = "true"
	}
	m.published.WithLabelValues(topic, flag).Inc()
}

func (m *Metrics) PublishFailed(topic string) {
	if m == nil {
		return
	}
	m.publishErrors.WithLabelValues(topic).Inc()
}

func (m *Metrics) ActionTimedOut() {
	if m == nil {
		return
	}
	m.actionTimeouts.Inc()
}

// SetConnection records the numeric connection status
func (m *Metrics) SetConnection(status int) {
	if m == nil {
		return
	}
	m.connection.Set(float64(status))
}

func (m *Metrics) SetCollectionSize(collection string, n int) {
	if m == nil {
		return
	}
	m.collectionSize.WithLabelValues(collection).Set(float64(n))
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) SetWebsocketClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}
