// Package metrics holds the Prometheus collectors exported by the SDK.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Fetch metrics
	FetchRequests *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Deploy receipt polling
	ReceiptPolls prometheus.Counter

	// Listener loops
	ListenerReconnects   *prometheus.CounterVec
	ListenerReadFailures *prometheus.CounterVec
	ListenerRunning      prometheus.Gauge
	ListenerDispatched   *prometheus.CounterVec
}

// New registers the collectors on the default registerer.
func New() *Metrics {
	return NewWithRegistry(nil)
}

// NewWithRegistry registers the collectors on registry, or on the default
// registerer when registry is nil.
func NewWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bcos_fetch_requests_total",
			Help: "JSON-RPC requests sent to the node",
		}, []string{"transport", "method", "outcome"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bcos_fetch_duration_seconds",
			Help:    "Round trip time of JSON-RPC requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"transport", "method"}),
		ReceiptPolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "bcos_deploy_receipt_polls_total",
			Help: "getTransactionReceipt polls issued while waiting for a deployment",
		}),
		ListenerReconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bcos_listener_reconnects_total",
			Help: "Sessions reopened by notification listeners",
		}, []string{"kind"}),
		ListenerReadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bcos_listener_read_failures_total",
			Help: "Failed framed reads in notification listeners",
		}, []string{"kind", "class"}),
		ListenerRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bcos_listener_running",
			Help: "Notification loops currently running",
		}),
		ListenerDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bcos_listener_dispatched_total",
			Help: "Notifications dispatched to callbacks",
		}, []string{"kind"}),
	}
}

// ObserveFetch records one request outcome and its latency.
func (m *Metrics) ObserveFetch(transport, method string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchRequests.WithLabelValues(transport, method, outcome).Inc()
	m.FetchDuration.WithLabelValues(transport, method).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveReceiptPoll() {
	if m == nil {
		return
	}
	m.ReceiptPolls.Inc()
}

func (m *Metrics) ObserveReconnect(kind string) {
	if m == nil {
		return
	}
	m.ListenerReconnects.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveReadFailure(kind, class string) {
	if m == nil {
		return
	}
	m.ListenerReadFailures.WithLabelValues(kind, class).Inc()
}

func (m *Metrics) ObserveDispatch(kind string) {
	if m == nil {
		return
	}
	m.ListenerDispatched.WithLabelValues(kind).Inc()
}

// LoopStarted and LoopStopped track the running gauge.
func (m *Metrics) LoopStarted() {
	if m == nil {
		return
	}
	m.ListenerRunning.Inc()
}

func (m *Metrics) LoopStopped() {
	if m == nil {
		return
	}
	m.ListenerRunning.Dec()
}
