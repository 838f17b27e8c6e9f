package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/chainkit-labs/bcos-sdk/pkg/metrics"
)

func TestObserveFetch(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.ObserveFetch("rpc", "getBlockNumber", time.Now(), nil)
	m.ObserveFetch("rpc", "getBlockNumber", time.Now(), errors.New("boom"))
	m.ObserveFetch("rpc", "getBlockNumber", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("rpc", "getBlockNumber", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("rpc", "getBlockNumber", "error")))
}

func TestListenerGauge(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.LoopStarted()
	m.LoopStarted()
	m.LoopStopped()
	m.ObserveReconnect("block_notify")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListenerRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListenerReconnects.WithLabelValues("block_notify")))
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("channel", "call", time.Now(), nil)
		m.ObserveReceiptPoll()
		m.ObserveReconnect("event_log")
		m.ObserveReadFailure("event_log", "fatal")
		m.ObserveDispatch("event_log")
		m.LoopStarted()
		m.LoopStopped()
	})
}
