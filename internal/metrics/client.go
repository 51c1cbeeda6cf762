package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CodeError labels requests that never produced an HTTP response.
const CodeError = "error"

// ClientMetrics holds the collectors for outgoing document API requests.
type ClientMetrics struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewClientMetrics creates the collectors and registers them with reg.
func NewClientMetrics(reg prometheus.Registerer) (*ClientMetrics, error) {
	m := &ClientMetrics{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docclient_requests_total",
				Help: "Total number of document API requests issued.",
			},
			[]string{"operation", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docclient_request_duration_seconds",
				Help:    "Latency of document API requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	for _, c := range []prometheus.Collector{m.requestCount, m.requestDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one request. A zero status means the transport failed.
// Calling Observe on a nil *ClientMetrics is a no-op.
func (m *ClientMetrics) Observe(operation string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := CodeError
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requestCount.WithLabelValues(operation, code).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}
