package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbound request metrics, shared by both remote-service clients.
var (
	remoteInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "remote_in_flight_requests",
		Help: "In-flight requests to remote services.",
	})

	remoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_requests_total",
			Help: "Total number of requests issued to remote services.",
		},
		[]string{"service", "method", "status"},
	)

	remoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_request_duration_seconds",
			Help:    "Remote request latencies in seconds.",
			Buckets: prometheus.DefBuckets, // [0.005..10]
		},
		[]string{"service", "method", "status"},
	)
)

// Init registers the client metrics in the default registry.
func Init() {
	prometheus.MustRegister(remoteInFlight, remoteRequestsTotal, remoteRequestDuration)
}

// InstrumentTransport wraps an http.RoundTripper so every request to the
// named service is counted and timed. A transport-level failure is recorded
// with status "error".
func InstrumentTransport(service string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		remoteInFlight.Inc()
		start := time.Now()

		resp, err := next.RoundTrip(req)

		duration := time.Since(start).Seconds()
		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		remoteRequestDuration.WithLabelValues(service, req.Method, status).Observe(duration)
		remoteRequestsTotal.WithLabelValues(service, req.Method, status).Inc()
		remoteInFlight.Dec()

		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
