package fetch

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for outbound HTTP traffic.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrator_http_requests_total",
		Help: "Total outbound HTTP requests by status code",
	}, []string{"status"})

	httpRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hydrator_http_request_duration_seconds",
		Help:    "Outbound HTTP request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hydrator_http_in_flight",
		Help: "Outbound HTTP requests currently in flight",
	})
)

// Transport is an instrumented http.RoundTripper for Data API traffic.
// When APIKey is set it is injected as the key query parameter, which
// keeps service construction free of credential options and lets tests
// point the same client at a local server.
type Transport struct {
	// Base is the underlying round tripper. Nil means http.DefaultTransport.
	Base http.RoundTripper

	// APIKey is added to each request when non-empty.
	APIKey string
}

// NewHTTPClient returns an instrumented HTTP client for upstream calls.
func NewHTTPClient(apiKey string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Transport: &Transport{APIKey: apiKey},
		Timeout:   timeout,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.APIKey != "" {
		// Round trippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		q := req.URL.Query()
		if q.Get("key") == "" {
			q.Set("key", t.APIKey)
			req.URL.RawQuery = q.Encode()
		}
	}

	httpInFlight.Inc()
	defer httpInFlight.Dec()

	start := time.Now()
	resp, err := t.base().RoundTrip(req)
	httpRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		httpRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	httpRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
