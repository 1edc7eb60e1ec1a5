package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		},
		[]string{"method", "endpoint"},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confessions_submissions_total",
			Help: "Confession submissions by outcome",
		},
		[]string{"outcome"},
	)

	publishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "confessions_publish_duration_seconds",
			Help:    "Time spent rendering and publishing a confession",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 20, 25, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, submissionsTotal, publishDuration)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// GetPublishDuration returns the render+publish latency histogram for the confession service
func GetPublishDuration() prometheus.Histogram {
	return publishDuration
}

func recordSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"http_requests_total":                  "Counter for HTTP requests by method, endpoint, status",
			"http_request_duration":                "Histogram for HTTP request duration by method, endpoint",
			"confessions_submissions_total":        "Counter for submissions by outcome",
			"confessions_publish_duration_seconds": "Histogram for render+publish latency",
			"metrics_endpoint":                     "/metrics",
		}).Debug("Available Prometheus metrics")
	}
}

func (s *Server) metricsEndpoint(c echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
