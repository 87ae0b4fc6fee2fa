// checkout-gateway/pkg/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// "service" label keeps the api and the worker comparable in one query
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "requests_total",
			Help:      "Total requests and orchestration steps per service",
		},
		[]string{"service", "status", "method"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "checkout",
			Name:      "request_duration_seconds",
			Help:      "Request duration per service",
			// gateway round trips sit around a few hundred ms
			Buckets: []float64{
				0.01, 0.02, 0.03, 0.05, 0.08, 0.12,
				0.2, 0.3, 0.5, 0.8, 1.2, 2, 3, 5, 8,
			},
		},
		[]string{"service", "status"},
	)

	ConversionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "conversion_events_total",
			Help:      "Conversion events sent to the ads platform by result",
		},
		[]string{"result"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "webhook_events_total",
			Help:      "Gateway notifications received by event type",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, RequestDuration, ConversionEventsTotal, WebhookEventsTotal)
}

func IncRequest(service, status, method string) {
	RequestsTotal.WithLabelValues(service, status, method).Inc()
}

func ObserveDuration(service, status string, seconds float64) {
	RequestDuration.WithLabelValues(service, status).Observe(seconds)
}

func IncConversion(result string) {
	ConversionEventsTotal.WithLabelValues(result).Inc()
}

func IncWebhook(event string) {
	WebhookEventsTotal.WithLabelValues(event).Inc()
}

// Step records one orchestration step outcome.
func Step(service, step string, err error) {
	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
	}
	IncRequest(service, status, step)
}
