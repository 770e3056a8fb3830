package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_chat_requests_total",
			Help: "Chat generations by outcome",
		},
		[]string{"outcome"},
	)

	ChatDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_chat_duration_seconds",
			Help:    "Time to produce a chat reply, retries included",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"transport"},
	)

	UpstreamAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_upstream_attempts_total",
			Help: "Calls to the inference backend by outcome: ok, HTTP status, or error kind",
		},
		[]string{"transport", "status"},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_store_errors_total",
			Help: "Content store failures by operation and collection",
		},
		[]string{"op", "collection"},
	)

	ContactMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_contact_messages_total",
			Help: "Contact form submissions stored",
		},
	)

	WidgetSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_widget_sessions",
			Help: "Chat widget sessions currently connected",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ChatRequests)
		prometheus.MustRegister(ChatDuration)
		prometheus.MustRegister(UpstreamAttempts)
		prometheus.MustRegister(StoreErrors)
		prometheus.MustRegister(ContactMessages)
		prometheus.MustRegister(WidgetSessions)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
