package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "growen"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Quota metrics
	quotaDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "denials_total",
			Help:      "Requests refused because a plan limit was reached",
		},
		[]string{"feature", "plan"},
	)

	// Payment metrics
	paymentReviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "reviews_total",
			Help:      "Payment proof reviews by decision",
		},
		[]string{"decision"},
	)

	paymentProofsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "proofs_submitted_total",
			Help:      "Payment proofs uploaded by plan",
		},
		[]string{"plan"},
	)

	// Email metrics
	emailJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "jobs_total",
			Help:      "Email delivery attempts by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	// LLM metrics
	llmRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Calls to the AI consultant backend",
		},
		[]string{"provider", "status"},
	)

	llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Duration of AI consultant calls in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)

	// Subscription metrics
	subscriptionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "expired_total",
			Help:      "Paid subscriptions downgraded after expiry",
		},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordQuotaDenial counts a request refused by a plan limit
func RecordQuotaDenial(feature, plan string) {
	quotaDenials.WithLabelValues(feature, plan).Inc()
}

// RecordPaymentReview counts an applied review decision
func RecordPaymentReview(decision string) {
	paymentReviews.WithLabelValues(decision).Inc()
}

// RecordProofSubmitted counts an uploaded proof
func RecordProofSubmitted(plan string) {
	paymentProofsSubmitted.WithLabelValues(plan).Inc()
}

// RecordEmailJob counts a delivery attempt outcome
func RecordEmailJob(kind, status string) {
	emailJobs.WithLabelValues(kind, status).Inc()
}

// RecordLLMRequest records an AI consultant call
func RecordLLMRequest(provider, status string, duration time.Duration) {
	llmRequests.WithLabelValues(provider, status).Inc()
	llmRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordSubscriptionExpired counts a downgrade by the expiry sweep
func RecordSubscriptionExpired() {
	subscriptionsExpired.Inc()
}
