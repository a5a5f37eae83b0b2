package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/layer-3/nftgate/ports"
)

const namespace = "nftgate"

// Recorder collects service metrics on a private registry
type Recorder struct {
	registry      *prometheus.Registry
	rpcAttempts   *prometheus.CounterVec
	rateLimits    *prometheus.CounterVec
	payments      *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

var _ ports.Metrics = (*Recorder)(nil)

// NewRecorder registers all collectors
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rpcAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_attempts_total",
			Help:      "Balance queries per chain by outcome.",
		}, []string{"chain", "outcome"}),
		rateLimits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limit decisions per profile.",
		}, []string{"profile", "decision"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment verifications by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	r.registry.MustRegister(r.rpcAttempts, r.rateLimits, r.payments, r.httpRequests, r.httpDurations)
	return r
}

func (r *Recorder) RPCAttempt(chain, outcome string) {
	r.rpcAttempts.WithLabelValues(chain, outcome).Inc()
}

func (r *Recorder) RateLimitDecision(profile string, allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	r.rateLimits.WithLabelValues(profile, decision).Inc()
}

func (r *Recorder) PaymentVerification(outcome string) {
	r.payments.WithLabelValues(outcome).Inc()
}

// HTTPRequest records one served request
func (r *Recorder) HTTPRequest(route, method string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDurations.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
