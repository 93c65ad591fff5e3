package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/askaruly/shop-auth/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth metrics

	CodesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "codes_issued_total",
		Help:      "Total verification codes issued.",
	})

	ConfirmTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "confirm_total",
		Help:      "Total code confirmation attempts, by outcome.",
	}, []string{"outcome"})

	SMSSendFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "sms_send_failures_total",
		Help:      "Verification SMS dispatches that failed. The code stays valid.",
	})

	StaleTokensSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "stale_tokens_swept_total",
		Help:      "Active tokens force-expired by the background sweeper.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "auth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		CodesIssuedTotal,
		ConfirmTotal,
		SMSSendFailuresTotal,
		StaleTokensSweptTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
