// Package metrics exposes Prometheus collectors for the reward workflow
// and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rewards counts crediting outcomes. It satisfies app.RewardObserver.
type Rewards struct {
	credits    prometheus.Counter
	points     prometheus.Counter
	duplicates prometheus.Counter
	conflicts  prometheus.Counter
}

func NewRewards(reg prometheus.Registerer) *Rewards {
	r := &Rewards{
		credits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_completions_credited_total",
			Help: "Quiz completions credited to a member wallet.",
		}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_points_credited_total",
			Help: "Points credited to member wallets.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_completions_duplicate_total",
			Help: "Submissions for quizzes the member had already completed.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "member_update_conflicts_total",
			Help: "Member updates retried after a concurrent modification.",
		}),
	}
	reg.MustRegister(r.credits, r.points, r.duplicates, r.conflicts)
	return r
}

func (r *Rewards) Credited(points int) {
	r.credits.Inc()
	r.points.Add(float64(points))
}

func (r *Rewards) Duplicate() { r.duplicates.Inc() }

func (r *Rewards) Conflict() { r.conflicts.Inc() }

// HTTP records request counts and latencies per route pattern.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	h := &HTTP{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(h.requests, h.duration)
	return h
}

// Middleware must be mounted on a chi router so the route pattern is known.
func (h *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		h.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
