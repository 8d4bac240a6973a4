package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"learnearnzone-service/internal/app"
	"learnearnzone-service/internal/auth"
)

// Deps are the use cases and collaborators served over HTTP.
type Deps struct {
	Completions *app.CompletionService
	Catalog     *app.CatalogService
	Accounts    *app.AccountService
	Feed        *app.WalletFeed
	Sessions    *auth.Sessions
	Logger      *slog.Logger
	// AppURL is the public site used for verification redirects.
	AppURL string
	// Extra middleware, e.g. metrics, mounted before routing.
	Middleware []func(http.Handler) http.Handler
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// NewRouter wires the public API.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	api := &API{
		completions: d.Completions,
		catalog:     d.Catalog,
		accounts:    d.Accounts,
		sessions:    d.Sessions,
		logger:      d.Logger,
		appURL:      d.AppURL,
	}
	ws := NewWSHandler(d.Feed, d.Accounts, d.Logger)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	for _, mw := range d.Middleware {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.Middleware)
		r.Post("/api/quiz-attempts", api.SubmitQuizAttempt)
		r.Post("/api/get-all-blogs-with-quizzes", api.ListAvailableQuizzes)
		r.Get("/api/members/me", api.GetMe)
		r.Get("/api/auth/verify-email", api.VerifyEmail)
		r.Get("/ws/wallet", ws.ServeWS)
	})
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", w.Header().Get("X-Request-ID"),
			)
		})
	}
}
