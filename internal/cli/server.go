package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"learnearnzone-service/internal/app"
	"learnearnzone-service/internal/auth"
	"learnearnzone-service/internal/config"
	"learnearnzone-service/internal/infra/rabbitmq"
	"learnearnzone-service/internal/logging"
	"learnearnzone-service/internal/metrics"
	transport "learnearnzone-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the reward API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	if cfg.Auth.Secret == "" {
		return errors.New("auth secret not configured")
	}
	sessions := auth.NewSessions(cfg.Auth.Secret, cfg.Auth.CookieName,
		config.TTLDuration(cfg.Auth.TTL, auth.DefaultTTL), cfg.Auth.SecureCookie)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTP(registry)

	feed := app.NewWalletFeed()
	completions := app.NewCompletionService(st.quizzes, st.members,
		app.WithEventPublisher(publisher),
		app.WithObserver(metrics.NewRewards(registry)),
		app.WithWalletFeed(feed),
		app.WithLogger(logger),
		app.WithMaxAttempts(cfg.Members.MaxCreditAttempts),
	)

	handler := transport.NewRouter(transport.Deps{
		Completions: completions,
		Catalog:     app.NewCatalogService(st.members, st.blogs),
		Accounts:    app.NewAccountService(st.members),
		Feed:        feed,
		Sessions:    sessions,
		Logger:      logger,
		AppURL:      cfg.Server.AppURL,
		Middleware:  []func(http.Handler) http.Handler{httpMetrics.Middleware},
		Metrics:     metrics.Handler(registry),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting reward service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
