package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/docbook-api/internal/config"
	"github.com/jwalitptl/docbook-api/internal/email"
	"github.com/jwalitptl/docbook-api/internal/repository/postgres"
	"github.com/jwalitptl/docbook-api/internal/service/notification"
	"github.com/jwalitptl/docbook-api/internal/worker"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/messaging/redis"
	"github.com/jwalitptl/docbook-api/pkg/metrics"
	pkgworker "github.com/jwalitptl/docbook-api/pkg/worker"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// opsServer exposes metrics and health checks next to the workers.
func opsServer(port int, reg *prometheus.Registry, deps map[string]pinger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, dep := range deps {
			if err := dep.PingContext(ctx); err != nil {
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	lg := logger.Setup(cfg.Log.ToLoggerConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, postgres.DBConfig{
		DSN:          cfg.Database.DSN(),
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("docbook_worker", reg)

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	userRepo := postgres.NewUserRepository(base)
	tokenRepo := postgres.NewTokenRepository(base)

	var sender email.Sender = email.LogSender{}
	if cfg.Mail.Enabled {
		sender = email.NewSMTPSender(cfg.Mail.ToMailConfig())
	}

	processor := pkgworker.NewOutboxProcessor(outboxRepo, &base, broker, cfg.Outbox.ToWorkerConfig(), lg, m)
	cleanup := worker.NewCleanupWorker(outboxRepo, tokenRepo, cfg.Outbox.ToCleanupConfig(), lg, m)
	mailer := notification.NewMailer(broker, userRepo, sender, lg, m)

	ops := opsServer(cfg.Server.MetricsPort, reg, map[string]pinger{
		"database": db,
		"redis":    pingFunc(broker.Ping),
	})
	go func() {
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server failed")
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := mailer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("mailer stopped")
			stop()
		}
	}()

	log.Info().Int("metrics_port", cfg.Server.MetricsPort).Msg("worker started")
	<-ctx.Done()
	log.Info().Msg("shutting down...")

	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}
}
