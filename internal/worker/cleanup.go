package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/metrics"
)

type CleanupConfig struct {
	Interval        time.Duration
	OutboxRetention time.Duration
}

// CleanupWorker prunes published outbox events and expired access tokens.
type CleanupWorker struct {
	outbox  repository.OutboxRepository
	tokens  repository.TokenRepository
	config  CleanupConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCleanupWorker(outbox repository.OutboxRepository, tokens repository.TokenRepository, config CleanupConfig, logger *logger.Logger, metrics *metrics.Metrics) *CleanupWorker {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	return &CleanupWorker{
		outbox:  outbox,
		tokens:  tokens,
		config:  config,
		logger:  logger.With("cleanup"),
		metrics: metrics,
		now:     time.Now,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.logger.Error(err, "cleanup failed")
			}
		}
	}
}

func (w *CleanupWorker) RunOnce(ctx context.Context) error {
	now := w.now()

	pruned, err := w.outbox.DeleteProcessedBefore(ctx, now.Add(-w.config.OutboxRetention))
	if err != nil {
		w.metrics.DatabaseOperations.WithLabelValues("prune_outbox", "error").Inc()
		return fmt.Errorf("failed to prune outbox: %w", err)
	}
	w.metrics.OutboxPruned.Add(float64(pruned))

	expired, err := w.tokens.DeleteExpired(ctx, now)
	if err != nil {
		w.metrics.DatabaseOperations.WithLabelValues("delete_expired_tokens", "error").Inc()
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	if pruned > 0 || expired > 0 {
		w.logger.Info("cleanup done", "outbox_pruned", pruned, "tokens_expired", expired)
	}
	return nil
}
