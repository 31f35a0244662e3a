package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/messaging"
	"github.com/jwalitptl/docbook-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxFailures is how many failed batches an event survives before it is parked as failed.
	MaxFailures int
}

// OutboxProcessor relays committed outbox events to the broker.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	tx      repository.Transactor
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	tx repository.Transactor,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	// Config validation instead of defaults
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}
	if config.MaxFailures <= 0 {
		panic("MaxFailures must be greater than 0")
	}

	return &OutboxProcessor{
		repo:    repo,
		tx:      tx,
		broker:  broker,
		config:  config,
		logger:  logger.With("outbox-processor"),
		metrics: metrics,
		now:     time.Now,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process events")
			}
		}
	}
}

// ProcessBatch claims up to BatchSize due events and publishes them. The claim lock is held
// for the whole batch so concurrent relays skip these rows. It returns how many were published.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	published := 0
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		events, err := p.repo.ClaimPending(ctx, p.config.BatchSize)
		if err != nil {
			p.metrics.DatabaseOperations.WithLabelValues("claim_pending", "error").Inc()
			return fmt.Errorf("failed to claim pending events: %w", err)
		}
		p.metrics.DatabaseOperations.WithLabelValues("claim_pending", "success").Inc()

		for _, event := range events {
			ok, err := p.processEvent(ctx, event)
			if err != nil {
				return err
			}
			if ok {
				published++
			}
		}
		return nil
	})
	return published, err
}

// processEvent reports whether event was published. The error is non-nil only when the
// outcome could not be recorded.
func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) (bool, error) {
	body, err := json.Marshal(model.EventEnvelope{
		ID:         event.ID,
		Type:       event.EventType,
		OccurredAt: event.CreatedAt,
		Payload:    event.Payload,
	})
	if err != nil {
		return false, p.fail(ctx, event, fmt.Errorf("failed to encode envelope: %w", err), true)
	}

	channel := messaging.Channel(event.EventType)
	attempt := 0
	err = retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		if attempt > 0 {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		attempt++
		return p.broker.Publish(ctx, channel, body)
	})
	if err != nil {
		p.logger.Error(err, "failed to publish event",
			"event_id", event.ID.String(),
			"event_type", event.EventType)
		return false, p.fail(ctx, event, err, event.RetryCount+1 >= p.config.MaxFailures)
	}

	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("mark_processed", "error").Inc()
		return false, fmt.Errorf("failed to mark event %s processed: %w", event.ID, err)
	}
	p.metrics.OutboxEventsProcessed.WithLabelValues(event.EventType).Inc()
	p.metrics.OutboxEventAge.WithLabelValues(event.EventType).Observe(p.now().Sub(event.CreatedAt).Seconds())
	return true, nil
}

// fail records a failed attempt. Live events are retried after a delay that doubles with each
// failure.
func (p *OutboxProcessor) fail(ctx context.Context, event *model.OutboxEvent, cause error, dead bool) error {
	p.metrics.OutboxEventsFailed.WithLabelValues(event.EventType).Inc()

	var retryAt *time.Time
	if !dead {
		at := p.now().Add(p.config.RetryDelay << min(event.RetryCount, 10))
		retryAt = &at
	}
	if err := p.repo.MarkFailed(ctx, event.ID, cause.Error(), retryAt, dead); err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("mark_failed", "error").Inc()
		return fmt.Errorf("failed to mark event %s failed: %w", event.ID, err)
	}
	return nil
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
