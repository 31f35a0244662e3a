package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
	"github.com/jwalitptl/docbook-api/internal/service/event"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/messaging"
	"github.com/jwalitptl/docbook-api/pkg/metrics"
)

type downBroker struct{ calls int }

func (b *downBroker) Publish(context.Context, string, []byte) error {
	b.calls++
	return errors.New("broker unavailable")
}

func (b *downBroker) Subscribe(context.Context, ...string) (<-chan messaging.Message, error) {
	return nil, errors.New("broker unavailable")
}

func (b *downBroker) Close() error { return nil }

func config() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Millisecond,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		MaxFailures:   2,
	}
}

func TestProcessBatchPublishesEnvelope(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	broker := messaging.NewMemoryBroker()
	msgs, err := broker.Subscribe(ctx, messaging.Channel(model.EventReviewSubmitted))
	require.NoError(t, err)

	require.NoError(t, event.NewEventService(store.Outbox()).Emit(ctx, model.EventReviewSubmitted, model.ReviewEvent{Rating: 5}))

	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	p := NewOutboxProcessor(store.Outbox(), store, broker, config(), logger.Nop(), m)

	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	select {
	case msg := <-msgs:
		var env model.EventEnvelope
		require.NoError(t, json.Unmarshal(msg.Payload, &env))
		assert.Equal(t, model.EventReviewSubmitted, env.Type)
		var payload model.ReviewEvent
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		assert.Equal(t, 5, payload.Rating)
	case <-ctx.Done():
		t.Fatal("event was not published")
	}

	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutboxStatusProcessed, events[0].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsProcessed.WithLabelValues(model.EventReviewSubmitted)))

	n, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessBatchRetriesThenParksEvent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, event.NewEventService(store.Outbox()).Emit(ctx, model.EventAppointmentCreated, model.AppointmentEvent{}))

	broker := &downBroker{}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	p := NewOutboxProcessor(store.Outbox(), store, broker, config(), logger.Nop(), m)
	p.now = func() time.Time { return time.Now().Add(-time.Hour) }

	_, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, broker.calls)

	ev := store.OutboxEvents()[0]
	assert.Equal(t, model.OutboxStatusRetry, ev.Status)
	assert.Equal(t, 1, ev.RetryCount)
	require.NotNil(t, ev.ErrorMessage)
	require.NotNil(t, ev.RetryAt)

	_, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	ev = store.OutboxEvents()[0]
	assert.Equal(t, model.OutboxStatusFailed, ev.Status)
	assert.Nil(t, ev.RetryAt)

	_, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, broker.calls, "parked events are not claimed again")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxRetries.WithLabelValues(model.EventAppointmentCreated)))
}

func TestNewOutboxProcessorRejectsBadConfig(t *testing.T) {
	cfg := config()
	cfg.MaxFailures = 0
	assert.Panics(t, func() {
		NewOutboxProcessor(nil, nil, nil, cfg, logger.Nop(), nil)
	})
}
