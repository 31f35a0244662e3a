package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/metrics"
)

func TestRunOncePrunesProcessedEventsAndExpiredTokens(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	u := &model.User{Name: "P", Email: "p@example.com", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, u))
	stale, live := uuid.New(), uuid.New()
	require.NoError(t, store.Tokens().Store(ctx, u.ID, stale, time.Now().Add(-time.Minute)))
	require.NoError(t, store.Tokens().Store(ctx, u.ID, live, time.Now().Add(3*time.Hour)))

	done := &model.OutboxEvent{EventType: model.EventReviewSubmitted, Payload: []byte(`{}`)}
	waiting := &model.OutboxEvent{EventType: model.EventReviewSubmitted, Payload: []byte(`{}`)}
	require.NoError(t, store.Outbox().Create(ctx, done))
	require.NoError(t, store.Outbox().Create(ctx, waiting))
	require.NoError(t, store.Outbox().MarkProcessed(ctx, done.ID))

	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	w := NewCleanupWorker(store.Outbox(), store.Tokens(), CleanupConfig{OutboxRetention: time.Hour}, logger.Nop(), m)
	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	require.NoError(t, w.RunOnce(ctx))

	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, waiting.ID, events[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPruned))

	ok, err := store.Tokens().Exists(ctx, stale)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.Tokens().Exists(ctx, live)
	require.NoError(t, err)
	assert.True(t, ok)
}
