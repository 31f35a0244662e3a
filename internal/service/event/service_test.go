package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
)

type recordingOutbox struct {
	events []*model.OutboxEvent
	err    error
}

func (r *recordingOutbox) Create(_ context.Context, e *model.OutboxEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingOutbox) ClaimPending(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (r *recordingOutbox) MarkProcessed(context.Context, uuid.UUID) error { return nil }
func (r *recordingOutbox) MarkFailed(context.Context, uuid.UUID, string, *time.Time, bool) error {
	return nil
}
func (r *recordingOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestEmitWritesOutboxRow(t *testing.T) {
	repo := &recordingOutbox{}
	svc := NewEventService(repo)

	review := &model.Review{Base: model.Base{ID: uuid.New()}, Rating: 4, Status: model.ReviewStatusPending}
	require.NoError(t, svc.Emit(context.Background(), model.EventReviewSubmitted, model.NewReviewEvent(review)))

	require.Len(t, repo.events, 1)
	assert.Equal(t, model.EventReviewSubmitted, repo.events[0].EventType)
	assert.Contains(t, string(repo.events[0].Payload), review.ID.String())
}

func TestEmitPropagatesFailure(t *testing.T) {
	svc := NewEventService(&recordingOutbox{err: errors.New("db down")})
	assert.Error(t, svc.Emit(context.Background(), model.EventReviewSubmitted, struct{}{}))
}
