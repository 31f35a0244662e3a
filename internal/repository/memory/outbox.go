package memory

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

type outboxRepository struct{ s *Store }

func (r *outboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Outbox.Create"); err != nil {
		return err
	}
	if event == nil || event.Payload == nil {
		return errors.New("event payload cannot be nil")
	}
	now := s.tick()
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt, event.UpdatedAt = now, now
	s.outbox[event.ID] = *event
	return nil
}

// ClaimPending does not lock; tests drive one relay at a time.
func (r *outboxRepository) ClaimPending(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Outbox.ClaimPending"); err != nil {
		return nil, err
	}

	now := time.Now()
	out := []*model.OutboxEvent{}
	for _, e := range sortedOutbox(s.outbox) {
		if len(out) == limit {
			break
		}
		due := e.RetryAt == nil || !e.RetryAt.After(now)
		if (e.Status == model.OutboxStatusPending || e.Status == model.OutboxStatusRetry) && due {
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r *outboxRepository) MarkProcessed(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.outbox[id]
	if !ok {
		return apperrors.NotFound("outbox event", nil)
	}
	now := s.tick()
	e.Status = model.OutboxStatusProcessed
	e.ErrorMessage = nil
	e.ProcessedAt = &now
	e.UpdatedAt = now
	s.outbox[id] = e
	return nil
}

func (r *outboxRepository) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, retryAt *time.Time, dead bool) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.outbox[id]
	if !ok {
		return apperrors.NotFound("outbox event", nil)
	}
	e.Status = model.OutboxStatusRetry
	if dead {
		e.Status = model.OutboxStatusFailed
	}
	e.ErrorMessage = &errMsg
	e.RetryAt = retryAt
	e.RetryCount++
	e.UpdatedAt = s.tick()
	s.outbox[id] = e
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(s.outbox, id)
			n++
		}
	}
	return n, nil
}

func sortedOutbox(m map[uuid.UUID]model.OutboxEvent) []model.OutboxEvent {
	out := make([]model.OutboxEvent, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b model.OutboxEvent) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}
