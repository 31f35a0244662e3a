// Package memory implements the repository interfaces over maps. It mirrors the constraints
// of the Postgres schema (unique email, one live booking per slot, one review per pair,
// cascading deletes) and backs the service and handler tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
)

type token struct {
	userID    uuid.UUID
	expiresAt time.Time
}

type bookmarkKey struct {
	patientID uuid.UUID
	doctorID  uuid.UUID
}

type txKey struct{}

// Store holds every table. Repositories obtained from one Store share its data.
type Store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]model.User
	tokens       map[uuid.UUID]token
	availability map[uuid.UUID]model.Availability
	appointments map[uuid.UUID]model.Appointment
	reviews      map[uuid.UUID]model.Review
	bookmarks    map[bookmarkKey]time.Time
	outbox       map[uuid.UUID]model.OutboxEvent
	failures     map[string]error
	last         time.Time
}

func NewStore() *Store {
	return &Store{
		users:        map[uuid.UUID]model.User{},
		tokens:       map[uuid.UUID]token{},
		availability: map[uuid.UUID]model.Availability{},
		appointments: map[uuid.UUID]model.Appointment{},
		reviews:      map[uuid.UUID]model.Review{},
		bookmarks:    map[bookmarkKey]time.Time{},
		outbox:       map[uuid.UUID]model.OutboxEvent{},
		failures:     map[string]error{},
	}
}

// FailOn makes every call of op return err until cleared with a nil err. Ops are named
// "<Repo>.<Method>", e.g. "Availability.Create".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// fail must be called with mu held.
func (s *Store) fail(op string) error {
	return s.failures[op]
}

// tick returns a strictly increasing timestamp so creation order is stable. mu must be held.
func (s *Store) tick() time.Time {
	now := time.Now()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

type snapshot struct {
	users        map[uuid.UUID]model.User
	tokens       map[uuid.UUID]token
	availability map[uuid.UUID]model.Availability
	appointments map[uuid.UUID]model.Appointment
	reviews      map[uuid.UUID]model.Review
	bookmarks    map[bookmarkKey]time.Time
	outbox       map[uuid.UUID]model.OutboxEvent
}

// WithinTx runs fn and restores every table if it fails. Nested calls join the outer one.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	snap := snapshot{
		users:        maps.Clone(s.users),
		tokens:       maps.Clone(s.tokens),
		availability: maps.Clone(s.availability),
		appointments: maps.Clone(s.appointments),
		reviews:      maps.Clone(s.reviews),
		bookmarks:    maps.Clone(s.bookmarks),
		outbox:       maps.Clone(s.outbox),
	}
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.users, s.tokens, s.availability = snap.users, snap.tokens, snap.availability
		s.appointments, s.reviews, s.bookmarks, s.outbox = snap.appointments, snap.reviews, snap.bookmarks, snap.outbox
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Users() repository.UserRepository { return &userRepository{s} }
func (s *Store) Tokens() repository.TokenRepository { return &tokenRepository{s} }
func (s *Store) Availability() repository.AvailabilityRepository { return &availabilityRepository{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return &appointmentRepository{s} }
func (s *Store) Reviews() repository.ReviewRepository { return &reviewRepository{s} }
func (s *Store) Bookmarks() repository.BookmarkRepository { return &bookmarkRepository{s} }
func (s *Store) Stats() repository.StatsRepository { return &statsRepository{s} }
func (s *Store) Outbox() repository.OutboxRepository { return &outboxRepository{s} }

// OutboxEvents returns every recorded event, oldest first.
func (s *Store) OutboxEvents() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedOutbox(s.outbox)
}
