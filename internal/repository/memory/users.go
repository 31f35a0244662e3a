package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

type userRepository struct{ s *Store }

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Users.Create"); err != nil {
		return err
	}
	if s.emailTaken(user.Email, uuid.Nil) {
		return apperrors.Conflict("user already exists", nil)
	}
	user.Touch(s.tick())
	s.users[user.ID] = *user
	return nil
}

func (r *userRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *userRepository) Update(_ context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Users.Update"); err != nil {
		return err
	}
	if _, ok := s.users[user.ID]; !ok {
		return apperrors.NotFound("user", nil)
	}
	if s.emailTaken(user.Email, user.ID) {
		return apperrors.Conflict("user already exists", nil)
	}
	user.UpdatedAt = s.tick()
	s.users[user.ID] = *user
	return nil
}

// Delete cascades like the foreign keys do.
func (r *userRepository) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Users.Delete"); err != nil {
		return err
	}
	if _, ok := s.users[id]; !ok {
		return apperrors.NotFound("user", nil)
	}
	delete(s.users, id)
	for k, t := range s.tokens {
		if t.userID == id {
			delete(s.tokens, k)
		}
	}
	for k, a := range s.availability {
		if a.DoctorID == id {
			delete(s.availability, k)
		}
	}
	for k, a := range s.appointments {
		if a.DoctorID == id || a.PatientID == id {
			delete(s.appointments, k)
		}
	}
	for k, rv := range s.reviews {
		if rv.DoctorID == id || rv.PatientID == id {
			delete(s.reviews, k)
		}
	}
	for k := range s.bookmarks {
		if k.doctorID == id || k.patientID == id {
			delete(s.bookmarks, k)
		}
	}
	return nil
}

func (r *userRepository) List(_ context.Context, filter model.UserFilter) ([]*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*model.User{}
	for _, u := range s.users {
		if matchUser(u, filter) {
			out = append(out, &u)
		}
	}
	slices.SortFunc(out, func(a, b *model.User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *userRepository) EmailTaken(_ context.Context, email string, exceptID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailTaken(email, exceptID), nil
}

func (r *userRepository) ListDoctors(_ context.Context, filter model.UserFilter) ([]*model.Doctor, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	filter.Role = model.RoleDoctor
	out := []*model.Doctor{}
	for _, u := range s.users {
		if matchUser(u, filter) {
			out = append(out, s.doctor(u))
		}
	}
	slices.SortFunc(out, func(a, b *model.Doctor) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *userRepository) GetDoctor(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Role != model.RoleDoctor {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return s.doctor(u), nil
}

func (s *Store) emailTaken(email string, exceptID uuid.UUID) bool {
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// doctor attaches the approved review aggregate. mu must be held.
func (s *Store) doctor(u model.User) *model.Doctor {
	d := &model.Doctor{User: u}
	sum := 0
	for _, rv := range s.reviews {
		if rv.DoctorID == u.ID && rv.Status == model.ReviewStatusApproved {
			d.ReviewsCount++
			sum += rv.Rating
		}
	}
	if d.ReviewsCount > 0 {
		avg := float64(sum) / float64(d.ReviewsCount)
		d.ReviewsAvgRating = &avg
	}
	return d
}

func matchUser(u model.User, f model.UserFilter) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.City != "" && !containsFold(u.City, f.City) {
		return false
	}
	if f.Specialty != "" && !containsFold(u.Specialty, f.Specialty) {
		return false
	}
	return true
}

func containsFold(v *string, sub string) bool {
	return v != nil && strings.Contains(strings.ToLower(*v), strings.ToLower(sub))
}

type tokenRepository struct{ s *Store }

func (r *tokenRepository) Store(_ context.Context, userID, tokenID uuid.UUID, expiresAt time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Tokens.Store"); err != nil {
		return err
	}
	if _, ok := s.users[userID]; !ok {
		return apperrors.NotFound("referenced record", nil)
	}
	s.tokens[tokenID] = token{userID: userID, expiresAt: expiresAt}
	return nil
}

func (r *tokenRepository) Exists(_ context.Context, tokenID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID]
	return ok && t.expiresAt.After(time.Now()), nil
}

func (r *tokenRepository) DeleteByUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []uuid.UUID{}
	for id, t := range s.tokens {
		if t.userID == userID {
			ids = append(ids, id)
			delete(s.tokens, id)
		}
	}
	return ids, nil
}

func (r *tokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.tokens {
		if !t.expiresAt.After(now) {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}
