package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/internal/storage"
)

// Service is the doctor directory.
type Service struct {
	users   repository.UserRepository
	avatars storage.Avatars
}

func NewService(users repository.UserRepository, avatars storage.Avatars) *Service {
	return &Service{users: users, avatars: avatars}
}

// List returns doctors matching the city and specialty filters with their rating aggregate.
func (s *Service) List(ctx context.Context, filter model.UserFilter) ([]*model.Doctor, error) {
	filter.Role = model.RoleDoctor
	doctors, err := s.users.ListDoctors(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, d := range doctors {
		storage.Decorate(s.avatars, &d.User)
	}
	return doctors, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, err := s.users.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	storage.Decorate(s.avatars, &d.User)
	return d, nil
}
