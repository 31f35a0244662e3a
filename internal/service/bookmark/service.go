package bookmark

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/internal/storage"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

type Service struct {
	repo    repository.BookmarkRepository
	users   repository.UserRepository
	avatars storage.Avatars
}

func NewService(repo repository.BookmarkRepository, users repository.UserRepository, avatars storage.Avatars) *Service {
	return &Service{repo: repo, users: users, avatars: avatars}
}

// Add saves a doctor for the patient. Saving the same doctor again is a no-op.
func (s *Service) Add(ctx context.Context, patientID, doctorID uuid.UUID) error {
	target, err := s.users.Get(ctx, doctorID)
	if err != nil {
		return err
	}
	if !target.IsDoctor() {
		return apperrors.Validation("user is not a doctor", nil)
	}
	return s.repo.Add(ctx, patientID, doctorID)
}

// Remove is a no-op when the doctor is not saved.
func (s *Service) Remove(ctx context.Context, patientID, doctorID uuid.UUID) error {
	return s.repo.Remove(ctx, patientID, doctorID)
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID) ([]*model.Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, d := range doctors {
		storage.Decorate(s.avatars, &d.User)
	}
	return doctors, nil
}
