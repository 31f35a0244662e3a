package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/internal/storage"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/security"
)

type Service struct {
	users   repository.UserRepository
	hasher  security.PasswordHasher
	avatars storage.Avatars
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, avatars storage.Avatars) *Service {
	return &Service{users: users, hasher: hasher, avatars: avatars}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	storage.Decorate(s.avatars, user)
	return user, nil
}

// Update replaces the caller's profile fields. A new avatar replaces the stored one, whose file
// is removed only after the row is saved.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req model.UpdateProfileRequest, avatar *storage.Upload) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.users.EmailTaken(ctx, email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.FieldError("email", "the email has already been taken")
	}

	if req.Password != nil && *req.Password != "" {
		if req.PasswordConfirmation == nil || *req.PasswordConfirmation != *req.Password {
			return nil, apperrors.FieldError("password", "the password confirmation does not match")
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = email
	user.Phone = req.Phone
	user.Gender = req.Gender
	user.City = req.City
	user.Specialty = req.Specialty

	old := user.ProfilePhotoPath
	switch {
	case avatar != nil:
		path, err := s.avatars.Save(*avatar)
		if err != nil {
			return nil, err
		}
		user.ProfilePhotoPath = &path
	case req.RemoveAvatar:
		user.ProfilePhotoPath = nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		if avatar != nil {
			_ = s.avatars.Delete(*user.ProfilePhotoPath)
		}
		if apperrors.IsConflict(err) {
			return nil, apperrors.FieldError("email", "the email has already been taken")
		}
		return nil, err
	}

	if old != nil && (user.ProfilePhotoPath == nil || *old != *user.ProfilePhotoPath) {
		_ = s.avatars.Delete(*old)
	}

	storage.Decorate(s.avatars, user)
	return user, nil
}
