package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/internal/storage"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/security"
)

const msgEmailTaken = "the email has already been taken"

// TokenRevoker signs a user out everywhere.
type TokenRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// Service is the admin user management surface.
type Service struct {
	repo    repository.UserRepository
	hasher  security.PasswordHasher
	avatars storage.Avatars
	revoker TokenRevoker
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, avatars storage.Avatars, revoker TokenRevoker) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		avatars: avatars,
		revoker: revoker,
	}
}

func (s *Service) ListUsers(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		storage.Decorate(s.avatars, u)
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	storage.Decorate(s.avatars, u)
	return u, nil
}

func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest, avatar *storage.Upload) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.checkEmail(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
		Gender:       req.Gender,
		City:         req.City,
		Specialty:    req.Specialty,
	}
	if avatar != nil {
		path, err := s.avatars.Save(*avatar)
		if err != nil {
			return nil, err
		}
		u.ProfilePhotoPath = &path
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if u.ProfilePhotoPath != nil {
			_ = s.avatars.Delete(*u.ProfilePhotoPath)
		}
		if apperrors.IsConflict(err) {
			return nil, apperrors.FieldError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	storage.Decorate(s.avatars, u)
	return u, nil
}

// UpdateUser applies the non-nil fields of req. Changing the role or password signs the user
// out of every session.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req model.UpdateUserRequest, avatar *storage.Upload) (*model.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	revoke := false
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := s.checkEmail(ctx, email, id); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
		revoke = true
	}
	if req.Role != nil && *req.Role != u.Role {
		u.Role = *req.Role
		revoke = true
	}
	if req.Phone != nil {
		u.Phone = req.Phone
	}
	if req.Gender != nil {
		u.Gender = req.Gender
	}
	if req.City != nil {
		u.City = req.City
	}
	if req.Specialty != nil {
		u.Specialty = req.Specialty
	}

	old := u.ProfilePhotoPath
	switch {
	case avatar != nil:
		path, err := s.avatars.Save(*avatar)
		if err != nil {
			return nil, err
		}
		u.ProfilePhotoPath = &path
	case req.RemoveAvatar:
		u.ProfilePhotoPath = nil
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if avatar != nil {
			_ = s.avatars.Delete(*u.ProfilePhotoPath)
		}
		if apperrors.IsConflict(err) {
			return nil, apperrors.FieldError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if old != nil && (u.ProfilePhotoPath == nil || *old != *u.ProfilePhotoPath) {
		_ = s.avatars.Delete(*old)
	}
	if revoke {
		if err := s.revoker.RevokeAll(ctx, u.ID); err != nil {
			return nil, fmt.Errorf("failed to revoke tokens: %w", err)
		}
	}

	storage.Decorate(s.avatars, u)
	return u, nil
}

// DeleteUser removes the avatar file, then the row. Owned rows go with it through the
// foreign keys.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.revoker.RevokeAll(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	// The row is gone; a leftover file is only an orphan.
	if u.ProfilePhotoPath != nil {
		if err := s.avatars.Delete(*u.ProfilePhotoPath); err != nil {
			log.Warn().Err(err).Str("path", *u.ProfilePhotoPath).Msg("failed to delete avatar of deleted user")
		}
	}
	return nil
}

func (s *Service) checkEmail(ctx context.Context, email string, except uuid.UUID) error {
	taken, err := s.repo.EmailTaken(ctx, email, except)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.FieldError("email", msgEmailTaken)
	}
	return nil
}
