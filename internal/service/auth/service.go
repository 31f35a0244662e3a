package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/internal/storage"
	"github.com/jwalitptl/docbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/security"
)

const (
	// principalCacheTTL bounds how long a revoked token may still pass on another instance.
	principalCacheTTL = time.Minute

	msgBadCredentials  = "bad credentials"
	msgUnauthenticated = "unauthenticated"
	msgEmailTaken      = "the email has already been taken"
)

type Service struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	tx       repository.Transactor
	tokenMgr *auth.TokenManager
	hasher   security.PasswordHasher
	avatars  storage.Avatars
	cache    *cache.Cache
}

func NewService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	tx repository.Transactor,
	tokenMgr *auth.TokenManager,
	hasher security.PasswordHasher,
	avatars storage.Avatars,
) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		tx:       tx,
		tokenMgr: tokenMgr,
		hasher:   hasher,
		avatars:  avatars,
		cache:    cache.New(principalCacheTTL, 2*principalCacheTTL),
	}
}

// Register creates a doctor or patient account and signs it in. avatar may be nil.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest, avatar *storage.Upload) (*model.AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	taken, err := s.users.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.FieldError("email", msgEmailTaken)
	}

	role := req.Role
	if role == "" {
		role = model.RolePatient
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
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
		user.ProfilePhotoPath = &path
	}

	var token string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			if apperrors.IsConflict(err) {
				return apperrors.FieldError("email", msgEmailTaken)
			}
			return err
		}
		issued, err := s.issue(ctx, user)
		if err != nil {
			return err
		}
		token = issued
		return nil
	})
	if err != nil {
		if user.ProfilePhotoPath != nil {
			_ = s.avatars.Delete(*user.ProfilePhotoPath)
		}
		return nil, err
	}

	storage.Decorate(s.avatars, user)
	return &model.AuthResponse{User: user, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized(msgBadCredentials)
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, apperrors.Unauthorized(msgBadCredentials)
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	storage.Decorate(s.avatars, user)
	return &model.AuthResponse{User: user, Token: token}, nil
}

// Logout revokes every token of the caller, not only the one presented.
func (s *Service) Logout(ctx context.Context, p *model.Principal) error {
	return s.RevokeAll(ctx, p.UserID)
}

func (s *Service) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	ids, err := s.tokens.DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.cache.Delete(id.String())
	}
	return nil
}

// Authenticate resolves a bearer token to its principal. The token must verify and its id
// must still be on record; the role is read from the user row.
func (s *Service) Authenticate(ctx context.Context, raw string) (*model.Principal, error) {
	claims, err := s.tokenMgr.Parse(raw)
	if err != nil {
		return nil, apperrors.Unauthorized(msgUnauthenticated)
	}
	tokenID, _ := claims.TokenID()
	userID, _ := claims.UserID()

	if cached, ok := s.cache.Get(tokenID.String()); ok {
		return cached.(*model.Principal), nil
	}

	ok, err := s.tokens.Exists(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Unauthorized(msgUnauthenticated)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized(msgUnauthenticated)
		}
		return nil, err
	}

	p := &model.Principal{UserID: user.ID, Role: user.Role, TokenID: tokenID}
	ttl := principalCacheTTL
	if remaining := time.Until(claims.ExpiresAt.Time); remaining < ttl {
		ttl = remaining
	}
	if ttl > 0 {
		s.cache.Set(tokenID.String(), p, ttl)
	}
	return p, nil
}

func (s *Service) issue(ctx context.Context, user *model.User) (string, error) {
	signed, claims, err := s.tokenMgr.Issue(user.ID, string(user.Role))
	if err != nil {
		return "", err
	}
	tokenID, _ := claims.TokenID()
	if err := s.tokens.Store(ctx, user.ID, tokenID, claims.ExpiresAt.Time); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return signed, nil
}

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
