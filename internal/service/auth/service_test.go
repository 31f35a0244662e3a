package auth

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
	"github.com/jwalitptl/docbook-api/internal/storage"
	"github.com/jwalitptl/docbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/security"
)

type fixture struct {
	svc   *Service
	store *memory.Store
	fs    afero.Fs
}

func newFixture() *fixture {
	store := memory.NewStore()
	fs := afero.NewMemMapFs()
	svc := NewService(
		store.Users(),
		store.Tokens(),
		store,
		auth.NewTokenManager("test-secret", "docbook-test", time.Hour),
		security.NewBcryptHasher(4),
		storage.NewAvatarStoreFs(fs, "/storage", 0),
	)
	return &fixture{svc: svc, store: store, fs: fs}
}

func registerReq(email string) model.RegisterRequest {
	return model.RegisterRequest{
		Name:                 "Ada Patient",
		Email:                email,
		Password:             "secret123",
		PasswordConfirmation: "secret123",
	}
}

func TestRegisterDefaultsToPatientAndIssuesToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.Register(ctx, registerReq(" Ada@Example.com "), nil)
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, res.User.Role)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.NotEqual(t, "secret123", res.User.PasswordHash)
	require.NotEmpty(t, res.Token)

	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.UserID)
	assert.True(t, p.Is(model.RolePatient))
}

func TestRegisterDuplicateEmailIsFieldError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerReq("ada@example.com"), nil)
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, registerReq("ADA@example.com"), nil)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "email")
}

func TestRegisterStoresAvatar(t *testing.T) {
	f := newFixture()
	png := []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

	res, err := f.svc.Register(context.Background(), registerReq("doc@example.com"),
		&storage.Upload{Name: "me.png", Size: int64(len(png)), Reader: bytes.NewReader(png)})
	require.NoError(t, err)
	require.NotNil(t, res.User.ProfilePhotoPath)
	assert.Equal(t, "/storage/"+*res.User.ProfilePhotoPath, res.User.ProfilePhotoURL)

	exists, err := afero.Exists(f.fs, *res.User.ProfilePhotoPath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLoginBadCredentials(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registerReq("ada@example.com"), nil)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	res, err := f.svc.Login(ctx, model.LoginRequest{Email: "Ada@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLogoutRevokesEveryToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, registerReq("ada@example.com"), nil)
	require.NoError(t, err)
	login, err := f.svc.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)

	p, err := f.svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, p))

	for _, tok := range []string{reg.Token, login.Token} {
		_, err := f.svc.Authenticate(ctx, tok)
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Authenticate(context.Background(), "not-a-token")
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}
