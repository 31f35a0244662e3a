package bookmark

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
	"github.com/jwalitptl/docbook-api/internal/storage"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

func TestBookmarkLifecycle(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewService(store.Bookmarks(), store.Users(), storage.NewAvatarStoreFs(afero.NewMemMapFs(), "", 0))

	doctor := &model.User{Name: "Doc", Email: "doc@example.com", Role: model.RoleDoctor}
	patient := &model.User{Name: "Pat", Email: "pat@example.com", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, doctor))
	require.NoError(t, store.Users().Create(ctx, patient))

	require.NoError(t, svc.Add(ctx, patient.ID, doctor.ID))
	require.NoError(t, svc.Add(ctx, patient.ID, doctor.ID))

	saved, err := svc.List(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, doctor.ID, saved[0].ID)

	require.NoError(t, svc.Remove(ctx, patient.ID, doctor.ID))
	require.NoError(t, svc.Remove(ctx, patient.ID, doctor.ID))

	saved, err = svc.List(ctx, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestBookmarkTargetMustBeDoctor(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewService(store.Bookmarks(), store.Users(), storage.NewAvatarStoreFs(afero.NewMemMapFs(), "", 0))

	patient := &model.User{Name: "Pat", Email: "pat@example.com", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, patient))

	err := svc.Add(ctx, patient.ID, patient.ID)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, "user is not a doctor", appErr.Message)

	assert.True(t, apperrors.IsNotFound(svc.Add(ctx, patient.ID, uuid.New())))
}
