package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/security"
)

func newSeeder(store *memory.Store) *Seeder {
	s := NewSeeder(store.Users(), store.Availability(), store, security.NewBcryptHasher(4), logger.Nop())
	// A Friday, so the next workdays straddle a weekend.
	s.now = func() time.Time { return time.Date(2030, 1, 11, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestRunCreatesUsersAndAvailability(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	res, err := newSeeder(store).Run(ctx, Options{Doctors: 3, Patients: 2, Days: 2, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, &Result{Doctors: 3, Patients: 2, Availability: 3 * 2 * len(windows)}, res)

	doctors, err := store.Users().ListDoctors(ctx, model.UserFilter{})
	require.NoError(t, err)
	require.Len(t, doctors, 3)
	for _, d := range doctors {
		assert.NotNil(t, d.Specialty)

		slots, err := store.Availability().ListByDoctor(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, slots, 4)
		dates := map[string]bool{}
		for _, a := range slots {
			dates[a.Date] = true
		}
		assert.Equal(t, map[string]bool{"2030-01-14": true, "2030-01-15": true}, dates)
	}

	patients, err := store.Users().List(ctx, model.UserFilter{Role: model.RolePatient})
	require.NoError(t, err)
	assert.Len(t, patients, 2)
}

func TestRunUsesPassword(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_, err := newSeeder(store).Run(ctx, Options{Patients: 1, Password: "letmein1", Seed: 7})
	require.NoError(t, err)

	users, err := store.Users().List(ctx, model.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NoError(t, security.NewBcryptHasher(4).Compare(users[0].PasswordHash, "letmein1"))
}

func TestRunRollsBackFailedDoctor(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	store.FailOn("Availability.Create", errors.New("disk full"))

	res, err := newSeeder(store).Run(ctx, Options{Doctors: 1, Days: 1})
	require.Error(t, err)
	assert.Equal(t, 0, res.Doctors)

	users, err := store.Users().List(ctx, model.UserFilter{})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateAdmin(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	hasher := security.NewBcryptHasher(4)

	u, err := CreateAdmin(ctx, store.Users(), hasher, "Root", " Root@Example.com ", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Equal(t, "root@example.com", u.Email)

	_, err = CreateAdmin(ctx, store.Users(), hasher, "Root", "root@example.com", "supersecret")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = CreateAdmin(ctx, store.Users(), hasher, "Root", "other@example.com", "short")
	assert.Error(t, err)
}
