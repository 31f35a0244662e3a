package review

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
	"github.com/jwalitptl/docbook-api/internal/service/event"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

type fixture struct {
	svc     *Service
	store   *memory.Store
	doctor  *model.Principal
	other   *model.Principal
	patient *model.Principal
	admin   *model.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		svc:   NewService(store.Reviews(), store.Users(), store, event.NewEventService(store.Outbox())),
		store: store,
	}
	f.doctor = f.user(t, model.RoleDoctor, "doc@example.com")
	f.other = f.user(t, model.RoleDoctor, "other@example.com")
	f.patient = f.user(t, model.RolePatient, "pat@example.com")
	f.admin = f.user(t, model.RoleAdmin, "admin@example.com")
	return f
}

func (f *fixture) user(t *testing.T, role model.Role, email string) *model.Principal {
	t.Helper()
	u := &model.User{Name: email, Email: email, Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return &model.Principal{UserID: u.ID, Role: role}
}

func (f *fixture) submit(t *testing.T, p *model.Principal, rating int) *model.Review {
	t.Helper()
	r, err := f.svc.Submit(context.Background(), p, model.CreateReviewRequest{DoctorID: f.doctor.UserID, Rating: rating})
	require.NoError(t, err)
	return r
}

func TestSubmitOncePerDoctor(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t, f.patient, 4)
	assert.Equal(t, model.ReviewStatusPending, r.Status)

	_, err := f.svc.Submit(context.Background(), f.patient, model.CreateReviewRequest{DoctorID: f.doctor.UserID, Rating: 5})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindConflict, appErr.Kind)
	assert.Equal(t, msgAlreadyReviewed, appErr.Message)

	events := f.store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventReviewSubmitted, events[0].EventType)
}

func TestSubmitRejectsBadRatingAndNonDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, rating := range []int{0, 6} {
		_, err := f.svc.Submit(ctx, f.patient, model.CreateReviewRequest{DoctorID: f.doctor.UserID, Rating: rating})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), "rating %d", rating)
	}

	_, err := f.svc.Submit(ctx, f.patient, model.CreateReviewRequest{DoctorID: f.admin.UserID, Rating: 3})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestModeration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, f.patient, 4)

	_, err := f.svc.UpdateStatus(ctx, f.other, r.ID, model.ReviewStatusApproved)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	_, err = f.svc.UpdateStatus(ctx, f.patient, r.ID, model.ReviewStatusApproved)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	got, err := f.svc.UpdateStatus(ctx, f.doctor, r.ID, model.ReviewStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusApproved, got.Status)

	_, err = f.svc.UpdateStatus(ctx, f.admin, r.ID, model.ReviewStatusApproved)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	got, err = f.svc.UpdateStatus(ctx, f.admin, r.ID, model.ReviewStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusRejected, got.Status)

	events := f.store.OutboxEvents()
	assert.Equal(t, model.EventReviewModerated, events[len(events)-1].EventType)
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, f.patient, 4)

	_, err := f.svc.Get(ctx, f.other, r.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.Get(ctx, f.patient, r.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.admin, r.ID, model.ReviewStatusApproved)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, f.other, r.ID)
	require.NoError(t, err)
}

func TestDeleteRights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.submit(t, f.patient, 4)

	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(f.svc.Delete(ctx, f.other, r.ID)))
	require.NoError(t, f.svc.Delete(ctx, f.doctor, r.ID))
	assert.True(t, apperrors.IsNotFound(f.svc.Delete(ctx, f.admin, r.ID)))
}

func TestApprovedListingIsPaginatedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := range 12 {
		p := f.user(t, model.RolePatient, fmt.Sprintf("p%d@example.com", i))
		r := f.submit(t, p, 1+i%5)
		if i != 3 {
			_, err := f.svc.UpdateStatus(ctx, f.admin, r.ID, model.ReviewStatusApproved)
			require.NoError(t, err)
			ids = append(ids, r.ID.String())
		}
	}

	first, err := f.svc.DoctorReviews(ctx, f.doctor.UserID, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, first.Total)
	require.Len(t, first.Items, model.DefaultPageSize)
	assert.Equal(t, ids[len(ids)-1], first.Items[0].ID.String())

	second, err := f.svc.Approved(ctx, &f.doctor.UserID, 2)
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)
	assert.Equal(t, 2, second.Number)

	pending, err := f.svc.Pending(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, pending.Total)

	all, err := f.svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 12)
	assert.Equal(t, ids[len(ids)-1], all[0].ID.String())

	_, err = f.svc.DoctorReviews(ctx, f.patient.UserID, 1)
	assert.True(t, apperrors.IsNotFound(err))
}
