package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

var fixedNow = time.Date(2030, 1, 10, 10, 15, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	store   *memory.Store
	doctor  *model.User
	patient *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	doctor := &model.User{Name: "Doc", Email: "doc@example.com", Role: model.RoleDoctor}
	patient := &model.User{Name: "Pat", Email: "pat@example.com", Role: model.RolePatient}
	require.NoError(t, store.Users().Create(ctx, doctor))
	require.NoError(t, store.Users().Create(ctx, patient))

	svc := NewService(store.Availability(), store.Appointments(), store.Users(), store, Config{})
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, store: store, doctor: doctor, patient: patient}
}

func TestReplaceSwapsWholeSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Replace(ctx, f.doctor.ID, []model.AvailabilityWindow{
		{Date: "2030-01-11", From: "09:00", To: "10:00"},
		{Date: "2030-01-12", From: "09:00", To: "10:00"},
	})
	require.NoError(t, err)

	got, err := f.svc.Replace(ctx, f.doctor.ID, []model.AvailabilityWindow{
		{Date: "2030-01-13", From: "14:00", To: "15:30"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2030-01-13", got[0].Date)
	assert.Equal(t, "14:00", got[0].StartTime)
}

func TestReplaceRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Replace(context.Background(), f.doctor.ID, []model.AvailabilityWindow{
		{Date: "2030-01-11", From: "09:00", To: "10:00"},
		{Date: "2030-01-11", From: "11:00", To: "11:00"},
	})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "availabilities[1].to")
}

func TestReplaceRollsBackOnInsertFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Replace(ctx, f.doctor.ID, []model.AvailabilityWindow{{Date: "2030-01-11", From: "09:00", To: "10:00"}})
	require.NoError(t, err)

	f.store.FailOn("Availability.Create", assert.AnError)
	_, err = f.svc.Replace(ctx, f.doctor.ID, []model.AvailabilityWindow{{Date: "2030-01-12", From: "09:00", To: "10:00"}})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindInternal, appErr.Kind)
	assert.Equal(t, msgSaveFailed, appErr.Message)

	kept, err := f.svc.ListOwn(ctx, f.doctor.ID)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "2030-01-11", kept[0].Date)
}

func TestFreeTimesMergesWindowsAndSubtractsBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Replace(ctx, f.doctor.ID, []model.AvailabilityWindow{
		{Date: "2030-01-11", From: "09:00", To: "10:30"},
		{Date: "2030-01-11", From: "10:00", To: "10:45"},
	})
	require.NoError(t, err)

	require.NoError(t, f.store.Appointments().Create(ctx, &model.Appointment{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, Date: "2030-01-11", Time: "09:30", Status: model.AppointmentStatusPending,
	}))
	require.NoError(t, f.store.Appointments().Create(ctx, &model.Appointment{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, Date: "2030-01-11", Time: "09:00", Status: model.AppointmentStatusCancelled,
	}))

	times, err := f.svc.FreeTimes(ctx, f.doctor.ID, "2030-01-11")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, times)
}

func TestFreeTimesPastAndToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Replace(ctx, f.doctor.ID, []model.AvailabilityWindow{
		{Date: "2030-01-09", From: "09:00", To: "12:00"},
		{Date: "2030-01-10", From: "09:00", To: "12:00"},
	})
	require.NoError(t, err)

	past, err := f.svc.FreeTimes(ctx, f.doctor.ID, "2030-01-09")
	require.NoError(t, err)
	assert.Empty(t, past)
	assert.NotNil(t, past)

	today, err := f.svc.FreeTimes(ctx, f.doctor.ID, "2030-01-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, today)
}

func TestFreeTimesAndDatesRequireDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.FreeTimes(ctx, f.patient.ID, "2030-01-11")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Dates(ctx, f.patient.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDatesAreDistinctAndUpcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Replace(ctx, f.doctor.ID, []model.AvailabilityWindow{
		{Date: "2030-01-12", From: "09:00", To: "10:00"},
		{Date: "2030-01-09", From: "09:00", To: "10:00"},
		{Date: "2030-01-12", From: "14:00", To: "15:00"},
		{Date: "2030-01-10", From: "14:00", To: "15:00"},
	})
	require.NoError(t, err)

	dates, err := f.svc.Dates(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2030-01-10", "2030-01-12"}, dates)
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, err := f.svc.Replace(ctx, f.doctor.ID, []model.AvailabilityWindow{{Date: "2030-01-12", From: "09:00", To: "10:00"}})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, rows[0].ID, f.patient.ID)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, f.svc.Delete(ctx, rows[0].ID, f.doctor.ID))
	left, err := f.svc.ListOwn(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}
