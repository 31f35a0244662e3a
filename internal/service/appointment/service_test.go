package appointment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
	"github.com/jwalitptl/docbook-api/internal/service/availability"
	"github.com/jwalitptl/docbook-api/internal/service/event"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

var fixedNow = time.Date(2030, 1, 10, 10, 15, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	slots   *availability.Service
	store   *memory.Store
	doctor  *model.Principal
	other   *model.Principal
	patient *model.Principal
	admin   *model.Principal
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	mk := func(role model.Role, email string) *model.Principal {
		u := &model.User{Name: email, Email: email, Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return &model.Principal{UserID: u.ID, Role: role}
	}

	slots := availability.NewService(store.Availability(), store.Appointments(), store.Users(), store, availability.Config{})
	svc := NewService(store.Appointments(), store.Users(), store, event.NewEventService(store.Outbox()), slots, cfg)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{
		svc:     svc,
		slots:   slots,
		store:   store,
		doctor:  mk(model.RoleDoctor, "doc@example.com"),
		other:   mk(model.RoleDoctor, "other@example.com"),
		patient: mk(model.RolePatient, "pat@example.com"),
		admin:   mk(model.RoleAdmin, "admin@example.com"),
	}
}

func (f *fixture) book(t *testing.T, date, at string) *model.Appointment {
	t.Helper()
	a, err := f.svc.Book(context.Background(), f.patient, model.CreateAppointmentRequest{DoctorID: f.doctor.UserID, Date: date, Time: at})
	require.NoError(t, err)
	return a
}

func TestBookCreatesPendingAndEmitsEvent(t *testing.T) {
	f := newFixture(t, Config{})

	a := f.book(t, "2030-01-11", "09:00")
	assert.Equal(t, model.AppointmentStatusPending, a.Status)
	assert.Equal(t, f.patient.UserID, a.PatientID)

	events := f.store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAppointmentCreated, events[0].EventType)

	var payload model.AppointmentEvent
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, a.ID, payload.AppointmentID)
}

func TestBookSameSlotTwiceConflicts(t *testing.T) {
	f := newFixture(t, Config{})
	f.book(t, "2030-01-11", "09:00")

	_, err := f.svc.Book(context.Background(), f.patient, model.CreateAppointmentRequest{DoctorID: f.doctor.UserID, Date: "2030-01-11", Time: "09:00"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Len(t, f.store.OutboxEvents(), 1)
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	tests := []struct {
		name  string
		req   model.CreateAppointmentRequest
		field string
	}{
		{"past", model.CreateAppointmentRequest{DoctorID: f.doctor.UserID, Date: "2030-01-10", Time: "10:00"}, "date"},
		{"not a doctor", model.CreateAppointmentRequest{DoctorID: f.patient.UserID, Date: "2030-01-11", Time: "10:00"}, "doctor_id"},
		{"unknown doctor", model.CreateAppointmentRequest{DoctorID: uuid.New(), Date: "2030-01-11", Time: "10:00"}, "doctor_id"},
		{"bad time", model.CreateAppointmentRequest{DoctorID: f.doctor.UserID, Date: "2030-01-11", Time: "25:00"}, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(ctx, f.patient, tt.req)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestBookRequiresFreeSlotWhenConfigured(t *testing.T) {
	f := newFixture(t, Config{RequireAvailability: true})
	ctx := context.Background()

	_, err := f.slots.Replace(ctx, f.doctor.UserID, []model.AvailabilityWindow{{Date: "2030-01-11", From: "09:00", To: "10:00"}})
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, f.patient, model.CreateAppointmentRequest{DoctorID: f.doctor.UserID, Date: "2030-01-11", Time: "10:00"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	f.book(t, "2030-01-11", "09:30")
}

func TestBookSameSlotTwiceConflictsWithAvailabilityRequired(t *testing.T) {
	f := newFixture(t, Config{RequireAvailability: true})
	ctx := context.Background()

	_, err := f.slots.Replace(ctx, f.doctor.UserID, []model.AvailabilityWindow{{Date: "2030-01-11", From: "09:00", To: "10:00"}})
	require.NoError(t, err)
	f.book(t, "2030-01-11", "09:00")

	_, err = f.svc.Book(ctx, f.patient, model.CreateAppointmentRequest{DoctorID: f.doctor.UserID, Date: "2030-01-11", Time: "09:00"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Len(t, f.store.OutboxEvents(), 1)
}

func TestStatusMachine(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	a := f.book(t, "2030-01-11", "09:00")

	got, err := f.svc.UpdateStatus(ctx, f.doctor, a.ID, model.AppointmentStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, got.Status)

	_, err = f.svc.UpdateStatus(ctx, f.doctor, a.ID, model.AppointmentStatusPending)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = f.svc.UpdateStatus(ctx, f.doctor, a.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.doctor, a.ID, model.AppointmentStatusCancelled)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	last := f.store.OutboxEvents()
	assert.Equal(t, model.EventAppointmentStatusChanged, last[len(last)-1].EventType)
}

func TestStatusUpdateAuthorization(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	a := f.book(t, "2030-01-11", "09:00")

	_, err := f.svc.UpdateStatus(ctx, f.patient, a.ID, model.AppointmentStatusConfirmed)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = f.svc.UpdateStatus(ctx, f.other, a.ID, model.AppointmentStatusConfirmed)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = f.svc.Get(ctx, f.other, a.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	d, err := f.svc.Get(ctx, f.admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc@example.com", d.DoctorName)
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	a := f.book(t, "2030-01-11", "09:00")

	_, err := f.svc.Cancel(ctx, f.doctor, a.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	got, err := f.svc.Cancel(ctx, f.patient, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)

	f.book(t, "2030-01-11", "09:00")
}

func TestDeleteIsHardAndPatientOnly(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	a := f.book(t, "2030-01-11", "09:00")

	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(f.svc.Delete(ctx, f.doctor, a.ID)))
	require.NoError(t, f.svc.Delete(ctx, f.patient, a.ID))

	_, err := f.svc.Get(ctx, f.patient, a.ID)
	assert.True(t, apperrors.IsNotFound(err))

	events := f.store.OutboxEvents()
	assert.Equal(t, model.EventAppointmentDeleted, events[len(events)-1].EventType)
}

func TestListIsScopedToCaller(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	a := f.book(t, "2030-01-11", "09:00")
	f.book(t, "2030-01-12", "09:00")
	_, err := f.svc.UpdateStatus(ctx, f.doctor, a.ID, model.AppointmentStatusConfirmed)
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, f.patient, model.AppointmentListQuery{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := f.svc.List(ctx, f.other, model.AppointmentListQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)

	confirmed, err := f.svc.List(ctx, f.admin, model.AppointmentListQuery{Status: model.AppointmentStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, a.ID, confirmed[0].ID)
}

func TestUpcomingAddsSlotEnd(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	later := f.book(t, "2030-01-12", "09:30")
	sooner := f.book(t, "2030-01-11", "16:00")
	cancelled := f.book(t, "2030-01-11", "17:00")
	_, err := f.svc.Cancel(ctx, f.patient, cancelled.ID)
	require.NoError(t, err)

	up, err := f.svc.Upcoming(ctx, f.patient.UserID)
	require.NoError(t, err)
	require.Len(t, up, 2)
	assert.Equal(t, sooner.ID, up[0].ID)
	assert.Equal(t, "16:30", up[0].TimeEnd)
	assert.Equal(t, later.ID, up[1].ID)
	assert.Equal(t, "10:00", up[1].TimeEnd)
}
