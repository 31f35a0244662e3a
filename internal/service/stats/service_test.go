package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository/memory"
)

func TestDashboards(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewService(store.Stats(), nil)
	svc.now = func() time.Time { return time.Date(2030, 1, 10, 8, 0, 0, 0, time.UTC) }

	mk := func(role model.Role, email string) *model.User {
		u := &model.User{Name: email, Email: email, Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return u
	}
	mk(model.RoleAdmin, "admin@example.com")
	doctor := mk(model.RoleDoctor, "doc@example.com")
	patient := mk(model.RolePatient, "pat@example.com")

	appts := []model.Appointment{
		{Date: "2030-01-09", Time: "09:00", Status: model.AppointmentStatusCompleted},
		{Date: "2030-01-09", Time: "10:00", Status: model.AppointmentStatusConfirmed},
		{Date: "2030-01-10", Time: "09:00", Status: model.AppointmentStatusConfirmed},
		{Date: "2030-01-11", Time: "09:00", Status: model.AppointmentStatusPending},
		{Date: "2030-01-11", Time: "10:00", Status: model.AppointmentStatusCancelled},
	}
	for _, a := range appts {
		a.PatientID, a.DoctorID = patient.ID, doctor.ID
		require.NoError(t, store.Appointments().Create(ctx, &a))
	}
	require.NoError(t, store.Availability().Create(ctx, &model.Availability{DoctorID: doctor.ID, Date: "2030-01-11", StartTime: "09:00", EndTime: "12:00"}))
	require.NoError(t, store.Reviews().Create(ctx, &model.Review{PatientID: patient.ID, DoctorID: doctor.ID, Rating: 5, Status: model.ReviewStatusPending}))
	require.NoError(t, store.Bookmarks().Add(ctx, patient.ID, doctor.ID))

	admin, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AdminStats{TotalUsers: 3, PendingReviews: 1, Admins: 1, Doctors: 1, Patients: 1}, *admin)

	doc, err := svc.Doctor(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DoctorStats{ConfirmedAppointments: 1, PendingAppointments: 1, AvailableSlots: 1, TotalPatients: 1}, *doc)

	pat, err := svc.Patient(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientStats{UpcomingAppointments: 2, CompletedAppointments: 1, SavedDoctors: 1}, *pat)
}
