package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/docbook-api/internal/model"
)

func TestCan(t *testing.T) {
	tests := []struct {
		role model.Role
		cap  Capability
		want bool
	}{
		{model.RolePatient, BookAppointment, true},
		{model.RoleDoctor, BookAppointment, false},
		{model.RoleAdmin, BookAppointment, false},
		{model.RoleDoctor, ManageAvailability, true},
		{model.RolePatient, ManageAvailability, false},
		{model.RoleAdmin, ManageUsers, true},
		{model.RoleDoctor, ManageUsers, false},
		{model.RolePatient, ManageBookmarks, true},
		{model.RoleDoctor, ModerateReviews, true},
		{model.RolePatient, ModerateReviews, false},
		{model.Role("nurse"), ViewDoctors, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.cap), func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.cap))
		})
	}
}

func TestReviewOwnership(t *testing.T) {
	patient := &model.Principal{UserID: uuid.New(), Role: model.RolePatient}
	doctor := &model.Principal{UserID: uuid.New(), Role: model.RoleDoctor}
	otherDoctor := &model.Principal{UserID: uuid.New(), Role: model.RoleDoctor}
	stranger := &model.Principal{UserID: uuid.New(), Role: model.RolePatient}
	admin := &model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}

	review := &model.Review{PatientID: patient.UserID, DoctorID: doctor.UserID, Status: model.ReviewStatusPending}

	assert.True(t, CanModerateReview(admin, review))
	assert.True(t, CanModerateReview(doctor, review))
	assert.False(t, CanModerateReview(otherDoctor, review))
	assert.False(t, CanModerateReview(patient, review))

	assert.True(t, CanDeleteReview(patient, review))
	assert.True(t, CanDeleteReview(doctor, review))
	assert.False(t, CanDeleteReview(stranger, review))

	assert.False(t, CanViewReview(stranger, review))
	review.Status = model.ReviewStatusApproved
	assert.True(t, CanViewReview(stranger, review))
}

func TestAppointmentOwnership(t *testing.T) {
	patient := &model.Principal{UserID: uuid.New(), Role: model.RolePatient}
	doctor := &model.Principal{UserID: uuid.New(), Role: model.RoleDoctor}
	admin := &model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	appt := &model.Appointment{PatientID: patient.UserID, DoctorID: doctor.UserID}

	assert.True(t, CanViewAppointment(patient, appt))
	assert.True(t, CanViewAppointment(doctor, appt))
	assert.True(t, CanViewAppointment(admin, appt))
	assert.False(t, CanViewAppointment(&model.Principal{UserID: uuid.New(), Role: model.RolePatient}, appt))

	assert.True(t, CanSetAppointmentStatus(doctor, appt))
	assert.False(t, CanSetAppointmentStatus(admin, appt))
	assert.False(t, CanSetAppointmentStatus(patient, appt))

	assert.True(t, CanRemoveAppointment(patient, appt))
	assert.False(t, CanRemoveAppointment(doctor, appt))
}
