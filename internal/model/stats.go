package model

type AdminStats struct {
	TotalUsers     int `json:"total_users" db:"total_users"`
	PendingReviews int `json:"pending_reviews" db:"pending_reviews"`
	Admins         int `json:"admins" db:"admins"`
	Doctors        int `json:"doctors" db:"doctors"`
	Patients       int `json:"patients" db:"patients"`
}

type DoctorStats struct {
	ConfirmedAppointments int `json:"confirmed_appointments" db:"confirmed_appointments"`
	PendingAppointments   int `json:"pending_appointments" db:"pending_appointments"`
	AvailableSlots        int `json:"available_slots" db:"available_slots"`
	TotalPatients         int `json:"total_patients" db:"total_patients"`
}

type PatientStats struct {
	UpcomingAppointments  int `json:"upcoming_appointments" db:"upcoming_appointments"`
	CompletedAppointments int `json:"completed_appointments" db:"completed_appointments"`
	SavedDoctors          int `json:"saved_doctors" db:"saved_doctors"`
}
