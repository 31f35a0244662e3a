package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
)

type statsRepository struct {
	BaseRepository
}

func NewStatsRepository(base BaseRepository) repository.StatsRepository {
	return &statsRepository{base}
}

func (r *statsRepository) AdminStats(ctx context.Context) (*model.AdminStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM reviews WHERE status = 'pending') AS pending_reviews,
			(SELECT COUNT(*) FROM users WHERE role = 'admin') AS admins,
			(SELECT COUNT(*) FROM users WHERE role = 'doctor') AS doctors,
			(SELECT COUNT(*) FROM users WHERE role = 'patient') AS patients
	`

	var s model.AdminStats
	if err := r.conn(ctx).GetContext(ctx, &s, query); err != nil {
		return nil, fmt.Errorf("failed to load admin stats: %w", err)
	}
	return &s, nil
}

func (r *statsRepository) DoctorStats(ctx context.Context, doctorID uuid.UUID, today string) (*model.DoctorStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE a.status = 'confirmed' AND a.appointment_date >= $2) AS confirmed_appointments,
			COUNT(*) FILTER (WHERE a.status = 'pending' AND a.appointment_date >= $2) AS pending_appointments,
			(SELECT COUNT(*) FROM availabilities WHERE doctor_id = $1) AS available_slots,
			COUNT(DISTINCT a.patient_id) AS total_patients
		FROM appointments a
		WHERE a.doctor_id = $1
	`

	var s model.DoctorStats
	if err := r.conn(ctx).GetContext(ctx, &s, query, doctorID, today); err != nil {
		return nil, fmt.Errorf("failed to load doctor stats: %w", err)
	}
	return &s, nil
}

func (r *statsRepository) PatientStats(ctx context.Context, patientID uuid.UUID, today string) (*model.PatientStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE a.status IN ('pending', 'confirmed') AND a.appointment_date >= $2) AS upcoming_appointments,
			COUNT(*) FILTER (WHERE a.status = 'completed') AS completed_appointments,
			(SELECT COUNT(*) FROM patient_doctor_bookmarks WHERE patient_id = $1) AS saved_doctors
		FROM appointments a
		WHERE a.patient_id = $1
	`

	var s model.PatientStats
	if err := r.conn(ctx).GetContext(ctx, &s, query, patientID, today); err != nil {
		return nil, fmt.Errorf("failed to load patient stats: %w", err)
	}
	return &s, nil
}
