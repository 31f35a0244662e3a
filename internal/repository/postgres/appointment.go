package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

const appointmentColumns = `a.id, a.patient_id, a.doctor_id, a.appointment_date::text AS appointment_date,
	to_char(a.appointment_time, 'HH24:MI') AS appointment_time, a.status, a.created_at, a.updated_at`

const appointmentDetailSelect = `
	SELECT ` + appointmentColumns + `,
		p.name AS patient_name, p.email AS patient_email, p.phone AS patient_phone,
		d.name AS doctor_name, d.specialty AS doctor_specialty
	FROM appointments a
	JOIN users p ON p.id = a.patient_id
	JOIN users d ON d.id = a.doctor_id
`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, appointment_date, appointment_time, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	a.Touch(time.Now())
	_, err := r.conn(ctx).ExecContext(ctx, query,
		a.ID,
		a.PatientID,
		a.DoctorID,
		a.Date,
		a.Time,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return slotError(err)
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`

	var a model.Appointment
	if err := r.conn(ctx).GetContext(ctx, &a, query, id); err != nil {
		return nil, mapError(err, "appointment")
	}
	return &a, nil
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	var a model.AppointmentDetail
	if err := r.conn(ctx).GetContext(ctx, &a, appointmentDetailSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, mapError(err, "appointment")
	}
	return &a, nil
}

func (r *appointmentRepository) ExistsActive(ctx context.Context, doctorID uuid.UUID, date, at string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3
			AND status <> 'cancelled'
		)
	`

	var exists bool
	if err := r.conn(ctx).GetContext(ctx, &exists, query, doctorID, date, at); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return exists, nil
}

// BookedTimes lists the H:i of every live booking of the doctor on date.
func (r *appointmentRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	query := `
		SELECT to_char(appointment_time, 'HH24:MI')
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND status <> 'cancelled'
		ORDER BY appointment_time
	`

	times := []string{}
	if err := r.conn(ctx).SelectContext(ctx, &times, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list booked times: %w", err)
	}
	return times, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	res, err := r.conn(ctx).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return slotError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.Conflict("appointment status changed concurrently", nil)
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "appointment")
	}
	return expectRows(res, "appointment")
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.PatientID != nil {
		add("a.patient_id = $%d", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		add("a.doctor_id = $%d", *filter.DoctorID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		add("a.status = ANY($%d)", pq.Array(statuses))
	}
	if filter.FromDate != "" {
		add("a.appointment_date >= $%d", filter.FromDate)
	}

	query := appointmentDetailSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if filter.Ascending {
		query += " ORDER BY a.appointment_date ASC, a.appointment_time ASC"
	} else {
		query += " ORDER BY a.appointment_date DESC, a.appointment_time DESC"
	}

	out := []*model.AppointmentDetail{}
	if err := r.conn(ctx).SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return out, nil
}

// slotError reports a hit on the active slot index as a booked slot.
func slotError(err error) error {
	mapped := mapError(err, "appointment")
	if apperrors.IsConflict(mapped) {
		return apperrors.Conflict("this time slot is already booked", err)
	}
	return mapped
}
