package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
)

// DATE and TIME columns are read back as text so they round-trip as Y-m-d and H:i.
const availabilityColumns = `id, doctor_id, date::text AS date,
	to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time,
	created_at, updated_at`

type availabilityRepository struct {
	BaseRepository
}

func NewAvailabilityRepository(base BaseRepository) repository.AvailabilityRepository {
	return &availabilityRepository{base}
}

func (r *availabilityRepository) Create(ctx context.Context, a *model.Availability) error {
	query := `
		INSERT INTO availabilities (id, doctor_id, date, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt, a.UpdatedAt = now, now

	_, err := r.conn(ctx).ExecContext(ctx, query, a.ID, a.DoctorID, a.Date, a.StartTime, a.EndTime, a.CreatedAt, a.UpdatedAt)
	return mapError(err, "availability")
}

func (r *availabilityRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if _, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM availabilities WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("failed to clear availability: %w", err)
	}
	return nil
}

// DeleteOwned deletes the window only if it belongs to doctorID.
func (r *availabilityRepository) DeleteOwned(ctx context.Context, id, doctorID uuid.UUID) error {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM availabilities WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return mapError(err, "availability")
	}
	return expectRows(res, "availability")
}

func (r *availabilityRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availabilities WHERE doctor_id = $1 ORDER BY date, start_time`

	out := []*model.Availability{}
	if err := r.conn(ctx).SelectContext(ctx, &out, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return out, nil
}

func (r *availabilityRepository) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Availability, error) {
	query := `SELECT ` + availabilityColumns + `
		FROM availabilities WHERE doctor_id = $1 AND date = $2 ORDER BY start_time`

	out := []*model.Availability{}
	if err := r.conn(ctx).SelectContext(ctx, &out, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return out, nil
}

func (r *availabilityRepository) FutureDates(ctx context.Context, doctorID uuid.UUID, from string) ([]string, error) {
	query := `
		SELECT DISTINCT date::text
		FROM availabilities
		WHERE doctor_id = $1 AND date >= $2
		ORDER BY 1
	`

	dates := []string{}
	if err := r.conn(ctx).SelectContext(ctx, &dates, query, doctorID, from); err != nil {
		return nil, fmt.Errorf("failed to list available dates: %w", err)
	}
	return dates, nil
}
