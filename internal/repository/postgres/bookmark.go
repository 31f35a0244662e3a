package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
)

type bookmarkRepository struct {
	BaseRepository
}

func NewBookmarkRepository(base BaseRepository) repository.BookmarkRepository {
	return &bookmarkRepository{base}
}

func (r *bookmarkRepository) Add(ctx context.Context, patientID, doctorID uuid.UUID) error {
	query := `
		INSERT INTO patient_doctor_bookmarks (patient_id, doctor_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (patient_id, doctor_id) DO NOTHING
	`
	_, err := r.conn(ctx).ExecContext(ctx, query, patientID, doctorID)
	return mapError(err, "bookmark")
}

func (r *bookmarkRepository) Remove(ctx context.Context, patientID, doctorID uuid.UUID) error {
	query := `DELETE FROM patient_doctor_bookmarks WHERE patient_id = $1 AND doctor_id = $2`
	if _, err := r.conn(ctx).ExecContext(ctx, query, patientID, doctorID); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}

func (r *bookmarkRepository) ListDoctors(ctx context.Context, patientID uuid.UUID) ([]*model.Doctor, error) {
	query := doctorSelect + `
		JOIN patient_doctor_bookmarks b ON b.doctor_id = u.id
		WHERE b.patient_id = $1
		GROUP BY u.id, b.created_at
		ORDER BY b.created_at DESC
	`

	doctors := []*model.Doctor{}
	if err := r.conn(ctx).SelectContext(ctx, &doctors, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return doctors, nil
}
