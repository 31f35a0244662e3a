package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

const reviewDetailSelect = `
	SELECT r.id, r.patient_id, r.doctor_id, r.rating, r.comment, r.status, r.created_at, r.updated_at,
		p.name AS patient_name, d.name AS doctor_name
	FROM reviews r
	JOIN users p ON p.id = r.patient_id
	JOIN users d ON d.id = r.doctor_id
`

type reviewRepository struct {
	BaseRepository
}

func NewReviewRepository(base BaseRepository) repository.ReviewRepository {
	return &reviewRepository{base}
}

func (r *reviewRepository) Create(ctx context.Context, rv *model.Review) error {
	query := `
		INSERT INTO reviews (id, patient_id, doctor_id, rating, comment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	rv.Touch(time.Now())
	_, err := r.conn(ctx).ExecContext(ctx, query,
		rv.ID,
		rv.PatientID,
		rv.DoctorID,
		rv.Rating,
		rv.Comment,
		rv.Status,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		mapped := mapError(err, "review")
		if apperrors.IsConflict(mapped) {
			return apperrors.Conflict("you have already reviewed this doctor", err)
		}
		return mapped
	}
	return nil
}

func (r *reviewRepository) Get(ctx context.Context, id uuid.UUID) (*model.ReviewDetail, error) {
	var rv model.ReviewDetail
	if err := r.conn(ctx).GetContext(ctx, &rv, reviewDetailSelect+` WHERE r.id = $1`, id); err != nil {
		return nil, mapError(err, "review")
	}
	return &rv, nil
}

func (r *reviewRepository) ExistsForPair(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE patient_id = $1 AND doctor_id = $2)`

	var exists bool
	if err := r.conn(ctx).GetContext(ctx, &exists, query, patientID, doctorID); err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return exists, nil
}

// List returns one page, newest first, and the total number of matching rows. A zero page
// size returns every row.
func (r *reviewRepository) List(ctx context.Context, filter model.ReviewFilter) ([]*model.ReviewDetail, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.DoctorID != nil {
		add("r.doctor_id = $%d", *filter.DoctorID)
	}
	if filter.PatientID != nil {
		add("r.patient_id = $%d", *filter.PatientID)
	}
	if filter.Status != "" {
		add("r.status = $%d", filter.Status)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.conn(ctx).GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews r`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := reviewDetailSelect + where + ` ORDER BY r.created_at DESC`
	if filter.Page.Size > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Page.Limit(), filter.Page.Offset())
	}

	out := []*model.ReviewDetail{}
	if err := r.conn(ctx).SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return out, total, nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ReviewStatus) error {
	query := `UPDATE reviews SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	res, err := r.conn(ctx).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return mapError(err, "review")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.Conflict("review status changed concurrently", nil)
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "review")
	}
	return expectRows(res, "review")
}
