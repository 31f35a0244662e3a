package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
)

const userColumns = `u.id, u.name, u.email, u.password_hash, u.role, u.phone, u.gender, u.city,
	u.specialty, u.profile_photo_path, u.created_at, u.updated_at`

// doctorSelect carries the aggregate over approved reviews.
const doctorSelect = `
	SELECT ` + userColumns + `,
		COUNT(r.id) AS reviews_count,
		AVG(r.rating)::float8 AS reviews_avg_rating
	FROM users u
	LEFT JOIN reviews r ON r.doctor_id = u.id AND r.status = 'approved'
`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, name, email, password_hash, role, phone, gender,
			city, specialty, profile_photo_path, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	user.Touch(time.Now())

	_, err := r.conn(ctx).ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.Gender,
		user.City,
		user.Specialty,
		user.ProfilePhotoPath,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapError(err, "user")
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	var user model.User
	if err := r.conn(ctx).GetContext(ctx, &user, query, id); err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE LOWER(u.email) = LOWER($1)`

	var user model.User
	if err := r.conn(ctx).GetContext(ctx, &user, query, email); err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			name = $1,
			email = $2,
			password_hash = $3,
			role = $4,
			phone = $5,
			gender = $6,
			city = $7,
			specialty = $8,
			profile_photo_path = $9,
			updated_at = $10
		WHERE id = $11
	`

	user.UpdatedAt = time.Now()
	res, err := r.conn(ctx).ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.Gender,
		user.City,
		user.Specialty,
		user.ProfilePhotoPath,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapError(err, "user")
	}
	return expectRows(res, "user")
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "user")
	}
	return expectRows(res, "user")
}

func (r *userRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	where, args := userWhere(filter)
	query := `SELECT ` + userColumns + ` FROM users u` + where + ` ORDER BY u.created_at DESC`

	users := []*model.User{}
	if err := r.conn(ctx).SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`

	var taken bool
	if err := r.conn(ctx).GetContext(ctx, &taken, query, email, exceptID); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}

func (r *userRepository) ListDoctors(ctx context.Context, filter model.UserFilter) ([]*model.Doctor, error) {
	filter.Role = model.RoleDoctor
	where, args := userWhere(filter)
	query := doctorSelect + where + ` GROUP BY u.id ORDER BY u.name`

	doctors := []*model.Doctor{}
	if err := r.conn(ctx).SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *userRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := doctorSelect + ` WHERE u.id = $1 AND u.role = 'doctor' GROUP BY u.id`

	var doctor model.Doctor
	if err := r.conn(ctx).GetContext(ctx, &doctor, query, id); err != nil {
		return nil, mapError(err, "doctor")
	}
	return &doctor, nil
}

func userWhere(filter model.UserFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Role != "" {
		add("u.role = $%d", filter.Role)
	}
	if filter.City != "" {
		add("u.city ILIKE $%d", "%"+filter.City+"%")
	}
	if filter.Specialty != "" {
		add("u.specialty ILIKE $%d", "%"+filter.Specialty+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
