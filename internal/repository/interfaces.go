package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
)

// All repository interfaces in one file
type (
	// Transactor runs fn in a transaction carried by the context. Repository calls made with
	// that context join it; a nested WithinTx joins the outer transaction.
	Transactor interface {
		WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.UserFilter) ([]*model.User, error)
		// EmailTaken ignores the user exceptID, so a user may keep their own email.
		EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error)
		ListDoctors(ctx context.Context, filter model.UserFilter) ([]*model.Doctor, error)
		GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	}

	// TokenRepository tracks issued access tokens by their jti.
	TokenRepository interface {
		Store(ctx context.Context, userID, tokenID uuid.UUID, expiresAt time.Time) error
		Exists(ctx context.Context, tokenID uuid.UUID) (bool, error)
		DeleteByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
		DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	}

	AvailabilityRepository interface {
		Create(ctx context.Context, a *model.Availability) error
		DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
		DeleteOwned(ctx context.Context, id, doctorID uuid.UUID) error
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error)
		ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Availability, error)
		FutureDates(ctx context.Context, doctorID uuid.UUID, from string) ([]string, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, a *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
		ExistsActive(ctx context.Context, doctorID uuid.UUID, date, at string) (bool, error)
		BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
		// UpdateStatus moves the row from one status to another and fails with Conflict if
		// the row is no longer in from.
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error)
	}

	ReviewRepository interface {
		Create(ctx context.Context, r *model.Review) error
		Get(ctx context.Context, id uuid.UUID) (*model.ReviewDetail, error)
		ExistsForPair(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
		List(ctx context.Context, filter model.ReviewFilter) ([]*model.ReviewDetail, int, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ReviewStatus) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	BookmarkRepository interface {
		// Add is idempotent.
		Add(ctx context.Context, patientID, doctorID uuid.UUID) error
		Remove(ctx context.Context, patientID, doctorID uuid.UUID) error
		ListDoctors(ctx context.Context, patientID uuid.UUID) ([]*model.Doctor, error)
	}

	StatsRepository interface {
		AdminStats(ctx context.Context) (*model.AdminStats, error)
		DoctorStats(ctx context.Context, doctorID uuid.UUID, today string) (*model.DoctorStats, error)
		PatientStats(ctx context.Context, patientID uuid.UUID, today string) (*model.PatientStats, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending locks due events; it must run inside WithinTx.
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time, dead bool) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
