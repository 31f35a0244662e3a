package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/internal/slot"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

const msgSaveFailed = "an error occurred while saving"

// Config carries the booking calendar settings.
type Config struct {
	Location *time.Location
	Step     time.Duration
}

type Service struct {
	repo  repository.AvailabilityRepository
	appts repository.AppointmentRepository
	users repository.UserRepository
	tx    repository.Transactor
	cfg   Config
	now   func() time.Time
}

func NewService(
	repo repository.AvailabilityRepository,
	appts repository.AppointmentRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Step <= 0 {
		cfg.Step = slot.DefaultStep
	}
	return &Service{
		repo:  repo,
		appts: appts,
		users: users,
		tx:    tx,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Replace swaps the doctor's whole availability set for windows. Either every window is saved
// or the previous set is kept.
func (s *Service) Replace(ctx context.Context, doctorID uuid.UUID, windows []model.AvailabilityWindow) ([]*model.Availability, error) {
	rows := make([]*model.Availability, 0, len(windows))
	for i, w := range windows {
		from, errFrom := slot.NormalizeClock(w.From)
		to, errTo := slot.NormalizeClock(w.To)
		if _, err := time.Parse(model.DateLayout, w.Date); err != nil {
			return nil, apperrors.FieldError(fmt.Sprintf("availabilities[%d].date", i), "date must be a date in YYYY-MM-DD format")
		}
		if errFrom != nil {
			return nil, apperrors.FieldError(fmt.Sprintf("availabilities[%d].from", i), "from must be a time in HH:MM format")
		}
		if errTo != nil {
			return nil, apperrors.FieldError(fmt.Sprintf("availabilities[%d].to", i), "to must be a time in HH:MM format")
		}
		if to <= from {
			return nil, apperrors.FieldError(fmt.Sprintf("availabilities[%d].to", i), "to must be a time after from")
		}
		rows = append(rows, &model.Availability{DoctorID: doctorID, Date: w.Date, StartTime: from, EndTime: to})
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteByDoctor(ctx, doctorID); err != nil {
			return err
		}
		for _, a := range rows {
			if err := s.repo.Create(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.InternalMessage(msgSaveFailed, err)
	}
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListOwn(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// Delete removes one window of the calling doctor; another doctor's window reads as not found.
func (s *Service) Delete(ctx context.Context, id, doctorID uuid.UUID) error {
	return s.repo.DeleteOwned(ctx, id, doctorID)
}

// Dates lists the distinct dates from today on which the doctor has any window.
func (s *Service) Dates(ctx context.Context, doctorID uuid.UUID) ([]string, error) {
	if _, err := s.users.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.FutureDates(ctx, doctorID, s.today())
}

// FreeTimes derives the slots of every window on date and drops the booked ones. Past dates
// have no free times, and on today only slots still ahead are offered.
func (s *Service) FreeTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	if _, err := s.users.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, apperrors.FieldError("date", "date must be a date in YYYY-MM-DD format")
	}

	today := s.today()
	if date < today {
		return []string{}, nil
	}

	windows, err := s.repo.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	lists := make([][]string, 0, len(windows))
	for _, w := range windows {
		times, err := slot.Times(w.StartTime, w.EndTime, s.cfg.Step)
		if err != nil {
			return nil, fmt.Errorf("availability %s: %w", w.ID, err)
		}
		lists = append(lists, times)
	}

	booked, err := s.appts.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	free := slot.Subtract(slot.Merge(lists...), booked)

	if date == today {
		cutoff := s.now().In(s.cfg.Location).Format(slot.Layout)
		upcoming := free[:0:0]
		for _, t := range free {
			if t > cutoff {
				upcoming = append(upcoming, t)
			}
		}
		free = upcoming
	}
	if free == nil {
		free = []string{}
	}
	return free, nil
}

func (s *Service) today() string {
	return s.now().In(s.cfg.Location).Format(model.DateLayout)
}
