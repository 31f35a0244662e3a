package appointment

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/internal/service/event"
	"github.com/jwalitptl/docbook-api/internal/slot"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

const msgSlotBooked = "this time slot is already booked"

// SlotFinder lists the bookable times of a doctor on a date.
type SlotFinder interface {
	FreeTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
}

type Config struct {
	Location *time.Location
	Step     time.Duration
	// RequireAvailability restricts bookings to the doctor's free slots.
	RequireAvailability bool
}

type Service struct {
	repo   repository.AppointmentRepository
	users  repository.UserRepository
	tx     repository.Transactor
	events event.Emitter
	slots  SlotFinder
	cfg    Config
	now    func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	events event.Emitter,
	slots SlotFinder,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Step <= 0 {
		cfg.Step = slot.DefaultStep
	}
	return &Service{
		repo:   repo,
		users:  users,
		tx:     tx,
		events: events,
		slots:  slots,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Book creates a pending appointment for the calling patient. The early existence check gives
// the friendly error; the storage constraint settles races.
func (s *Service) Book(ctx context.Context, p *model.Principal, req model.CreateAppointmentRequest) (*model.Appointment, error) {
	doctor, err := s.users.Get(ctx, req.DoctorID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	if doctor == nil || !doctor.IsDoctor() {
		return nil, apperrors.FieldError("doctor_id", "the selected doctor is invalid")
	}

	at, err := slot.NormalizeClock(req.Time)
	if err != nil {
		return nil, apperrors.FieldError("time", "time must be a time in HH:MM format")
	}
	when, err := time.ParseInLocation(model.DateLayout+" "+model.TimeLayout, req.Date+" "+at, s.cfg.Location)
	if err != nil {
		return nil, apperrors.FieldError("date", "date must be a date in YYYY-MM-DD format")
	}
	if when.Before(s.now()) {
		return nil, apperrors.FieldError("date", "the appointment must not be in the past")
	}

	// A taken slot is a conflict even when availability is enforced, since free times already exclude it.
	taken, err := s.repo.ExistsActive(ctx, doctor.ID, req.Date, at)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict(msgSlotBooked, nil)
	}

	if s.cfg.RequireAvailability {
		free, err := s.slots.FreeTimes(ctx, doctor.ID, req.Date)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(free, at) {
			return nil, apperrors.FieldError("time", "the selected time is not available")
		}
	}

	a := &model.Appointment{
		PatientID: p.UserID,
		DoctorID:  doctor.ID,
		Date:      req.Date,
		Time:      at,
		Status:    model.AppointmentStatusPending,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.EventAppointmentCreated, model.NewAppointmentEvent(a, "", p.UserID))
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List scopes the listing to the caller: patients and doctors see their own, admins see all.
func (s *Service) List(ctx context.Context, p *model.Principal, q model.AppointmentListQuery) ([]*model.AppointmentDetail, error) {
	filter := model.AppointmentFilter{}
	switch p.Role {
	case model.RolePatient:
		filter.PatientID = &p.UserID
	case model.RoleDoctor:
		filter.DoctorID = &p.UserID
	case model.RoleAdmin:
	default:
		return nil, apperrors.Forbidden("forbidden")
	}
	if q.Status != "" {
		filter.Statuses = []model.AppointmentStatus{q.Status}
	}
	return s.repo.List(ctx, filter)
}

// Get hides appointments the caller is not party to behind a not found.
func (s *Service) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.AppointmentDetail, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewAppointment(p, &d.Appointment) {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return d, nil
}

// UpdateStatus is the doctor's transition of an appointment.
func (s *Service) UpdateStatus(ctx context.Context, p *model.Principal, id uuid.UUID, to model.AppointmentStatus) (*model.AppointmentDetail, error) {
	a, err := s.load(ctx, p, id, policy.CanSetAppointmentStatus, "only the doctor of this appointment can change its status")
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, p, a, to); err != nil {
		return nil, err
	}
	return s.repo.GetDetail(ctx, id)
}

// Cancel is the patient's way out of a booking; the row is kept as cancelled.
func (s *Service) Cancel(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.AppointmentDetail, error) {
	a, err := s.load(ctx, p, id, policy.CanRemoveAppointment, "only the patient of this appointment can cancel it")
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, p, a, model.AppointmentStatusCancelled); err != nil {
		return nil, err
	}
	return s.repo.GetDetail(ctx, id)
}

// Delete removes the patient's own appointment outright.
func (s *Service) Delete(ctx context.Context, p *model.Principal, id uuid.UUID) error {
	a, err := s.load(ctx, p, id, policy.CanRemoveAppointment, "only the patient of this appointment can delete it")
	if err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, a.ID); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.EventAppointmentDeleted, model.NewAppointmentEvent(a, "", p.UserID))
	})
}

// Upcoming lists the patient's pending and confirmed appointments from today, soonest first,
// each with the end of its slot.
func (s *Service) Upcoming(ctx context.Context, patientID uuid.UUID) ([]*model.UpcomingAppointment, error) {
	list, err := s.repo.List(ctx, model.AppointmentFilter{
		PatientID: &patientID,
		Statuses:  []model.AppointmentStatus{model.AppointmentStatusPending, model.AppointmentStatusConfirmed},
		FromDate:  s.now().In(s.cfg.Location).Format(model.DateLayout),
		Ascending: true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*model.UpcomingAppointment, 0, len(list))
	for _, d := range list {
		end, err := slot.End(d.Time, s.cfg.Step)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", d.ID, err)
		}
		out = append(out, &model.UpcomingAppointment{AppointmentDetail: *d, TimeEnd: end})
	}
	return out, nil
}

// load fetches an appointment and applies allowed. Callers who cannot even see it get a not
// found; parties without the right get forbidden.
func (s *Service) load(ctx context.Context, p *model.Principal, id uuid.UUID, allowed func(*model.Principal, *model.Appointment) bool, denied string) (*model.Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewAppointment(p, a) {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if !allowed(p, a) {
		return nil, apperrors.Forbidden(denied)
	}
	return a, nil
}

func (s *Service) transition(ctx context.Context, p *model.Principal, a *model.Appointment, to model.AppointmentStatus) error {
	from := a.Status
	if !from.CanTransitionTo(to) {
		return apperrors.Conflict(fmt.Sprintf("cannot change appointment status from %s to %s", from, to), nil)
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, a.ID, from, to); err != nil {
			return err
		}
		a.Status = to
		return s.events.Emit(ctx, model.EventAppointmentStatusChanged, model.NewAppointmentEvent(a, from, p.UserID))
	})
}
