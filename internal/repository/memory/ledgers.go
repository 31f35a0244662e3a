package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

type availabilityRepository struct{ s *Store }

func (r *availabilityRepository) Create(_ context.Context, a *model.Availability) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Availability.Create"); err != nil {
		return err
	}
	if a.EndTime <= a.StartTime {
		return errors.New("availabilities: check constraint end_time > start_time violated")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := s.tick()
	a.CreatedAt, a.UpdatedAt = now, now
	s.availability[a.ID] = *a
	return nil
}

func (r *availabilityRepository) DeleteByDoctor(_ context.Context, doctorID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Availability.DeleteByDoctor"); err != nil {
		return err
	}
	for id, a := range s.availability {
		if a.DoctorID == doctorID {
			delete(s.availability, id)
		}
	}
	return nil
}

func (r *availabilityRepository) DeleteOwned(_ context.Context, id, doctorID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.availability[id]
	if !ok || a.DoctorID != doctorID {
		return apperrors.NotFound("availability", nil)
	}
	delete(s.availability, id)
	return nil
}

func (r *availabilityRepository) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.Availability, error) {
	return r.list(func(a model.Availability) bool { return a.DoctorID == doctorID }), nil
}

func (r *availabilityRepository) ListByDoctorDate(_ context.Context, doctorID uuid.UUID, date string) ([]*model.Availability, error) {
	return r.list(func(a model.Availability) bool { return a.DoctorID == doctorID && a.Date == date }), nil
}

func (r *availabilityRepository) FutureDates(_ context.Context, doctorID uuid.UUID, from string) ([]string, error) {
	dates := []string{}
	for _, a := range r.list(func(a model.Availability) bool { return a.DoctorID == doctorID && a.Date >= from }) {
		dates = append(dates, a.Date)
	}
	return slices.Compact(dates), nil
}

func (r *availabilityRepository) list(keep func(model.Availability) bool) []*model.Availability {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Availability{}
	for _, a := range s.availability {
		if keep(a) {
			out = append(out, &a)
		}
	}
	slices.SortFunc(out, func(a, b *model.Availability) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.StartTime, b.StartTime))
	})
	return out
}

type appointmentRepository struct{ s *Store }

func (r *appointmentRepository) Create(_ context.Context, a *model.Appointment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Appointments.Create"); err != nil {
		return err
	}
	if !s.exists(a.PatientID) || !s.exists(a.DoctorID) {
		return apperrors.NotFound("referenced record", nil)
	}
	if s.slotTaken(a.DoctorID, a.Date, a.Time, uuid.Nil) {
		return apperrors.Conflict("this time slot is already booked", nil)
	}
	a.Touch(s.tick())
	s.appointments[a.ID] = *a
	return nil
}

func (r *appointmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return &a, nil
}

func (r *appointmentRepository) GetDetail(_ context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return s.appointmentDetail(a), nil
}

func (r *appointmentRepository) ExistsActive(_ context.Context, doctorID uuid.UUID, date, at string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotTaken(doctorID, date, at, uuid.Nil), nil
}

func (r *appointmentRepository) BookedTimes(_ context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	times := []string{}
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && a.Date == date && a.Status.Active() {
			times = append(times, a.Time)
		}
	}
	slices.Sort(times)
	return times, nil
}

func (r *appointmentRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Appointments.UpdateStatus"); err != nil {
		return err
	}
	a, ok := s.appointments[id]
	if !ok || a.Status != from {
		return apperrors.Conflict("appointment status changed concurrently", nil)
	}
	if to.Active() && s.slotTaken(a.DoctorID, a.Date, a.Time, a.ID) {
		return apperrors.Conflict("this time slot is already booked", nil)
	}
	a.Status = to
	a.UpdatedAt = s.tick()
	s.appointments[id] = a
	return nil
}

func (r *appointmentRepository) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	delete(s.appointments, id)
	return nil
}

func (r *appointmentRepository) List(_ context.Context, f model.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*model.AppointmentDetail{}
	for _, a := range s.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
			continue
		}
		if f.FromDate != "" && a.Date < f.FromDate {
			continue
		}
		out = append(out, s.appointmentDetail(a))
	}
	slices.SortFunc(out, func(a, b *model.AppointmentDetail) int {
		c := cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.Time, b.Time))
		if f.Ascending {
			return c
		}
		return -c
	})
	return out, nil
}

// mu must be held by the helpers below.

func (s *Store) exists(id uuid.UUID) bool {
	_, ok := s.users[id]
	return ok
}

func (s *Store) slotTaken(doctorID uuid.UUID, date, at string, except uuid.UUID) bool {
	for _, a := range s.appointments {
		if a.ID != except && a.DoctorID == doctorID && a.Date == date && a.Time == at && a.Status.Active() {
			return true
		}
	}
	return false
}

func (s *Store) appointmentDetail(a model.Appointment) *model.AppointmentDetail {
	p, d := s.users[a.PatientID], s.users[a.DoctorID]
	return &model.AppointmentDetail{
		Appointment:     a,
		PatientName:     p.Name,
		PatientEmail:    p.Email,
		PatientPhone:    p.Phone,
		DoctorName:      d.Name,
		DoctorSpecialty: d.Specialty,
	}
}

type reviewRepository struct{ s *Store }

func (r *reviewRepository) Create(_ context.Context, rv *model.Review) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Reviews.Create"); err != nil {
		return err
	}
	if !s.exists(rv.PatientID) || !s.exists(rv.DoctorID) {
		return apperrors.NotFound("referenced record", nil)
	}
	for _, existing := range s.reviews {
		if existing.PatientID == rv.PatientID && existing.DoctorID == rv.DoctorID {
			return apperrors.Conflict("you have already reviewed this doctor", nil)
		}
	}
	rv.Touch(s.tick())
	s.reviews[rv.ID] = *rv
	return nil
}

func (r *reviewRepository) Get(_ context.Context, id uuid.UUID) (*model.ReviewDetail, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", nil)
	}
	return s.reviewDetail(rv), nil
}

func (r *reviewRepository) ExistsForPair(_ context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.reviews {
		if rv.PatientID == patientID && rv.DoctorID == doctorID {
			return true, nil
		}
	}
	return false, nil
}

func (r *reviewRepository) List(_ context.Context, f model.ReviewFilter) ([]*model.ReviewDetail, int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	all := []*model.ReviewDetail{}
	for _, rv := range s.reviews {
		if f.DoctorID != nil && rv.DoctorID != *f.DoctorID {
			continue
		}
		if f.PatientID != nil && rv.PatientID != *f.PatientID {
			continue
		}
		if f.Status != "" && rv.Status != f.Status {
			continue
		}
		all = append(all, s.reviewDetail(rv))
	}
	slices.SortFunc(all, func(a, b *model.ReviewDetail) int { return b.CreatedAt.Compare(a.CreatedAt) })

	total := len(all)
	if f.Page.Size <= 0 {
		return all, total, nil
	}
	start := min(f.Page.Offset(), total)
	end := min(start+f.Page.Limit(), total)
	return all[start:end], total, nil
}

func (r *reviewRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.ReviewStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok || rv.Status != from {
		return apperrors.Conflict("review status changed concurrently", nil)
	}
	rv.Status = to
	rv.UpdatedAt = s.tick()
	s.reviews[id] = rv
	return nil
}

func (r *reviewRepository) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return apperrors.NotFound("review", nil)
	}
	delete(s.reviews, id)
	return nil
}

func (s *Store) reviewDetail(rv model.Review) *model.ReviewDetail {
	return &model.ReviewDetail{
		Review:      rv,
		PatientName: s.users[rv.PatientID].Name,
		DoctorName:  s.users[rv.DoctorID].Name,
	}
}

type bookmarkRepository struct{ s *Store }

func (r *bookmarkRepository) Add(_ context.Context, patientID, doctorID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists(patientID) || !s.exists(doctorID) {
		return apperrors.NotFound("referenced record", nil)
	}
	key := bookmarkKey{patientID: patientID, doctorID: doctorID}
	if _, ok := s.bookmarks[key]; !ok {
		s.bookmarks[key] = s.tick()
	}
	return nil
}

func (r *bookmarkRepository) Remove(_ context.Context, patientID, doctorID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, bookmarkKey{patientID: patientID, doctorID: doctorID})
	return nil
}

func (r *bookmarkRepository) ListDoctors(_ context.Context, patientID uuid.UUID) ([]*model.Doctor, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	type saved struct {
		doctor *model.Doctor
		at     time.Time
	}
	var rows []saved
	for k, at := range s.bookmarks {
		if k.patientID == patientID {
			rows = append(rows, saved{doctor: s.doctor(s.users[k.doctorID]), at: at})
		}
	}
	slices.SortFunc(rows, func(a, b saved) int { return b.at.Compare(a.at) })

	out := make([]*model.Doctor, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.doctor)
	}
	return out, nil
}

type statsRepository struct{ s *Store }

func (r *statsRepository) AdminStats(context.Context) (*model.AdminStats, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &model.AdminStats{TotalUsers: len(s.users)}
	for _, u := range s.users {
		switch u.Role {
		case model.RoleAdmin:
			st.Admins++
		case model.RoleDoctor:
			st.Doctors++
		case model.RolePatient:
			st.Patients++
		}
	}
	for _, rv := range s.reviews {
		if rv.Status == model.ReviewStatusPending {
			st.PendingReviews++
		}
	}
	return st, nil
}

func (r *statsRepository) DoctorStats(_ context.Context, doctorID uuid.UUID, today string) (*model.DoctorStats, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &model.DoctorStats{}
	patients := map[uuid.UUID]struct{}{}
	for _, a := range s.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		patients[a.PatientID] = struct{}{}
		if a.Date < today {
			continue
		}
		switch a.Status {
		case model.AppointmentStatusConfirmed:
			st.ConfirmedAppointments++
		case model.AppointmentStatusPending:
			st.PendingAppointments++
		}
	}
	st.TotalPatients = len(patients)
	for _, a := range s.availability {
		if a.DoctorID == doctorID {
			st.AvailableSlots++
		}
	}
	return st, nil
}

func (r *statsRepository) PatientStats(_ context.Context, patientID uuid.UUID, today string) (*model.PatientStats, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &model.PatientStats{}
	for _, a := range s.appointments {
		if a.PatientID != patientID {
			continue
		}
		switch {
		case a.Status == model.AppointmentStatusCompleted:
			st.CompletedAppointments++
		case (a.Status == model.AppointmentStatusPending || a.Status == model.AppointmentStatusConfirmed) && a.Date >= today:
			st.UpcomingAppointments++
		}
	}
	for k := range s.bookmarks {
		if k.patientID == patientID {
			st.SavedDoctors++
		}
	}
	return st, nil
}
