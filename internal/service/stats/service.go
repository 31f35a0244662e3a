package stats

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
)

// Service serves the dashboard counters of each role.
type Service struct {
	repo repository.StatsRepository
	loc  *time.Location
	now  func() time.Time
}

func NewService(repo repository.StatsRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

func (s *Service) Admin(ctx context.Context) (*model.AdminStats, error) {
	return s.repo.AdminStats(ctx)
}

func (s *Service) Doctor(ctx context.Context, doctorID uuid.UUID) (*model.DoctorStats, error) {
	return s.repo.DoctorStats(ctx, doctorID, s.today())
}

func (s *Service) Patient(ctx context.Context, patientID uuid.UUID) (*model.PatientStats, error) {
	return s.repo.PatientStats(ctx, patientID, s.today())
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format(model.DateLayout)
}
