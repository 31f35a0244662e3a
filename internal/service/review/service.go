package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/internal/service/event"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
)

const msgAlreadyReviewed = "you have already reviewed this doctor"

// Page is one page of reviews with the total across pages.
type Page struct {
	Items  []*model.ReviewDetail
	Total  int
	Number int
	Size   int
}

type Service struct {
	repo   repository.ReviewRepository
	users  repository.UserRepository
	tx     repository.Transactor
	events event.Emitter
}

func NewService(repo repository.ReviewRepository, users repository.UserRepository, tx repository.Transactor, events event.Emitter) *Service {
	return &Service{repo: repo, users: users, tx: tx, events: events}
}

// Submit records a pending review of a doctor by the calling patient. One review per pair.
func (s *Service) Submit(ctx context.Context, p *model.Principal, req model.CreateReviewRequest) (*model.Review, error) {
	doctor, err := s.users.Get(ctx, req.DoctorID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	if doctor == nil || !doctor.IsDoctor() {
		return nil, apperrors.FieldError("doctor_id", "the selected doctor is invalid")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.FieldError("rating", "rating must be between 1 and 5")
	}

	exists, err := s.repo.ExistsForPair(ctx, p.UserID, doctor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict(msgAlreadyReviewed, nil)
	}

	r := &model.Review{
		PatientID: p.UserID,
		DoctorID:  doctor.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Status:    model.ReviewStatusPending,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, r); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.EventReviewSubmitted, model.NewReviewEvent(r))
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Approved lists approved reviews newest first, optionally for one doctor.
func (s *Service) Approved(ctx context.Context, doctorID *uuid.UUID, page int) (*Page, error) {
	return s.list(ctx, model.ReviewFilter{DoctorID: doctorID, Status: model.ReviewStatusApproved, Page: model.NewPage(page)})
}

// DoctorReviews is Approved for a doctor that must exist.
func (s *Service) DoctorReviews(ctx context.Context, doctorID uuid.UUID, page int) (*Page, error) {
	if _, err := s.users.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.Approved(ctx, &doctorID, page)
}

// All is the admin listing of every review regardless of status, newest first and unpaginated.
func (s *Service) All(ctx context.Context) ([]*model.ReviewDetail, error) {
	items, _, err := s.repo.List(ctx, model.ReviewFilter{})
	return items, err
}

func (s *Service) Pending(ctx context.Context, page int) (*Page, error) {
	return s.list(ctx, model.ReviewFilter{Status: model.ReviewStatusPending, Page: model.NewPage(page)})
}

func (s *Service) Get(ctx context.Context, p *model.Principal, id uuid.UUID) (*model.ReviewDetail, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewReview(p, &r.Review) {
		return nil, apperrors.NotFound("review", nil)
	}
	return r, nil
}

// UpdateStatus approves or rejects a review. Only admins and the reviewed doctor may moderate.
func (s *Service) UpdateStatus(ctx context.Context, p *model.Principal, id uuid.UUID, to model.ReviewStatus) (*model.ReviewDetail, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModerateReview(p, &r.Review) {
		return nil, apperrors.Forbidden("you are not allowed to moderate this review")
	}

	from := r.Status
	if !from.CanTransitionTo(to) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change review status from %s to %s", from, to), nil)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
			return err
		}
		r.Status = to
		return s.events.Emit(ctx, model.EventReviewModerated, model.NewReviewEvent(&r.Review))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *model.Principal, id uuid.UUID) error {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteReview(p, &r.Review) {
		return apperrors.Forbidden("you are not allowed to delete this review")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) list(ctx context.Context, filter model.ReviewFilter) (*Page, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Number: filter.Page.Number, Size: filter.Page.Limit()}, nil
}
