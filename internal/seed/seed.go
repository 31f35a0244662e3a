// Package seed fills an empty database with fake doctors, patients and doctor availability
// for local development.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/security"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password"

var specialties = []string{
	"Cardiology",
	"Dermatology",
	"Endocrinology",
	"General Practice",
	"Neurology",
	"Ophthalmology",
	"Orthopedics",
	"Pediatrics",
	"Psychiatry",
}

// Daily windows offered by a seeded doctor.
var windows = [][2]string{
	{"09:00", "12:00"},
	{"14:00", "17:00"},
}

type Options struct {
	Doctors  int
	Patients int
	// Days of availability per doctor, starting tomorrow. Weekends are skipped.
	Days     int
	Password string
	// Seed makes the generated data reproducible; zero picks a random one.
	Seed uint64
}

type Result struct {
	Doctors      int
	Patients     int
	Availability int
}

type Seeder struct {
	users        repository.UserRepository
	availability repository.AvailabilityRepository
	tx           repository.Transactor
	hasher       security.PasswordHasher
	logger       *logger.Logger
	now          func() time.Time
}

func NewSeeder(users repository.UserRepository, availability repository.AvailabilityRepository, tx repository.Transactor, hasher security.PasswordHasher, logger *logger.Logger) *Seeder {
	return &Seeder{
		users:        users,
		availability: availability,
		tx:           tx,
		hasher:       hasher,
		logger:       logger.With("seed"),
		now:          time.Now,
	}
}

func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	hash, err := s.hasher.Hash(opts.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	faker := gofakeit.New(opts.Seed)
	dates := s.workdays(opts.Days)
	res := &Result{}

	for i := 0; i < opts.Doctors; i++ {
		u := s.fakeUser(faker, model.RoleDoctor, hash, i)
		u.Specialty = ptr(faker.RandomString(specialties))

		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.users.Create(ctx, u); err != nil {
				return err
			}
			for _, d := range dates {
				for _, w := range windows {
					a := &model.Availability{DoctorID: u.ID, Date: d, StartTime: w[0], EndTime: w[1]}
					if err := s.availability.Create(ctx, a); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("failed to seed doctor %s: %w", u.Email, err)
		}
		res.Doctors++
		res.Availability += len(dates) * len(windows)
	}

	for i := 0; i < opts.Patients; i++ {
		u := s.fakeUser(faker, model.RolePatient, hash, i)
		if err := s.users.Create(ctx, u); err != nil {
			return res, fmt.Errorf("failed to seed patient %s: %w", u.Email, err)
		}
		res.Patients++
	}

	s.logger.Info("seed complete", "doctors", res.Doctors, "patients", res.Patients, "availability", res.Availability)
	return res, nil
}

// fakeUser builds a user whose email is unique within one run.
func (s *Seeder) fakeUser(f *gofakeit.Faker, role model.Role, hash string, i int) *model.User {
	first, last := f.FirstName(), f.LastName()
	email := fmt.Sprintf("%s.%s.%s%d@docbook.test", strings.ToLower(first), strings.ToLower(last), role, i+1)
	return &model.User{
		Name:         first + " " + last,
		Email:        strings.ReplaceAll(email, " ", ""),
		PasswordHash: hash,
		Role:         role,
		Phone:        ptr(f.Numerify("+1##########")),
		Gender:       ptr(f.RandomString([]string{model.GenderMale, model.GenderFemale, model.GenderOther})),
		City:         ptr(f.City()),
	}
}

func (s *Seeder) workdays(n int) []string {
	out := make([]string, 0, n)
	day := s.now().UTC()
	for len(out) < n {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, day.Format(model.DateLayout))
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

// CreateAdmin adds an admin account. Admins cannot register through the API.
func CreateAdmin(ctx context.Context, users repository.UserRepository, hasher security.PasswordHasher, name, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < 8 {
		return nil, apperrors.Validation("name, email and a password of at least 8 characters are required", nil)
	}

	taken, err := users.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.FieldError("email", "the email has already been taken")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &model.User{Name: name, Email: email, PasswordHash: hash, Role: model.RoleAdmin}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
