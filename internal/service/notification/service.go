package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/email"
	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/repository"
	"github.com/jwalitptl/docbook-api/pkg/logger"
	"github.com/jwalitptl/docbook-api/pkg/messaging"
	"github.com/jwalitptl/docbook-api/pkg/metrics"
)

// Events the mailer reacts to.
var mailedEvents = []string{
	model.EventAppointmentCreated,
	model.EventAppointmentStatusChanged,
	model.EventAppointmentDeleted,
	model.EventReviewModerated,
}

// Mailer turns relayed domain events into emails for the party that did not cause them.
// Review moderation always goes to the author.
type Mailer struct {
	broker  messaging.Broker
	users   repository.UserRepository
	sender  email.Sender
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewMailer(broker messaging.Broker, users repository.UserRepository, sender email.Sender, logger *logger.Logger, metrics *metrics.Metrics) *Mailer {
	return &Mailer{
		broker:  broker,
		users:   users,
		sender:  sender,
		logger:  logger.With("mailer"),
		metrics: metrics,
	}
}

// Run consumes events until ctx is done. Failed sends are logged and dropped.
func (m *Mailer) Run(ctx context.Context) error {
	channels := make([]string, 0, len(mailedEvents))
	for _, t := range mailedEvents {
		channels = append(channels, messaging.Channel(t))
	}
	msgs, err := m.broker.Subscribe(ctx, channels...)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	m.logger.Info("mailer subscribed", "channels", channels)
	for msg := range msgs {
		if err := m.Handle(ctx, msg); err != nil {
			m.logger.Error(err, "failed to handle event", "channel", msg.Channel)
		}
	}
	return ctx.Err()
}

// Handle sends the email for one relayed event.
func (m *Mailer) Handle(ctx context.Context, msg messaging.Message) error {
	var env model.EventEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}

	mail, err := m.compose(ctx, env)
	if err != nil {
		m.metrics.NotificationsSent.WithLabelValues(env.Type, "error").Inc()
		return err
	}
	if mail == nil {
		return nil
	}

	if err := m.sender.Send(ctx, mail.to, mail.subject, mail.body); err != nil {
		m.metrics.NotificationsSent.WithLabelValues(env.Type, "error").Inc()
		return err
	}
	m.metrics.NotificationsSent.WithLabelValues(env.Type, "sent").Inc()
	return nil
}

type message struct {
	to, subject, body string
}

func (m *Mailer) compose(ctx context.Context, env model.EventEnvelope) (*message, error) {
	switch env.Type {
	case model.EventAppointmentCreated, model.EventAppointmentStatusChanged, model.EventAppointmentDeleted:
		var ev model.AppointmentEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return m.appointmentMail(ctx, env.Type, ev)
	case model.EventReviewModerated:
		var ev model.ReviewEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		patient, doctor, err := m.parties(ctx, ev.PatientID, ev.DoctorID)
		if err != nil {
			return nil, err
		}
		return &message{
			to:      patient.Email,
			subject: "Your review was " + string(ev.Status),
			body:    fmt.Sprintf("Hello %s,\n\nyour review of %s has been %s.\n", patient.Name, doctor.Name, ev.Status),
		}, nil
	}
	return nil, nil
}

func (m *Mailer) appointmentMail(ctx context.Context, eventType string, ev model.AppointmentEvent) (*message, error) {
	patient, doctor, err := m.parties(ctx, ev.PatientID, ev.DoctorID)
	if err != nil {
		return nil, err
	}
	when := ev.Date + " " + ev.Time

	switch eventType {
	case model.EventAppointmentCreated:
		return &message{
			to:      doctor.Email,
			subject: "New appointment request",
			body:    fmt.Sprintf("Hello %s,\n\n%s booked an appointment with you on %s.\n", doctor.Name, patient.Name, when),
		}, nil
	case model.EventAppointmentDeleted:
		return &message{
			to:      doctor.Email,
			subject: "Appointment withdrawn",
			body:    fmt.Sprintf("Hello %s,\n\n%s withdrew the appointment on %s.\n", doctor.Name, patient.Name, when),
		}, nil
	}

	if ev.ActorID == ev.PatientID {
		return &message{
			to:      doctor.Email,
			subject: "Appointment " + string(ev.Status),
			body:    fmt.Sprintf("Hello %s,\n\n%s set the appointment on %s to %s.\n", doctor.Name, patient.Name, when, ev.Status),
		}, nil
	}
	return &message{
		to:      patient.Email,
		subject: "Appointment " + string(ev.Status),
		body:    fmt.Sprintf("Hello %s,\n\nyour appointment with %s on %s is now %s.\n", patient.Name, doctor.Name, when, ev.Status),
	}, nil
}

func (m *Mailer) parties(ctx context.Context, patientID, doctorID uuid.UUID) (*model.User, *model.User, error) {
	patient, err := m.users.Get(ctx, patientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load patient: %w", err)
	}
	doctor, err := m.users.Get(ctx, doctorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	return patient, doctor, nil
}
