package service

import (
	"context"
	"strings"
	"time"

	"github.com/tesconnections/gateway/internal/backend"
	"github.com/tesconnections/gateway/internal/intake"
	"github.com/tesconnections/gateway/internal/models"
	"github.com/tesconnections/gateway/internal/notify"
	"github.com/tesconnections/gateway/internal/schedule"
)

// IntakeService runs the public form pipeline: validate, resolve the
// slot, forward to the backend, notify.
type IntakeService struct {
	client   *backend.Client
	calendar *schedule.Calendar
	notifier *notify.Notifier
	now      func() time.Time
}

func NewIntakeService(client *backend.Client, calendar *schedule.Calendar, notifier *notify.Notifier) *IntakeService {
	return &IntakeService{
		client:   client,
		calendar: calendar,
		notifier: notifier,
		now:      time.Now,
	}
}

// Submit validates a form submission and forwards it to the backend.
// Validation failures return intake.FieldErrors and never touch the
// network. userAgent and referrer come from the submitting request.
func (s *IntakeService) Submit(ctx context.Context, req models.IntakeRequest, userAgent, referrer string) (*backend.SubmitResponse, error) {
	if errs := intake.Validate(req); errs != nil {
		return nil, errs
	}
	if req.Type == models.TypeMeeting {
		if err := s.calendar.Validate(strings.TrimSpace(req.TimeSlot)); err != nil {
			return nil, intake.FieldErrors{"timeSlot": err.Error()}
		}
	}

	payload := models.ContactPayload{
		Type:          req.Type,
		Name:          strings.TrimSpace(req.Name),
		Communication: strings.ToLower(strings.TrimSpace(req.Communication)),
		Info:          strings.TrimSpace(req.Info),
		Comments:      strings.TrimSpace(req.Comments),
		Timestamp:     s.now().UTC().Format(time.RFC3339),
		UserAgent:     userAgent,
		Referrer:      referrer,
	}
	if req.Type == models.TypeMeeting {
		payload.TimeSlot = strings.TrimSpace(req.TimeSlot)
	}

	resp, err := s.client.SubmitContact(ctx, payload)
	if err != nil {
		return nil, err
	}

	// best-effort, off the request path
	go s.notifier.SubmissionReceived(context.Background(), payload)

	return resp, nil
}

// Slots lists availability for one day.
func (s *IntakeService) Slots(date string) ([]schedule.Slot, error) {
	return s.calendar.SlotsFor(date)
}
