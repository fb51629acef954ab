package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers notifications through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	to     []string
}

// NewResendSender creates a sender with a fixed from/to pair.
func NewResendSender(apiKey, from string, to []string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

func (s *ResendSender) Send(ctx context.Context, subject, htmlBody string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      s.to,
		Subject: subject,
		Html:    htmlBody,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	log.Printf("Notification sent (message %s)", sent.Id)
	return nil
}

// NoopSender logs instead of delivering. Used in development and when
// no API key is configured.
type NoopSender struct{}

func (NoopSender) Send(_ context.Context, subject, _ string) error {
	log.Printf("Notification (noop): %s", subject)
	return nil
}
