// Package notify sends a best-effort email when a new submission
// lands. Delivery failures are logged and swallowed; the submitter's
// request never fails because of them.
package notify

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/tesconnections/gateway/internal/models"
)

// Sender delivers one notification email.
type Sender interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

// Notifier formats and dispatches submission notifications.
type Notifier struct {
	sender Sender
}

// New wraps a sender. A nil sender disables notifications entirely.
func New(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// SubmissionReceived announces a new submission to the site owner.
func (n *Notifier) SubmissionReceived(ctx context.Context, payload models.ContactPayload) {
	if n == nil || n.sender == nil {
		return
	}
	subject := "New TESConnections submission: " + payload.Type
	body := fmt.Sprintf(
		`<h3>New %s submission</h3>
<p><strong>Name:</strong> %s<br>
<strong>Communication:</strong> %s<br>
<strong>Info:</strong> %s<br>
<strong>Comments:</strong> %s<br>
<strong>Time slot:</strong> %s<br>
<strong>Submitted:</strong> %s</p>`,
		html.EscapeString(payload.Type),
		html.EscapeString(payload.Name),
		html.EscapeString(payload.Communication),
		html.EscapeString(payload.Info),
		html.EscapeString(payload.Comments),
		html.EscapeString(payload.TimeSlot),
		html.EscapeString(payload.Timestamp),
	)
	if err := n.sender.Send(ctx, subject, body); err != nil {
		log.Printf("Warning: submission notification failed: %v", err)
	}
}
