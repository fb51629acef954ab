package models

// Submission types as stored by the backend.
const (
	TypeMeeting    = "meeting"
	TypeConnection = "connection"
)

// Submission is a record persisted by the backend. The gateway only
// consumes and produces it. Historical records are messy: info and
// comments sometimes carry embedded date strings, and timeSlot may be
// the calendar's custom format, an ISO string, empty, or "N/A".
type Submission struct {
	ID            string `json:"id,omitempty"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	Communication string `json:"communication"`
	Info          string `json:"info"`
	Comments      string `json:"comments"`
	TimeSlot      string `json:"timeSlot,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// IntakeRequest is the body accepted from the public forms.
type IntakeRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	Communication string `json:"communication"`
	Info          string `json:"info"`
	Comments      string `json:"comments"`
	TimeSlot      string `json:"timeSlot"`
}

// ContactPayload is what gets POSTed to the backend submit endpoint.
// userAgent and referrer come from the incoming request; timestamp is
// set server-side.
type ContactPayload struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	Communication string `json:"communication"`
	Info          string `json:"info"`
	Comments      string `json:"comments"`
	TimeSlot      string `json:"timeSlot,omitempty"`
	Timestamp     string `json:"timestamp"`
	UserAgent     string `json:"userAgent,omitempty"`
	Referrer      string `json:"referrer,omitempty"`
}
