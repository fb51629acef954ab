// Package normalize derives display-ready values from raw submissions.
//
// Everything here is pure: the backend stores heterogeneous records
// (custom slot ids, ISO strings, human-formatted dates pasted into the
// wrong fields) and these functions resolve them into one canonical
// view without touching the network or the clock beyond time.Local.
package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tesconnections/gateway/internal/models"
)

// NoContactDetails is shown when neither info nor comments hold a
// usable contact string.
const NoContactDetails = "Contact details not provided"

// NotScheduled is shown when no time can be derived from any field.
const NotScheduled = "Not scheduled"

// datePattern matches human-formatted dates like
// "Tue, Sep 12, 2024, 2:30 PM", tolerant of optional commas.
var datePattern = regexp.MustCompile(
	`(?i)(Mon|Tue|Wed|Thu|Fri|Sat|Sun),?\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{1,2}),?\s+(\d{4}),?\s+(\d{1,2}):(\d{2})\s+(AM|PM)`)

var monthsByAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// timestampLayouts covers backend timestamps: RFC 3339 from the forms
// and bare ISO from the Lambda's utcnow().isoformat().
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

const (
	displayTimeLayout = "Mon, Jan 2, 3:04 PM"
	submittedLayout   = "Jan 2, 2006, 3:04 PM"
)

// Record is a display-ready view of one submission.
type Record struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	ContactDetails string `json:"contactDetails"`
	MeetingTime    string `json:"meetingTime"`
	SubmittedDate  string `json:"submittedDate"`
	Comments       string `json:"comments"`
	Icon           string `json:"icon"`
}

// Display resolves all derived fields for one submission.
func Display(sub models.Submission) Record {
	return Record{
		ID:             sub.ID,
		Type:           sub.Type,
		Name:           sub.Name,
		ContactDetails: ContactDetails(sub.Info, sub.Comments),
		MeetingTime:    DisplayTime(sub),
		SubmittedDate:  FormatSubmitted(sub.Timestamp),
		Comments:       sub.Comments,
		Icon:           IconKey(sub.Communication),
	}
}

// ContactDetails picks the best contact string. The info field wins
// when it holds anything beyond an embedded date; comments are the
// fallback only when they carry no date pattern at all.
func ContactDetails(info, comments string) string {
	if s := strings.TrimSpace(info); s != "" {
		stripped := strings.TrimSpace(datePattern.ReplaceAllString(s, ""))
		if stripped != "" {
			return stripped
		}
		// info was nothing but a date that leaked in from the
		// slot picker
		return NoContactDetails
	}
	if s := strings.TrimSpace(comments); s != "" && !datePattern.MatchString(s) {
		return s
	}
	return NoContactDetails
}

// MeetingTime resolves the canonical instant used for sorting.
// Priority: custom timeSlot, generic timeSlot, date embedded in info,
// date embedded in comments. Reports false when nothing parses.
func MeetingTime(sub models.Submission) (time.Time, bool) {
	if slot := strings.TrimSpace(sub.TimeSlot); slot != "" && slot != "N/A" {
		if t, ok := parseSlot(slot); ok {
			return t, true
		}
	}
	if t, ok := embeddedDate(sub.Info); ok {
		return t, true
	}
	return embeddedDate(sub.Comments)
}

// DisplayTime formats the meeting time for the dashboard tables.
// Unlike MeetingTime it falls back to the submission timestamp before
// giving up with "Not scheduled".
func DisplayTime(sub models.Submission) string {
	if slot := strings.TrimSpace(sub.TimeSlot); slot != "" && slot != "N/A" {
		return FormatMeetingTime(slot)
	}
	if m := datePattern.FindString(sub.Info); m != "" {
		return m
	}
	if m := datePattern.FindString(sub.Comments); m != "" {
		return m
	}
	if sub.Timestamp != "" {
		return FormatSubmitted(sub.Timestamp)
	}
	return NotScheduled
}

// FormatMeetingTime renders a raw timeSlot value. Unparseable values
// are returned verbatim so legacy rows still show something.
func FormatMeetingTime(timeSlot string) string {
	slot := strings.TrimSpace(timeSlot)
	if slot == "" {
		return "N/A"
	}
	if t, ok := parseSlot(slot); ok {
		return t.Format(displayTimeLayout)
	}
	return slot
}

// FormatSubmitted renders the submission timestamp. An absent
// timestamp and a present-but-unparseable one are distinct states.
func FormatSubmitted(timestamp string) string {
	if strings.TrimSpace(timestamp) == "" {
		return "N/A"
	}
	t, ok := parseTimestamp(timestamp)
	if !ok {
		return "Invalid date"
	}
	return t.Format(submittedLayout)
}

// ParseTimestamp parses a backend timestamp field.
func ParseTimestamp(timestamp string) (time.Time, bool) {
	return parseTimestamp(timestamp)
}

func parseTimestamp(timestamp string) (time.Time, bool) {
	s := strings.TrimSpace(timestamp)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSlot handles the calendar's custom YYYY-MM-DD-HH:MM format
// first, then generic date strings, then the human-formatted pattern.
func parseSlot(slot string) (time.Time, bool) {
	if t, ok := parseCustomSlot(slot); ok {
		return t, true
	}
	if t, ok := parseTimestamp(slot); ok {
		return t, true
	}
	return embeddedDate(slot)
}

func parseCustomSlot(slot string) (time.Time, bool) {
	if !strings.Contains(slot, ":") {
		return time.Time{}, false
	}
	parts := strings.Split(slot, "-")
	if len(parts) != 4 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}
	hm := strings.SplitN(parts[3], ":", 2)
	if len(hm) != 2 {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil {
		return time.Time{}, false
	}
	// stored month is 1-based
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), true
}

// embeddedDate finds and parses a human-formatted date inside free
// text. The weekday in the match is ignored; the numeric parts decide.
func embeddedDate(s string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := monthsByAbbrev[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[4])
	hour, _ := strconv.Atoi(m[5])
	minute, _ := strconv.Atoi(m[6])
	if hour < 1 || hour > 12 {
		return time.Time{}, false
	}
	if hour == 12 {
		hour = 0
	}
	if strings.EqualFold(m[7], "PM") {
		hour += 12
	}
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local), true
}

// iconTable maps communication methods to icon keys. Order matters:
// substring fallback takes the first hit.
var iconTable = []struct {
	key  string
	icon string
}{
	{"email", "envelope"},
	{"telegram", "paper-plane"},
	{"teams", "video"},
	{"whatsapp", "whatsapp"},
	{"phone", "phone"},
	{"call", "phone"},
	{"text", "sms"},
	{"sms", "sms"},
	{"linkedin", "linkedin"},
	{"zoom", "video"},
	{"meeting", "video"},
	{"discord", "discord"},
	{"slack", "slack"},
}

// IconKey maps a communication method to its icon key, exact match
// first, then substring containment, else a generic fallback.
func IconKey(communication string) string {
	comm := strings.ToLower(strings.TrimSpace(communication))
	if comm == "" {
		return "question-circle"
	}
	for _, e := range iconTable {
		if comm == e.key {
			return e.icon
		}
	}
	for _, e := range iconTable {
		if strings.Contains(comm, e.key) {
			return e.icon
		}
	}
	return "comment"
}

// SortMeetings orders meetings soonest first. Rows with no derivable
// time go last, ordered among themselves by submission timestamp
// ascending.
func SortMeetings(subs []models.Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		ti, oki := MeetingTime(subs[i])
		tj, okj := MeetingTime(subs[j])
		switch {
		case oki && okj:
			return ti.Before(tj)
		case oki:
			return true
		case okj:
			return false
		default:
			si, _ := parseTimestamp(subs[i].Timestamp)
			sj, _ := parseTimestamp(subs[j].Timestamp)
			return si.Before(sj)
		}
	})
}

// SortConnections orders connections newest submission first.
func SortConnections(subs []models.Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		ti, _ := parseTimestamp(subs[i].Timestamp)
		tj, _ := parseTimestamp(subs[j].Timestamp)
		return tj.Before(ti)
	})
}
