// Package intake validates public form submissions before anything
// touches the network. Rules are declarative per field so the two
// forms (meetings, connections) share one table.
package intake

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tesconnections/gateway/internal/models"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z\s\-'\.]+$`)

// validCommunication is the set the backend accepts.
var validCommunication = map[string]bool{
	"telegram": true,
	"email":    true,
	"teams":    true,
	"whatsapp": true,
}

// rule is one field's validation contract.
type rule struct {
	required  bool
	minLength int
	maxLength int
	pattern   *regexp.Regexp
	oneOf     map[string]bool
	message   string
}

var rules = map[string]rule{
	"name": {
		required:  true,
		minLength: 2,
		maxLength: 100,
		pattern:   namePattern,
		message:   "Please enter a valid name (2-100 characters)",
	},
	"communication": {
		required: true,
		oneOf:    validCommunication,
		message:  "Please select a valid communication method",
	},
	"info": {
		maxLength: 500,
		message:   "Additional information must be 500 characters or less",
	},
	"comments": {
		maxLength: 1000,
		message:   "Comments must be 1000 characters or less",
	},
	"timeSlot": {
		required: true,
		message:  "Please select a meeting time",
	},
}

// FieldErrors maps field name to the first violated rule's message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

// Validate checks an intake request against the field rules. The
// timeSlot rule applies only to meeting requests; slot availability
// itself is the schedule package's business.
func Validate(req models.IntakeRequest) FieldErrors {
	errs := FieldErrors{}

	if req.Type != models.TypeMeeting && req.Type != models.TypeConnection {
		errs["type"] = "Submission type must be meeting or connection"
	}

	checkField(errs, "name", req.Name)
	checkField(errs, "communication", strings.ToLower(strings.TrimSpace(req.Communication)))
	checkField(errs, "info", req.Info)
	checkField(errs, "comments", req.Comments)
	if req.Type == models.TypeMeeting {
		checkField(errs, "timeSlot", req.TimeSlot)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkField(errs FieldErrors, field, value string) {
	r := rules[field]
	trimmed := strings.TrimSpace(value)

	if r.required && trimmed == "" {
		errs[field] = r.message
		return
	}
	// optional and empty: nothing else to check
	if trimmed == "" {
		return
	}
	// character limits, not byte limits
	length := utf8.RuneCountInString(trimmed)
	if r.minLength > 0 && length < r.minLength {
		errs[field] = r.message
		return
	}
	if r.maxLength > 0 && length > r.maxLength {
		errs[field] = r.message
		return
	}
	if r.pattern != nil && !r.pattern.MatchString(trimmed) {
		errs[field] = r.message
		return
	}
	if r.oneOf != nil && !r.oneOf[trimmed] {
		errs[field] = r.message
	}
}
