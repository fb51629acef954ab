package service

import (
	"strings"

	"github.com/tesconnections/gateway/internal/models"
	"github.com/tesconnections/gateway/internal/normalize"
)

var csvHeader = []string{
	"ID", "Name", "Communication", "Contact Details",
	"Meeting Time", "Comments", "Submitted", "Type",
}

// GenerateCSV renders submissions as CSV. Values are the raw stored
// fields except Meeting Time and Submitted, which are formatted.
// Every field is double-quoted with internal quotes doubled, matching
// the format the dashboard has always exported.
func GenerateCSV(subs []models.Submission) string {
	rows := make([][]string, 0, len(subs)+1)
	rows = append(rows, csvHeader)
	for _, sub := range subs {
		meetingTime := "N/A"
		if sub.TimeSlot != "" {
			meetingTime = normalize.FormatMeetingTime(sub.TimeSlot)
		}
		rows = append(rows, []string{
			sub.ID,
			sub.Name,
			sub.Communication,
			sub.Info,
			meetingTime,
			sub.Comments,
			normalize.FormatSubmitted(sub.Timestamp),
			sub.Type,
		})
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		quoted := make([]string, len(row))
		for j, field := range row {
			quoted[j] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		lines[i] = strings.Join(quoted, ",")
	}
	return strings.Join(lines, "\n")
}
