package service

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tesconnections/gateway/internal/backend"
	"github.com/tesconnections/gateway/internal/models"
	"github.com/tesconnections/gateway/internal/normalize"
	"github.com/tesconnections/gateway/internal/session"
)

const adminDataKey = "admin-data"

// DashboardService reconciles the stored submission list into the two
// admin tables. Reads go through a short TTL cache; every successful
// mutation drops the cache so the next read re-fetches. In-memory
// lists are never patched directly, which keeps mutations from racing
// an in-flight fetch.
type DashboardService struct {
	client  *backend.Client
	session *session.Manager
	cache   *gocache.Cache
	now     func() time.Time
}

func NewDashboardService(client *backend.Client, sess *session.Manager, cacheTTL time.Duration) *DashboardService {
	return &DashboardService{
		client:  client,
		session: sess,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		now:     time.Now,
	}
}

// Stats are the dashboard's headline counters.
type Stats struct {
	TotalMeetings    int `json:"totalMeetings"`
	TotalConnections int `json:"totalConnections"`
	TodayMeetings    int `json:"todayMeetings"`
	Unclassified     int `json:"unclassified"`
}

// Dashboard is the reconciled view: meetings soonest-first,
// connections newest-first, plus counters.
type Dashboard struct {
	Meetings    []normalize.Record `json:"meetings"`
	Connections []normalize.Record `json:"connections"`
	Stats       Stats              `json:"stats"`
}

// Load builds the dashboard from the latest fetched list.
func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	subs, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	meetings, connections, unclassified := partition(subs)
	normalize.SortMeetings(meetings)
	normalize.SortConnections(connections)

	dash := &Dashboard{
		Meetings:    displayAll(meetings),
		Connections: displayAll(connections),
		Stats: Stats{
			TotalMeetings:    len(meetings),
			TotalConnections: len(connections),
			TodayMeetings:    s.countToday(meetings),
			Unclassified:     unclassified,
		},
	}
	return dash, nil
}

// Delete removes one record through the backend. Nothing is changed
// locally until the backend confirms; on success the cache is dropped
// so the next read reflects the deletion.
func (s *DashboardService) Delete(ctx context.Context, id string) error {
	token, ok := s.session.Token()
	if !ok {
		return backend.ErrUnauthorized
	}
	if err := s.client.DeleteSubmission(ctx, token, id); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.session.Invalidate()
		}
		return err
	}
	s.cache.Delete(adminDataKey)
	return nil
}

// UpdateMeetingTime persists a new time slot for one meeting.
func (s *DashboardService) UpdateMeetingTime(ctx context.Context, id, timeSlot string) error {
	return s.update(ctx, id, map[string]string{"timeSlot": timeSlot})
}

// UpdateComments persists edited comments for one connection.
func (s *DashboardService) UpdateComments(ctx context.Context, id, comments string) error {
	return s.update(ctx, id, map[string]string{"comments": comments})
}

func (s *DashboardService) update(ctx context.Context, id string, fields map[string]string) error {
	token, ok := s.session.Token()
	if !ok {
		return backend.ErrUnauthorized
	}
	if err := s.client.UpdateSubmission(ctx, token, id, fields); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.session.Invalidate()
		}
		return err
	}
	s.cache.Delete(adminDataKey)
	return nil
}

// Export renders the CSV export for one subset: "meetings",
// "connections" or "all". Ordering matches the dashboard tables.
func (s *DashboardService) Export(ctx context.Context, set string) (string, error) {
	subs, err := s.fetchAll(ctx)
	if err != nil {
		return "", err
	}
	meetings, connections, _ := partition(subs)
	normalize.SortMeetings(meetings)
	normalize.SortConnections(connections)

	var selected []models.Submission
	switch set {
	case "meetings":
		selected = meetings
	case "connections":
		selected = connections
	default:
		selected = append(append([]models.Submission{}, meetings...), connections...)
	}
	return GenerateCSV(selected), nil
}

func (s *DashboardService) fetchAll(ctx context.Context) ([]models.Submission, error) {
	if v, ok := s.cache.Get(adminDataKey); ok {
		return v.([]models.Submission), nil
	}
	token, ok := s.session.Token()
	if !ok {
		return nil, backend.ErrUnauthorized
	}
	subs, err := s.client.FetchSubmissions(ctx, token)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.session.Invalidate()
		}
		return nil, err
	}
	s.cache.SetDefault(adminDataKey, subs)
	return subs, nil
}

// partition splits the raw list by type. Records with an unknown or
// missing type land in neither table but are counted so the gap is
// visible on the dashboard.
func partition(subs []models.Submission) (meetings, connections []models.Submission, unclassified int) {
	for _, sub := range subs {
		switch sub.Type {
		case models.TypeMeeting:
			meetings = append(meetings, sub)
		case models.TypeConnection:
			connections = append(connections, sub)
		default:
			unclassified++
		}
	}
	return meetings, connections, unclassified
}

func displayAll(subs []models.Submission) []normalize.Record {
	records := make([]normalize.Record, len(subs))
	for i, sub := range subs {
		records[i] = normalize.Display(sub)
	}
	return records
}

// countToday counts meetings whose derived time falls on the current
// local calendar day.
func (s *DashboardService) countToday(meetings []models.Submission) int {
	y, m, d := s.now().Local().Date()
	count := 0
	for _, sub := range meetings {
		t, ok := normalize.MeetingTime(sub)
		if !ok {
			continue
		}
		ty, tm, td := t.Local().Date()
		if ty == y && tm == m && td == d {
			count++
		}
	}
	return count
}
