package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tesconnections/gateway/internal/backend"
	"github.com/tesconnections/gateway/internal/handler"
	"github.com/tesconnections/gateway/internal/notify"
	"github.com/tesconnections/gateway/internal/schedule"
	"github.com/tesconnections/gateway/internal/service"
	"github.com/tesconnections/gateway/internal/session"
)

const testToken = "aaa.bbb.ccc"

// fakeBackend stands in for the external submissions service.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pin-auth":
			var req struct {
				Pin string `json:"pin"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.Pin != "4242" {
				http.Error(w, `{"success":false,"message":"Invalid PIN"}`, http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"success":      true,
				"sessionToken": testToken,
			})
		case "/submit-contact":
			json.NewEncoder(w).Encode(map[string]string{
				"message":      "ok",
				"submissionId": "s-42",
			})
		case "/admin-data":
			if r.Header.Get("Authorization") != "Bearer "+testToken {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`[{"id":"m1","type":"meeting","name":"Avi","communication":"email","info":"avi@example.com","timeSlot":"2030-01-10-10:00","timestamp":"2029-12-01T00:00:00Z"}]`))
		case "/delete-submission":
			if r.Header.Get("Authorization") != "Bearer "+testToken {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		case "/update-submission":
			if r.Header.Get("Authorization") != "Bearer "+testToken {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["id"] == "" {
				http.Error(w, `{"message":"id is required"}`, http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
}

func newGateway(t *testing.T, backendURL string) http.Handler {
	t.Helper()
	client := backend.New(backendURL, 2*time.Second, 1, time.Millisecond)
	sessions := session.NewManager(client, session.NewMemoryStore(), "", nil)
	calendar := schedule.NewCalendar(nil, nil)

	intakeSvc := service.NewIntakeService(client, calendar, notify.New(nil))
	dashSvc := service.NewDashboardService(client, sessions, time.Minute)

	return New(
		sessions,
		handler.NewIntakeHandler(intakeSvc),
		handler.NewAuthHandler(sessions),
		handler.NewDashboardHandler(dashSvc),
	)
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublicSubmission(t *testing.T) {
	srv := fakeBackend(t)
	defer srv.Close()
	gw := newGateway(t, srv.URL)

	rec := do(t, gw, http.MethodPost, "/api/v1/submissions", "",
		`{"type":"meeting","name":"Jane Doe","communication":"email","info":"jane@example.com","timeSlot":"2030-01-10-14:00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["submissionId"] != "s-42" {
		t.Fatalf("submissionId = %q", resp["submissionId"])
	}
}

func TestSubmissionValidationErrors(t *testing.T) {
	srv := fakeBackend(t)
	defer srv.Close()
	gw := newGateway(t, srv.URL)

	rec := do(t, gw, http.MethodPost, "/api/v1/submissions", "",
		`{"type":"meeting","name":"J","communication":"email"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Fields["name"] == "" || resp.Fields["timeSlot"] == "" {
		t.Fatalf("expected name and timeSlot errors, got %v", resp.Fields)
	}
}

func TestSlots(t *testing.T) {
	srv := fakeBackend(t)
	defer srv.Close()
	gw := newGateway(t, srv.URL)

	rec := do(t, gw, http.MethodGet, "/api/v1/slots?date=2030-01-10", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		Slots []schedule.Slot `json:"slots"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Slots) != 32 {
		t.Fatalf("expected 32 slots, got %d", len(resp.Slots))
	}

	if rec := do(t, gw, http.MethodGet, "/api/v1/slots", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing date: status = %d", rec.Code)
	}
}

func TestAdminRequiresSession(t *testing.T) {
	srv := fakeBackend(t)
	defer srv.Close()
	gw := newGateway(t, srv.URL)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/dashboard"},
		{http.MethodDelete, "/api/v1/admin/submissions/m1"},
		{http.MethodGet, "/api/v1/admin/export"},
	} {
		if rec := do(t, gw, tc.method, tc.path, "", ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestPinFlow(t *testing.T) {
	srv := fakeBackend(t)
	defer srv.Close()
	gw := newGateway(t, srv.URL)

	// malformed PIN fails locally
	if rec := do(t, gw, http.MethodPost, "/api/v1/auth/pin", "", `{"pin":"12"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("short pin: status = %d", rec.Code)
	}

	// wrong PIN
	if rec := do(t, gw, http.MethodPost, "/api/v1/auth/pin", "", `{"pin":"0000"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong pin: status = %d", rec.Code)
	}

	// correct PIN
	rec := do(t, gw, http.MethodPost, "/api/v1/auth/pin", "", `{"pin":"4242"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("pin auth: status = %d, body = %s", rec.Code, rec.Body)
	}
	var auth map[string]string
	json.Unmarshal(rec.Body.Bytes(), &auth)
	if auth["token"] != testToken {
		t.Fatalf("token = %q", auth["token"])
	}

	// token opens the admin routes
	rec = do(t, gw, http.MethodGet, "/api/v1/admin/dashboard", auth["token"], "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status = %d, body = %s", rec.Code, rec.Body)
	}
	var dash struct {
		Stats struct {
			TotalMeetings int `json:"totalMeetings"`
		} `json:"stats"`
	}
	json.Unmarshal(rec.Body.Bytes(), &dash)
	if dash.Stats.TotalMeetings != 1 {
		t.Fatalf("totalMeetings = %d", dash.Stats.TotalMeetings)
	}

	// a random token is rejected even while a session is live
	if rec := do(t, gw, http.MethodGet, "/api/v1/admin/dashboard", "x.y.z", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", rec.Code)
	}

	// logout closes the door
	if rec := do(t, gw, http.MethodPost, "/api/v1/auth/logout", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", rec.Code)
	}
	if rec := do(t, gw, http.MethodGet, "/api/v1/admin/dashboard", auth["token"], ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: status = %d", rec.Code)
	}
}

func TestUpdateSubmission(t *testing.T) {
	srv := fakeBackend(t)
	defer srv.Close()
	gw := newGateway(t, srv.URL)

	auth := do(t, gw, http.MethodPost, "/api/v1/auth/pin", "", `{"pin":"4242"}`)
	var resp map[string]string
	json.Unmarshal(auth.Body.Bytes(), &resp)
	token := resp["token"]

	rec := do(t, gw, http.MethodPatch, "/api/v1/admin/submissions/m1", token, `{"timeSlot":"2030-01-11-10:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch timeSlot: status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = do(t, gw, http.MethodPatch, "/api/v1/admin/submissions/c1", token, `{"comments":"edited"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch comments: status = %d, body = %s", rec.Code, rec.Body)
	}

	// exactly one of timeSlot/comments
	for _, body := range []string{`{}`, `{"timeSlot":"2030-01-11-10:00","comments":"both"}`} {
		if rec := do(t, gw, http.MethodPatch, "/api/v1/admin/submissions/m1", token, body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestExportContentType(t *testing.T) {
	srv := fakeBackend(t)
	defer srv.Close()
	gw := newGateway(t, srv.URL)

	auth := do(t, gw, http.MethodPost, "/api/v1/auth/pin", "", `{"pin":"4242"}`)
	var resp map[string]string
	json.Unmarshal(auth.Body.Bytes(), &resp)

	rec := do(t, gw, http.MethodGet, "/api/v1/admin/export?set=meetings", resp["token"], "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), `"ID","Name"`) {
		t.Fatalf("body does not start with the CSV header: %q", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := fakeBackend(t)
	defer srv.Close()
	gw := newGateway(t, srv.URL)

	rec := do(t, gw, http.MethodOptions, "/api/v1/submissions", "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS headers")
	}
}
