package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tesconnections/gateway/internal/models"
)

func testClient(baseURL string) *Client {
	return New(baseURL, 2*time.Second, 3, 10*time.Millisecond)
}

func TestFetchSubmissionsShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":"a","type":"meeting"},{"id":"b","type":"connection"}]`, 2},
		{"submissions wrapper", `{"submissions":[{"id":"a","type":"meeting"}]}`, 1},
		{"data wrapper", `{"data":[{"id":"a","type":"connection"}]}`, 1},
		{"empty array", `[]`, 0},
		{"unexpected shape", `{"rows":17}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/admin-data" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("missing bearer token, got %q", got)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			subs, err := testClient(srv.URL).FetchSubmissions(context.Background(), "tok")
			if err != nil {
				t.Fatalf("FetchSubmissions: %v", err)
			}
			if len(subs) != tt.want {
				t.Fatalf("got %d submissions, want %d", len(subs), tt.want)
			}
		})
	}
}

func TestFetchSubmissionsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"expired"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchSubmissions(context.Background(), "tok")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSubmitContactNoRetryOnRejection(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Invalid communication method","message":"Please select a valid communication method"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).SubmitContact(context.Background(), models.ContactPayload{Name: "Jane"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", apiErr.Status)
	}
	if apiErr.Message != "Please select a valid communication method" {
		t.Fatalf("message = %q", apiErr.Message)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("server rejections must not be retried, got %d calls", n)
	}
}

func TestSubmitContactRetriesTransportFailures(t *testing.T) {
	// A listener that drops every connection produces transport
	// errors without ever sending an HTTP response.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	var conns int32
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt32(&conns, 1)
			conn.Close()
		}
	}()

	c := New("http://"+ln.Addr().String(), time.Second, 3, 5*time.Millisecond)
	_, err = c.SubmitContact(context.Background(), models.ContactPayload{Name: "Jane"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if n := atomic.LoadInt32(&conns); n != 3 {
		t.Fatalf("expected 3 attempts, saw %d connections", n)
	}
}

func TestSubmitContactSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submit-contact" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"message":"Form submitted successfully","submissionId":"abc-123","timestamp":"2024-09-01T00:00:00"}`)
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).SubmitContact(context.Background(), models.ContactPayload{Name: "Jane"})
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if resp.SubmissionID != "abc-123" {
		t.Fatalf("submissionId = %q", resp.SubmissionID)
	}
}

func TestDeleteSubmission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("id"); got != "rec-1" {
			t.Errorf("id = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := testClient(srv.URL).DeleteSubmission(context.Background(), "tok", "rec-1"); err != nil {
		t.Fatalf("DeleteSubmission: %v", err)
	}
}

func TestDeleteSubmissionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"no such submission"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := testClient(srv.URL).DeleteSubmission(context.Background(), "tok", "ghost")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
}

func TestVerifyPIN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"sessionToken":"aaa.bbb.ccc"}`)
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).VerifyPIN(context.Background(), "1234")
	if err != nil {
		t.Fatalf("VerifyPIN: %v", err)
	}
	if !resp.Success || resp.SessionToken != "aaa.bbb.ccc" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestVerifyPINRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"success":false,"message":"Invalid PIN. Please try again."}`)
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).VerifyPIN(context.Background(), "0000")
	if err != nil {
		t.Fatalf("a wrong PIN should not be a transport error: %v", err)
	}
	if resp.Success {
		t.Fatal("expected rejection")
	}
	if resp.Message != "Invalid PIN. Please try again." {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"api error", &APIError{Status: 500}, false},
		{"deadline", context.DeadlineExceeded, false},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, true},
		{"plain error", errors.New("weird"), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("%s: IsTransient = %v, want %v", tt.name, got, tt.want)
		}
	}
}
