// Package backend is the HTTP client for the external submissions
// API (submit-contact, admin-data, delete-submission,
// update-submission, pin-auth). The API and its data store are not
// owned by this repo; this client pins down the contract we assume.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tesconnections/gateway/internal/models"
)

// Client talks to the submissions backend. Safe for concurrent use.
type Client struct {
	baseURL       string
	http          *http.Client
	retryAttempts int
	retryDelay    time.Duration
}

// New creates a backend client. timeout applies per attempt;
// retryAttempts and retryDelay drive the submit retry policy.
func New(baseURL string, timeout time.Duration, retryAttempts int, retryDelay time.Duration) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: timeout},
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}
}

// SubmitResponse is the backend's acknowledgement of a new submission.
type SubmitResponse struct {
	Message      string `json:"message"`
	SubmissionID string `json:"submissionId"`
	Timestamp    string `json:"timestamp"`
}

// PinResponse is the pin-auth endpoint's verdict.
type PinResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"sessionToken"`
	Message      string `json:"message"`
}

// SubmitContact posts a new submission. Transport-class failures are
// retried up to the configured attempt count with a fixed delay;
// an HTTP rejection is definitive and never retried.
func (c *Client) SubmitContact(ctx context.Context, payload models.ContactPayload) (*SubmitResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		var resp SubmitResponse
		err := c.doJSON(ctx, http.MethodPost, "/submit-contact", "", payload, &resp)
		if err == nil {
			return &resp, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == c.retryAttempts {
			break
		}
		log.Printf("Warning: submit attempt %d/%d failed, retrying in %s: %v",
			attempt, c.retryAttempts, c.retryDelay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return nil, lastErr
}

// FetchSubmissions pulls the full stored list. The response body
// shape varies across backend deployments (bare array, {submissions},
// {data}); the ambiguity is resolved here, once, and anything else
// yields an empty list with a logged warning.
func (c *Client) FetchSubmissions(ctx context.Context, token string) ([]models.Submission, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/admin-data", token, nil, &raw); err != nil {
		return nil, err
	}

	var subs []models.Submission
	if err := json.Unmarshal(raw, &subs); err == nil {
		return subs, nil
	}

	var wrapped struct {
		Submissions []models.Submission `json:"submissions"`
		Data        []models.Submission `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped.Submissions != nil {
			return wrapped.Submissions, nil
		}
		if wrapped.Data != nil {
			return wrapped.Data, nil
		}
	}

	log.Printf("Warning: unexpected admin-data response shape, treating as empty")
	return []models.Submission{}, nil
}

// DeleteSubmission removes one record by id.
func (c *Client) DeleteSubmission(ctx context.Context, token, id string) error {
	path := "/delete-submission?id=" + url.QueryEscape(id)
	return c.doJSON(ctx, http.MethodDelete, path, token, nil, nil)
}

// UpdateSubmission patches mutable fields of one record. Assumed
// backend contract extension; see DESIGN.md.
func (c *Client) UpdateSubmission(ctx context.Context, token, id string, fields map[string]string) error {
	body := map[string]string{"id": id}
	for k, v := range fields {
		body[k] = v
	}
	return c.doJSON(ctx, http.MethodPost, "/update-submission", token, body, nil)
}

// VerifyPIN exchanges a PIN for a session token. A rejected PIN is a
// normal PinResponse with Success=false, not an error.
func (c *Client) VerifyPIN(ctx context.Context, pin string) (*PinResponse, error) {
	var resp PinResponse
	err := c.doJSON(ctx, http.MethodPost, "/pin-auth", "", map[string]string{"pin": pin}, &resp)
	if err != nil {
		// 401/403 from pin-auth means "wrong PIN", which the
		// response body explains better than the status line.
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return &PinResponse{Success: false, Message: apiErr.Message}, nil
		}
		if errors.Is(err, ErrUnauthorized) {
			return &PinResponse{Success: false, Message: "Invalid PIN"}, nil
		}
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

// readErrorMessage extracts a human message from an error body,
// preferring the {"message": ...} the Lambda emits.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}
