// Package session holds the admin authentication state machine:
// LoggedOut -> Authenticating -> Authenticated, back to LoggedOut on
// logout or any 401. The session survives restarts through a Store,
// the server-side stand-in for the dashboard's two localStorage keys.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tesconnections/gateway/internal/backend"
)

// State is the authentication machine's current position.
type State int

const (
	LoggedOut State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "logged_out"
	}
}

var (
	// ErrPINFormat rejects anything that is not exactly 4 digits,
	// before any network call happens.
	ErrPINFormat = errors.New("session: PIN must be exactly 4 digits")

	// ErrAuthInFlight rejects a second PIN attempt while one is
	// already being verified.
	ErrAuthInFlight = errors.New("session: authentication already in progress")

	// ErrNotConfigured means neither a backend nor a local PIN
	// hash is available to verify against.
	ErrNotConfigured = errors.New("session: no PIN verifier configured")
)

// AuthFailedError is a definitive PIN rejection.
type AuthFailedError struct {
	Message string
}

func (e *AuthFailedError) Error() string {
	if e.Message == "" {
		return "session: invalid PIN"
	}
	return "session: " + e.Message
}

var pinFormat = regexp.MustCompile(`^\d{4}$`)

// PinVerifier exchanges a PIN for a session token remotely.
type PinVerifier interface {
	VerifyPIN(ctx context.Context, pin string) (*backend.PinResponse, error)
}

// Manager owns the session state. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	state    State
	token    string
	verifier PinVerifier
	store    Store

	// bcrypt hash of a locally accepted PIN; dev fallback used
	// only when no remote verifier exists.
	localPINHash string
	localSecret  []byte
}

// NewManager wires the state machine to a verifier and a store.
// verifier may be nil when localPINHash is set (dev mode).
func NewManager(verifier PinVerifier, store Store, localPINHash string, localSecret []byte) *Manager {
	return &Manager{
		state:        LoggedOut,
		verifier:     verifier,
		store:        store,
		localPINHash: localPINHash,
		localSecret:  localSecret,
	}
}

// Restore loads a persisted session at startup. A stored token that
// is structurally a JWT (three dot-separated segments) is trusted
// without a round-trip; the first authenticated call remains the real
// authority. Anything else is cleared.
func (m *Manager) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	authenticated, token, err := m.store.Load()
	if err != nil {
		log.Printf("Warning: session restore failed: %v", err)
		return
	}
	if !authenticated || token == "" {
		return
	}
	if !StructurallyValid(token) {
		log.Printf("Warning: stored session token is malformed, clearing")
		if err := m.store.Clear(); err != nil {
			log.Printf("Warning: session clear failed: %v", err)
		}
		return
	}
	m.state = Authenticated
	m.token = token
	log.Printf("Session restored from storage")
}

// StructurallyValid reports whether a token looks like a JWT. This is
// a format sanity check only, never a signature verification.
func StructurallyValid(token string) bool {
	return len(strings.Split(token, ".")) == 3
}

// Authenticate runs one PIN verification. A malformed PIN fails
// locally; at most one verification is in flight at a time.
func (m *Manager) Authenticate(ctx context.Context, pin string) (string, error) {
	if !pinFormat.MatchString(pin) {
		return "", ErrPINFormat
	}

	m.mu.Lock()
	if m.state == Authenticating {
		m.mu.Unlock()
		return "", ErrAuthInFlight
	}
	m.state = Authenticating
	m.mu.Unlock()

	token, err := m.verify(ctx, pin)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = LoggedOut
		return "", err
	}

	m.state = Authenticated
	m.token = token
	if err := m.store.Save(token); err != nil {
		log.Printf("Warning: session persist failed: %v", err)
	}
	return token, nil
}

func (m *Manager) verify(ctx context.Context, pin string) (string, error) {
	if m.verifier != nil {
		resp, err := m.verifier.VerifyPIN(ctx, pin)
		if err != nil {
			return "", fmt.Errorf("session: PIN verification: %w", err)
		}
		if !resp.Success || resp.SessionToken == "" {
			return "", &AuthFailedError{Message: resp.Message}
		}
		return resp.SessionToken, nil
	}
	if m.localPINHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(m.localPINHash), []byte(pin)) != nil {
			return "", &AuthFailedError{Message: "Invalid PIN. Please try again."}
		}
		return mintLocalToken(m.localSecret)
	}
	return "", ErrNotConfigured
}

// Logout tears the session down deliberately.
func (m *Manager) Logout() {
	m.invalidate("logout")
}

// Invalidate tears the session down after the backend rejected the
// credential (401).
func (m *Manager) Invalidate() {
	m.invalidate("credential rejected")
}

func (m *Manager) invalidate(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = LoggedOut
	m.token = ""
	if err := m.store.Clear(); err != nil {
		log.Printf("Warning: session clear failed: %v", err)
	}
	log.Printf("Session cleared (%s)", reason)
}

// State returns the machine's current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the live credential, if authenticated.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated || m.token == "" {
		return "", false
	}
	return m.token, true
}

// Authorize checks a presented bearer token against the live session.
func (m *Manager) Authorize(presented string) bool {
	token, ok := m.Token()
	if !ok || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(presented)) == 1
}

// Identity extracts the email claim from the session token for the
// dashboard header. Claims are read unverified; the backend is the
// authority on the token, not us.
func (m *Manager) Identity() string {
	token, ok := m.Token()
	if !ok {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}
