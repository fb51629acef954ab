package handler

import (
	"errors"
	"net/http"

	"github.com/tesconnections/gateway/internal/session"
)

type AuthHandler struct {
	sessions *session.Manager
}

func NewAuthHandler(sessions *session.Manager) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Pin exchanges a 4-digit PIN for an admin session token.
func (h *AuthHandler) Pin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.sessions.Authenticate(r.Context(), req.Pin)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrPINFormat):
			writeError(w, http.StatusBadRequest, "PIN must be exactly 4 digits")
		case errors.Is(err, session.ErrAuthInFlight):
			writeError(w, http.StatusConflict, "authentication already in progress")
		case errors.Is(err, session.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "PIN verification is not configured")
		default:
			var failed *session.AuthFailedError
			if errors.As(err, &failed) {
				writeError(w, http.StatusUnauthorized, "incorrect PIN")
				return
			}
			writeError(w, http.StatusBadGateway, "could not verify PIN, please try again")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout clears the stored admin session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout()
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Session reports the current authentication state so the dashboard
// can decide whether to prompt for a PIN.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.State()
	resp := map[string]any{
		"state":         state.String(),
		"authenticated": state == session.Authenticated,
	}
	if email := h.sessions.Identity(); email != "" {
		resp["email"] = email
	}
	writeJSON(w, http.StatusOK, resp)
}
