package handler

import (
	"errors"
	"net/http"

	"github.com/tesconnections/gateway/internal/backend"
	"github.com/tesconnections/gateway/internal/intake"
	"github.com/tesconnections/gateway/internal/models"
	"github.com/tesconnections/gateway/internal/service"
)

type IntakeHandler struct {
	svc *service.IntakeService
}

func NewIntakeHandler(svc *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{svc: svc}
}

// Create accepts a public form submission (meeting or connection).
func (h *IntakeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.IntakeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.svc.Submit(r.Context(), req, r.UserAgent(), r.Referer())
	if err != nil {
		var fieldErrs intake.FieldErrors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": fieldErrs,
			})
			return
		}
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, apiErr.Message)
			return
		}
		writeError(w, http.StatusBadGateway, "submission could not be delivered, please try again")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":      "Thank you! Your submission has been received.",
		"submissionId": resp.SubmissionID,
	})
}

// Slots lists the bookable time slots for one day.
func (h *IntakeHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required (YYYY-MM-DD)")
		return
	}
	slots, err := h.svc.Slots(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"slots": slots,
	})
}
