package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tesconnections/gateway/internal/backend"
	"github.com/tesconnections/gateway/internal/service"
)

type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Dashboard returns the reconciled admin view: both tables sorted,
// plus the headline counters.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Load(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// Delete removes one submission by id.
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// Update edits one submission. Meetings accept a new timeSlot,
// connections accept edited comments; exactly one must be present.
func (h *DashboardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		TimeSlot *string `json:"timeSlot"`
		Comments *string `json:"comments"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch {
	case req.TimeSlot != nil && req.Comments == nil:
		err = h.svc.UpdateMeetingTime(r.Context(), id, *req.TimeSlot)
	case req.Comments != nil && req.TimeSlot == nil:
		err = h.svc.UpdateComments(r.Context(), id, *req.Comments)
	default:
		writeError(w, http.StatusBadRequest, "provide exactly one of timeSlot or comments")
		return
	}
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"updated": id})
}

// Export streams the CSV download for one subset (meetings,
// connections or all).
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	set := r.URL.Query().Get("set")
	switch set {
	case "", "all":
		set = "all"
	case "meetings", "connections":
	default:
		writeError(w, http.StatusBadRequest, "set must be meetings, connections or all")
		return
	}

	out, err := h.svc.Export(r.Context(), set)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", set, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func writeBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, backend.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "session expired, please sign in again")
		return
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, "backend request failed")
}
