package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"courtbooking/internal/entities"
	apperrors "courtbooking/internal/errors"
	"courtbooking/internal/service"
)

// StaffHandler serves the verification queue used by the front desk.
type StaffHandler struct {
	Service *service.BookingService
}

func NewStaffHandler(svc *service.BookingService) *StaffHandler {
	return &StaffHandler{Service: svc}
}

func (h *StaffHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.ListPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *StaffHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req entities.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.ErrBadRequest("Invalid request"))
		return
	}
	res, err := h.Service.UpdateStatus(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
