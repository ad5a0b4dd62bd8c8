package api

import (
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"courtbooking/internal/entities"
	apperrors "courtbooking/internal/errors"
	"courtbooking/internal/service"
)

const (
	maxFormMemory = 10 << 20
	slipFileField = "slipImage"
)

type BookingHandler struct {
	Service *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// ListForSlot serves GET /api/bookings/court/{courtId}/date/{date}.
func (h *BookingHandler) ListForSlot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.Service.ActiveForSlot(r.Context(), vars["courtId"], vars["date"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Availability serves GET /api/bookings/court/{courtId}/date/{date}/availability.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.Service.Availability(r.Context(), vars["courtId"], vars["date"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateBooking serves POST /api/bookings.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAdmission(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Service.Admit(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListForUser serves GET /api/bookings/user/{userId}.
func (h *BookingHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.ListByUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeAdmission accepts JSON bodies as well as the form encodings browser
// uploads use.
func decodeAdmission(r *http.Request) (entities.AdmissionRequest, error) {
	var req entities.AdmissionRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxFormMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return req, apperrors.ErrBadRequest("Invalid form data")
		}
		req.CourtID = r.FormValue("court_id")
		req.Date = r.FormValue("date")
		req.StartTime = r.FormValue("start_time")
		req.UserID = r.FormValue("user_id")
		if req.DurationHours, err = formFloat(r, "duration_hours"); err != nil {
			return req, err
		}
		if req.TotalPrice, err = formFloat(r, "total_price"); err != nil {
			return req, err
		}
		if slip := strings.TrimSpace(r.FormValue("payment_slip")); slip != "" {
			req.PaymentSlip = &slip
		} else if mediaType == "multipart/form-data" {
			req.PaymentSlip = uploadedSlip(r)
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, apperrors.ErrBadRequest("Invalid request")
		}
	}
	return req, nil
}

// uploadedSlip returns the file name of the slipImage part, if any. Only the
// reference is kept; the upload itself is stored elsewhere.
func uploadedSlip(r *http.Request) *string {
	file, header, err := r.FormFile(slipFileField)
	if err != nil {
		return nil
	}
	file.Close()
	name := strings.TrimSpace(header.Filename)
	if name == "" {
		return nil
	}
	return &name
}

func formFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s %q is not a number: %w", key, raw, apperrors.ErrInvalidField)
	}
	return &v, nil
}
