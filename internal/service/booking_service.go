package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"courtbooking/internal/db"
	"courtbooking/internal/entities"
	apperrors "courtbooking/internal/errors"
	"courtbooking/internal/utils"
)

// BookingStore persists reservations. Lookups that find nothing return an error
// wrapping apperrors.ErrNotFound.
type BookingStore interface {
	ActiveForSlot(ctx context.Context, courtID, date string) ([]db.Reservation, error)
	Create(ctx context.Context, res *db.Reservation) error
	GetByID(ctx context.Context, id string) (*db.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]db.Reservation, error)
	ListPending(ctx context.Context) ([]db.Reservation, error)
	// UpdateStatusIf changes the status only while it still equals from.
	UpdateStatusIf(ctx context.Context, id, from, to string, verifiedBy *string) (*db.Reservation, error)
}

// CourtLookup reads the court catalog.
type CourtLookup interface {
	GetCourt(ctx context.Context, id string) (*db.Court, error)
}

// Notifier is told about every admitted booking. It must not block.
type Notifier interface {
	NotifyNewBooking(res db.Reservation)
}

type BookingService struct {
	Repo     BookingStore
	Courts   CourtLookup
	locker   SlotLocker
	notifier Notifier
	metrics  *Metrics
	now      func() time.Time
}

// NewBookingService wires the admission workflow. notifier and metrics may be nil.
func NewBookingService(repo BookingStore, courts CourtLookup, locker SlotLocker, notifier Notifier, metrics *Metrics) *BookingService {
	if locker == nil {
		locker = NewLocalSlotLocker()
	}
	return &BookingService{
		Repo:     repo,
		Courts:   courts,
		locker:   locker,
		notifier: notifier,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Admit validates a booking request and stores it as Pending when its interval
// is free on that court and date. The conflict check and the insert run under
// the slot lock so two overlapping requests can never both be admitted.
func (s *BookingService) Admit(ctx context.Context, req entities.AdmissionRequest) (*db.Reservation, error) {
	started := time.Now()
	res, err := s.admit(ctx, req)
	s.metrics.observeAdmission(admissionOutcome(err), time.Since(started))
	return res, err
}

func (s *BookingService) admit(ctx context.Context, req entities.AdmissionRequest) (*db.Reservation, error) {
	if err := validateAdmission(&req); err != nil {
		return nil, err
	}

	start, err := utils.ToMinutes(req.StartTime)
	if err != nil {
		return nil, err
	}
	candidate := CandidateInterval(start, *req.DurationHours)
	if candidate.End > utils.MinutesPerDay {
		return nil, fmt.Errorf("booking from %s for %g hours runs past midnight: %w",
			req.StartTime, *req.DurationHours, apperrors.ErrInvalidField)
	}

	if err := s.checkCourt(ctx, req.CourtID); err != nil {
		return nil, err
	}

	held, unlock, err := s.locker.Lock(ctx, SlotKey(req.CourtID, req.Date))
	if err != nil {
		return nil, fmt.Errorf("lock slot %s on %s: %v: %w", req.CourtID, req.Date, err, apperrors.ErrPersistence)
	}
	defer unlock()

	existing, err := s.Repo.ActiveForSlot(held, req.CourtID, req.Date)
	if err != nil {
		return nil, persistenceError("load bookings", err)
	}
	taken, err := FindConflict(existing, candidate)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		log.Info().
			Str("court_id", req.CourtID).
			Str("date", req.Date).
			Str("start_time", req.StartTime).
			Str("conflicts_with", taken.ID).
			Msg("Booking rejected, slot taken")
		return nil, fmt.Errorf("court %s on %s at %s overlaps booking %s: %w",
			req.CourtID, req.Date, req.StartTime, taken.ID, apperrors.ErrSlotTaken)
	}

	now := s.now()
	res := &db.Reservation{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		CourtID:       req.CourtID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		DurationHours: *req.DurationHours,
		TotalPrice:    *req.TotalPrice,
		Status:        db.StatusPending,
		PaymentSlip:   req.PaymentSlip,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	// The insert must not outlive the lock.
	if err := held.Err(); err != nil {
		return nil, fmt.Errorf("slot lock for %s on %s lapsed before insert: %v: %w",
			req.CourtID, req.Date, err, apperrors.ErrPersistence)
	}
	if err := s.Repo.Create(held, res); err != nil {
		return nil, persistenceError("create booking", err)
	}

	log.Info().
		Str("booking_id", res.ID).
		Str("court_id", res.CourtID).
		Str("date", res.Date).
		Str("start_time", res.StartTime).
		Float64("duration_hours", res.DurationHours).
		Msg("Booking admitted")

	if s.notifier != nil {
		s.notifier.NotifyNewBooking(*res)
	}
	return res, nil
}

// HasConflict reports whether [start, end) overlaps an active booking on the
// court and date. It never writes.
func (s *BookingService) HasConflict(ctx context.Context, courtID, date string, start, end int) (bool, error) {
	existing, err := s.Repo.ActiveForSlot(ctx, courtID, date)
	if err != nil {
		return false, persistenceError("load bookings", err)
	}
	taken, err := FindConflict(existing, Interval{Start: start, End: end})
	if err != nil {
		return false, err
	}
	return taken != nil, nil
}

// ActiveForSlot lists the Pending and Confirmed bookings of a court on a date.
func (s *BookingService) ActiveForSlot(ctx context.Context, courtID, date string) ([]db.Reservation, error) {
	if err := validateSlot(courtID, date); err != nil {
		return nil, err
	}
	res, err := s.Repo.ActiveForSlot(ctx, courtID, date)
	if err != nil {
		return nil, persistenceError("load bookings", err)
	}
	if res == nil {
		res = []db.Reservation{}
	}
	return res, nil
}

// Availability returns the busy intervals of a court on a date, earliest first.
func (s *BookingService) Availability(ctx context.Context, courtID, date string) (*entities.AvailabilityResponse, error) {
	active, err := s.ActiveForSlot(ctx, courtID, date)
	if err != nil {
		return nil, err
	}

	resp := &entities.AvailabilityResponse{CourtID: courtID, Date: date, Busy: []entities.BusyInterval{}}
	for _, res := range active {
		iv, err := ReservationInterval(res)
		if err != nil {
			return nil, fmt.Errorf("stored booking %s: %v: %w", res.ID, err, apperrors.ErrPersistence)
		}
		resp.Busy = append(resp.Busy, entities.BusyInterval{
			BookingID:    res.ID,
			Status:       res.Status,
			StartMinutes: iv.Start,
			EndMinutes:   iv.End,
			StartTime:    utils.FormatMinutes(iv.Start),
			EndTime:      utils.FormatMinutes(iv.End),
		})
	}
	sort.Slice(resp.Busy, func(i, j int) bool {
		return resp.Busy[i].StartMinutes < resp.Busy[j].StartMinutes
	})
	return resp, nil
}

// ListByUser returns a user's booking history, newest first.
func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]db.Reservation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user_id: %w", apperrors.ErrMissingField)
	}
	res, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceError("list user bookings", err)
	}
	return res, nil
}

// ListPending returns the staff verification queue, oldest first.
func (s *BookingService) ListPending(ctx context.Context) ([]db.Reservation, error) {
	res, err := s.Repo.ListPending(ctx)
	if err != nil {
		return nil, persistenceError("list pending bookings", err)
	}
	return res, nil
}

// UpdateStatus confirms or cancels a Pending booking on behalf of staff.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, req entities.StatusUpdateRequest) (*db.Reservation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", apperrors.ErrMissingField)
	}
	if req.Status == "" {
		return nil, fmt.Errorf("status: %w", apperrors.ErrMissingField)
	}
	if req.Status != db.StatusConfirmed && req.Status != db.StatusCancelled && req.Status != db.StatusPending {
		return nil, fmt.Errorf("status %q: %w", req.Status, apperrors.ErrInvalidField)
	}

	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("booking "+id, err)
	}
	if !canTransition(current.Status, req.Status) {
		return nil, fmt.Errorf("booking %s is %s, cannot become %s: %w",
			id, current.Status, req.Status, apperrors.ErrInvalidTransition)
	}

	var verifiedBy *string
	if req.StaffID != "" {
		verifiedBy = &req.StaffID
	}
	updated, err := s.Repo.UpdateStatusIf(ctx, id, current.Status, req.Status, verifiedBy)
	if errors.Is(err, apperrors.ErrNotFound) {
		// The row existed a moment ago, so another update won the race.
		return nil, fmt.Errorf("booking %s changed concurrently: %w", id, apperrors.ErrInvalidTransition)
	}
	if err != nil {
		return nil, persistenceError("update booking status", err)
	}

	s.metrics.observeStatusUpdate(updated.Status)
	log.Info().
		Str("booking_id", id).
		Str("from", current.Status).
		Str("to", updated.Status).
		Str("staff_id", req.StaffID).
		Msg("Booking status updated")
	return updated, nil
}

func (s *BookingService) checkCourt(ctx context.Context, courtID string) error {
	if s.Courts == nil {
		return nil
	}
	court, err := s.Courts.GetCourt(ctx, courtID)
	if err != nil {
		return lookupError("court "+courtID, err)
	}
	if court.Status == db.CourtMaintenance {
		return fmt.Errorf("court %s is under maintenance: %w", courtID, apperrors.ErrCourtUnavailable)
	}
	return nil
}

func validateAdmission(req *entities.AdmissionRequest) error {
	req.CourtID = strings.TrimSpace(req.CourtID)
	req.Date = strings.TrimSpace(req.Date)
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.UserID = strings.TrimSpace(req.UserID)

	switch {
	case req.CourtID == "":
		return fmt.Errorf("court_id: %w", apperrors.ErrMissingField)
	case req.Date == "":
		return fmt.Errorf("date: %w", apperrors.ErrMissingField)
	case req.StartTime == "":
		return fmt.Errorf("start_time: %w", apperrors.ErrMissingField)
	case req.DurationHours == nil:
		return fmt.Errorf("duration_hours: %w", apperrors.ErrMissingField)
	case req.UserID == "":
		return fmt.Errorf("user_id: %w", apperrors.ErrMissingField)
	case req.TotalPrice == nil:
		return fmt.Errorf("total_price: %w", apperrors.ErrMissingField)
	}

	if err := utils.ValidateDate(req.Date); err != nil {
		return err
	}
	if !isFinite(*req.DurationHours) {
		return fmt.Errorf("duration_hours must be a finite number: %w", apperrors.ErrInvalidField)
	}
	if !isFinite(*req.TotalPrice) {
		return fmt.Errorf("total_price must be a finite number: %w", apperrors.ErrInvalidField)
	}
	if *req.DurationHours <= 0 || durationMinutes(*req.DurationHours) <= 0 {
		return fmt.Errorf("duration_hours must be positive, got %g: %w", *req.DurationHours, apperrors.ErrInvalidField)
	}
	if *req.TotalPrice < 0 {
		return fmt.Errorf("total_price must not be negative, got %g: %w", *req.TotalPrice, apperrors.ErrInvalidField)
	}
	if req.PaymentSlip != nil && strings.TrimSpace(*req.PaymentSlip) == "" {
		req.PaymentSlip = nil
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateSlot(courtID, date string) error {
	if strings.TrimSpace(courtID) == "" {
		return fmt.Errorf("court_id: %w", apperrors.ErrMissingField)
	}
	return utils.ValidateDate(date)
}

// canTransition allows only Pending -> Confirmed and Pending -> Cancelled.
func canTransition(from, to string) bool {
	return from == db.StatusPending && (to == db.StatusConfirmed || to == db.StatusCancelled)
}

func persistenceError(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("Booking store failure")
	return fmt.Errorf("%s: %v: %w", op, err, apperrors.ErrPersistence)
}

func lookupError(what string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	}
	return persistenceError("load "+what, err)
}

func admissionOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeAdmitted
	case errors.Is(err, apperrors.ErrSlotTaken):
		return outcomeRejected
	case apperrors.IsClientError(err):
		return outcomeInvalid
	default:
		return outcomeFailed
	}
}
