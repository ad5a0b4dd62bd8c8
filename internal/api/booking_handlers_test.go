package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbooking/internal/db"
	"courtbooking/internal/entities"
	"courtbooking/internal/service"
	"courtbooking/internal/testutil"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newTestRouter(t *testing.T, store *testutil.MemoryStore) http.Handler {
	t.Helper()
	svc := service.NewBookingService(store, testutil.DefaultCourts(), service.NewLocalSlotLocker(), nil, nil)
	return NewRouter(RouterConfig{
		Bookings: NewBookingHandler(svc),
		Staff:    NewStaffHandler(svc),
		DB:       fakePinger{},
	})
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func bookingBody(start string, hours float64) map[string]interface{} {
	return map[string]interface{}{
		"court_id":       "C1",
		"date":           "2024-06-01",
		"start_time":     start,
		"duration_hours": hours,
		"user_id":        "U1",
		"total_price":    50,
	}
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var msg messageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	return msg.Message
}

func TestCreateBooking_CreatedThenConflict(t *testing.T) {
	store := testutil.NewMemoryStore()
	h := newTestRouter(t, store)

	rec := do(t, h, http.MethodPost, "/api/bookings", bookingBody("2:00 PM", 2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var created db.Reservation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, db.StatusPending, created.Status)
	assert.Equal(t, "2:00 PM", created.StartTime)
	assert.Equal(t, 2.0, created.DurationHours)

	rec = do(t, h, http.MethodPost, "/api/bookings", bookingBody("3:00 PM", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This time slot is already taken.", decodeMessage(t, rec))
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	h := newTestRouter(t, testutil.NewMemoryStore())

	missing := bookingBody("2:00 PM", 2)
	delete(missing, "total_price")
	rec := do(t, h, http.MethodPost, "/api/bookings", missing)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMessage(t, rec), "total_price")

	rec = do(t, h, http.MethodPost, "/api/bookings", bookingBody("14:00", 2))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/bookings", bookingBody("2:00 PM", 0))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_CourtStates(t *testing.T) {
	h := newTestRouter(t, testutil.NewMemoryStore())

	body := bookingBody("2:00 PM", 1)
	body["court_id"] = "C9"
	rec := do(t, h, http.MethodPost, "/api/bookings", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body["court_id"] = "nope"
	rec = do(t, h, http.MethodPost, "/api/bookings", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBooking_PersistenceFailure(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.CreateErr = errors.New("pq: connection refused")
	h := newTestRouter(t, store)

	rec := do(t, h, http.MethodPost, "/api/bookings", bookingBody("2:00 PM", 1))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, decodeMessage(t, rec), "pq")
}

func TestCreateBooking_MultipartForm(t *testing.T) {
	store := testutil.NewMemoryStore()
	h := newTestRouter(t, store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"court_id":       "C1",
		"date":           "2024-06-01",
		"start_time":     "10:00 AM",
		"duration_hours": "1.5",
		"user_id":        "U1",
		"total_price":    "37.5",
		"payment_slip":   "1717000000-slip.png",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created db.Reservation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, 1.5, created.DurationHours)
	require.NotNil(t, created.PaymentSlip)
	assert.Equal(t, "1717000000-slip.png", *created.PaymentSlip)
}

func TestCreateBooking_URLEncodedForm(t *testing.T) {
	h := newTestRouter(t, testutil.NewMemoryStore())

	form := url.Values{
		"court_id":       {"C1"},
		"date":           {"2024-06-01"},
		"start_time":     {"10:00 AM"},
		"duration_hours": {"one"},
		"user_id":        {"U1"},
		"total_price":    {"25"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	form.Set("duration_hours", "1")
	req = httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func postForm(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateBooking_NonFiniteFormNumbers(t *testing.T) {
	h := newTestRouter(t, testutil.NewMemoryStore())

	for _, field := range []string{"total_price", "duration_hours"} {
		for _, raw := range []string{"NaN", "Inf", "-Inf", "+Infinity"} {
			form := url.Values{
				"court_id":       {"C1"},
				"date":           {"2024-06-01"},
				"start_time":     {"10:00 AM"},
				"duration_hours": {"1"},
				"user_id":        {"U1"},
				"total_price":    {"25"},
			}
			form.Set(field, raw)
			rec := postForm(t, h, form)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "%s=%s", field, raw)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/bookings/court/C1/date/2024-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestCreateBooking_MultipartSlipFile(t *testing.T) {
	h := newTestRouter(t, testutil.NewMemoryStore())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"court_id":       "C1",
		"date":           "2024-06-01",
		"start_time":     "6:00 PM",
		"duration_hours": "1",
		"user_id":        "U1",
		"total_price":    "25",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("slipImage", "receipt-0601.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created db.Reservation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotNil(t, created.PaymentSlip)
	assert.Equal(t, "receipt-0601.png", *created.PaymentSlip)
}

func TestListForSlot(t *testing.T) {
	store := testutil.NewMemoryStore(
		testutil.Booking("b1", "C1", "2024-06-01", "10:00 AM", 1, db.StatusConfirmed),
		testutil.Booking("b2", "C1", "2024-06-01", "1:00 PM", 1, db.StatusCancelled),
		testutil.Booking("b3", "C1", "2024-06-02", "1:00 PM", 1, db.StatusPending),
	)
	h := newTestRouter(t, store)

	rec := do(t, h, http.MethodGet, "/api/bookings/court/C1/date/2024-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []db.Reservation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "b1", list[0].ID)

	rec = do(t, h, http.MethodGet, "/api/bookings/court/C2/date/2024-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/bookings/court/C1/date/2024-6-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailability(t *testing.T) {
	store := testutil.NewMemoryStore(
		testutil.Booking("b1", "C1", "2024-06-01", "2:00 PM", 2, db.StatusPending),
	)
	h := newTestRouter(t, store)

	rec := do(t, h, http.MethodGet, "/api/bookings/court/C1/date/2024-06-01/availability", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp entities.AvailabilityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Busy, 1)
	assert.Equal(t, "4:00 PM", resp.Busy[0].EndTime)
}

func TestListForUser(t *testing.T) {
	b := testutil.Booking("b1", "C1", "2024-06-01", "10:00 AM", 1, db.StatusConfirmed)
	b.UserID = "U7"
	h := newTestRouter(t, testutil.NewMemoryStore(b))

	rec := do(t, h, http.MethodGet, "/api/bookings/user/U7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []db.Reservation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 1)
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t, testutil.NewMemoryStore())
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	svc := service.NewBookingService(testutil.NewMemoryStore(), nil, nil, nil, nil)
	down := NewRouter(RouterConfig{
		Bookings: NewBookingHandler(svc),
		Staff:    NewStaffHandler(svc),
		DB:       fakePinger{err: errors.New("down")},
	})
	rec = do(t, down, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
