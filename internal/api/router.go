package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	Bookings    *BookingHandler
	Staff       *StaffHandler
	DB          Pinger
	Metrics     http.Handler
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(WithRequestID, WithLogging, WithRecovery)

	r.HandleFunc("/api/bookings", cfg.Bookings.CreateBooking).Methods(http.MethodPost)

	bookings := r.PathPrefix("/api/bookings").Subrouter()
	bookings.HandleFunc("/court/{courtId}/date/{date}", cfg.Bookings.ListForSlot).Methods(http.MethodGet)
	bookings.HandleFunc("/court/{courtId}/date/{date}/availability", cfg.Bookings.Availability).Methods(http.MethodGet)
	bookings.HandleFunc("/user/{userId}", cfg.Bookings.ListForUser).Methods(http.MethodGet)

	// Staff dashboard
	bookings.HandleFunc("/pending", cfg.Staff.ListPending).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}/status", cfg.Staff.UpdateStatus).Methods(http.MethodPatch)

	r.HandleFunc("/healthz", healthHandler(cfg.DB)).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	if len(cfg.CORSOrigins) == 0 {
		return r
	}
	return WithCORS(cfg.CORSOrigins)(r)
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, messageResponse{Message: "database unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
	}
}
