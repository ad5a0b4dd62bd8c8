package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"slot taken", fmt.Errorf("court c1 on 2024-06-01: %w", ErrSlotTaken), http.StatusConflict},
		{"maintenance", fmt.Errorf("court c1: %w", ErrCourtUnavailable), http.StatusConflict},
		{"transition", fmt.Errorf("Confirmed -> Pending: %w", ErrInvalidTransition), http.StatusConflict},
		{"not found", fmt.Errorf("court c9: %w", ErrNotFound), http.StatusNotFound},
		{"missing", fmt.Errorf("court_id: %w", ErrMissingField), http.StatusBadRequest},
		{"invalid", fmt.Errorf("duration_hours: %w", ErrInvalidField), http.StatusBadRequest},
		{"time", fmt.Errorf("\"25:00\": %w", ErrInvalidTimeFormat), http.StatusBadRequest},
		{"persistence", fmt.Errorf("insert booking: %w", ErrPersistence), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"http error", ErrBadRequest("Invalid request"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, FromError(tc.err).Code)
		})
	}
}

func TestFromError_HidesServerCause(t *testing.T) {
	err := fmt.Errorf("dial tcp 10.0.0.1:5432: %w", ErrPersistence)
	httpErr := FromError(err)
	assert.Equal(t, "Internal server error", httpErr.Message)
	assert.False(t, IsClientError(err))
}

func TestFromError_SlotTakenMessage(t *testing.T) {
	httpErr := FromError(fmt.Errorf("wrapped: %w", ErrSlotTaken))
	assert.Equal(t, SlotTakenMessage, httpErr.Message)
	assert.True(t, IsClientError(ErrSlotTaken))
	assert.Nil(t, FromError(nil))
}
