package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "courtbooking/internal/errors"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps err onto a status code. Only server faults are logged as errors;
// rejections such as a taken slot are normal outcomes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := apperrors.FromError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, httpErr.Code, messageResponse{Message: httpErr.Message})
}
