package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codementor-ai/codementor/internal/provider"
	"github.com/codementor-ai/codementor/internal/session"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidStage     = "INVALID_STAGE"
	ErrCodeStagesRemaining  = "STAGES_REMAINING"
	ErrCodeAlreadyCompleted = "ALREADY_COMPLETED"
	ErrCodeStreamBusy       = "STREAM_BUSY"
	ErrCodeProviderError    = "PROVIDER_ERROR"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeServiceError maps a session or provider error to an API error
// response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
	case errors.Is(err, session.ErrNoFurtherStage):
		writeError(w, http.StatusConflict, ErrCodeInvalidStage, "Already at the last learning stage")
	case errors.Is(err, session.ErrStageConflict):
		writeError(w, http.StatusConflict, ErrCodeInvalidStage, "Stage changed concurrently, retry")
	case errors.Is(err, session.ErrStagesRemaining):
		writeError(w, http.StatusConflict, ErrCodeStagesRemaining, "Please complete all learning stages before summarizing")
	case errors.Is(err, session.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, ErrCodeAlreadyCompleted, "Learning already completed")
	case errors.Is(err, session.ErrStreamBusy):
		writeError(w, http.StatusConflict, ErrCodeStreamBusy, "A streamed reply is already in progress")
	case errors.Is(err, provider.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "Completion provider rate limited the request")
	case errors.Is(err, provider.ErrUnauthorized),
		errors.Is(err, provider.ErrUnavailable),
		errors.Is(err, provider.ErrMalformedResponse):
		writeError(w, http.StatusBadGateway, ErrCodeProviderError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
