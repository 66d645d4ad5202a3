package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/policy"
	"github.com/ignite/mailing-admin/internal/service/sending"
	"github.com/ignite/mailing-admin/internal/validation"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalid            = "validation_failed"
	CodeBadRequest         = "bad_request"
	CodeNotFound           = "not_found"
	CodeUnauthenticated    = "unauthenticated"
	CodeWindowInactive     = "window_inactive"
	CodeDispatchInProgress = "dispatch_in_progress"
	CodeInternal           = "internal"
)

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("json encode failed", zap.Error(err))
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 response with the given data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 response with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorResponse{Error: message, Code: code})
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, CodeBadRequest, message)
}

// NotFound writes a 404 error.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, CodeNotFound, "not found")
}

// InternalError writes a 500 error. The real error is logged; the client
// only sees a generic message.
func InternalError(w http.ResponseWriter, log *zap.Logger, err error) {
	log.Error("internal error", zap.Error(err))
	Error(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// Fail maps a service error onto the matching status and envelope.
func Fail(w http.ResponseWriter, log *zap.Logger, err error) {
	var v *validation.Error
	switch {
	case errors.As(err, &v):
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Code: CodeInvalid, Details: v})
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w)
	case errors.Is(err, policy.ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, CodeUnauthenticated, "authentication required")
	case errors.Is(err, sending.ErrWindowInactive):
		Error(w, http.StatusConflict, CodeWindowInactive, "The mailing is not active at this time.")
	case errors.Is(err, sending.ErrDispatchInProgress):
		Error(w, http.StatusConflict, CodeDispatchInProgress, "The mailing is already being sent.")
	default:
		InternalError(w, log, err)
	}
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
