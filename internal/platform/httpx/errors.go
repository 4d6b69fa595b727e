// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/munifin/munifin/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Business-rule rejections
// (guard failures) map to 400, authorization failures to 403, missing records
// to 404; storage faults after retry map to 503.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInsufficientBalance):
		Problem(w, http.StatusBadRequest, "Insufficient Balance", err.Error())
	case errors.Is(err, shared.ErrUnbalanced):
		Problem(w, http.StatusBadRequest, "Unbalanced Entry", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		Problem(w, http.StatusBadRequest, "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrStorageFailure):
		Problem(w, http.StatusServiceUnavailable, "Storage Failure", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
