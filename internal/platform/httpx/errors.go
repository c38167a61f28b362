package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Services wrap these with context and
// RespondError maps them back onto status codes.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps a domain error onto the failure envelope. Internal
// errors carry their chain as errorDetails so a failed update names the step
// that aborted the transaction; secrets never travel inside error text.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, "Resource not found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, "Duplicate entry", err.Error())
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, "Unauthorized", "")
	default:
		Fail(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
