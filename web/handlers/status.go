package handlers

import (
	"errors"
	"net/http"

	"vks.la/patrol/core"
	"vks.la/patrol/store"
)

// httpStatusFor maps the processing error taxonomy onto response codes.
// Validation failures are the client's problem, a busy store is retryable.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyPayload),
		errors.Is(err, core.ErrInvalidPayload),
		errors.Is(err, core.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
