package rrhh

import (
	"net/http"

	"github.com/frahmantamala/hr-portal/internal"
)

// UserMessage returns the backend's own message for err when it sent one, else fallback.
func UserMessage(err error, fallback string) string {
	if apiErr, ok := AsAPIError(err); ok {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}

// MutationError converts a failed write into the portal's mutation error. Backend 4xx
// statuses pass through, anything else becomes 502.
func MutationError(err error, fallback string) *internal.AppError {
	status := http.StatusBadGateway
	if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		status = apiErr.StatusCode
	}
	return internal.NewMutationError(UserMessage(err, fallback), status, err)
}

// ConnectionError converts a failed read into the portal's connection error.
func ConnectionError(err error) *internal.AppError {
	return internal.NewConnectionError(internal.MsgConnectionFailed, err)
}
