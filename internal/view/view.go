// Package view holds the screen view models shared by every screen component and the
// per-client registry of mounted screens.
package view

import (
	"errors"
	"net/http"

	"github.com/frahmantamala/hr-portal/internal"
)

type State string

const (
	StateLoading State = "loading"
	StateError   State = "error"
	StateEmpty   State = "empty"
	StateReady   State = "ready"
)

// Failure is the error banner of a screen. Retry tells the client that mounting the
// screen again may succeed.
type Failure struct {
	Type    internal.ErrorType `json:"type"`
	Code    internal.ErrorCode `json:"code"`
	Message string             `json:"message"`
	Retry   bool               `json:"retry"`
}

// FailureFrom converts err into a banner. Errors that are not AppErrors become the
// generic connection failure.
func FailureFrom(err error) *Failure {
	var appErr *internal.AppError
	if !errors.As(err, &appErr) {
		return &Failure{
			Type:    internal.ErrorTypeConnection,
			Code:    internal.ErrCodeBackendUnavailable,
			Message: internal.MsgConnectionFailed,
			Retry:   true,
		}
	}
	return &Failure{
		Type:    appErr.Type,
		Code:    appErr.Code,
		Message: appErr.Message,
		Retry:   appErr.Type == internal.ErrorTypeConnection,
	}
}

// Page is a rendered screen listing rows of T.
type Page[T any] struct {
	State State    `json:"state"`
	Error *Failure `json:"error,omitempty"`
	Rows  []T      `json:"rows"`
}

// Rendered classifies rows as empty or ready.
func Rendered[T any](rows []T) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) == 0 {
		return Page[T]{State: StateEmpty, Rows: rows}
	}
	return Page[T]{State: StateReady, Rows: rows}
}

// Failed renders the error state of a screen with no rows.
func Failed[T any](err error) Page[T] {
	return Page[T]{State: StateError, Error: FailureFrom(err), Rows: []T{}}
}

// HTTPStatus is the status a screen GET answers with. Error views are regular
// responses, except that a missing identity is reported as 401.
func (p Page[T]) HTTPStatus() int {
	if p.Error != nil && p.Error.Type == internal.ErrorTypeIdentity {
		return http.StatusUnauthorized
	}
	return http.StatusOK
}

// NotMountedError is returned by operations on a screen the client has not loaded.
func NotMountedError() *internal.AppError {
	return internal.NewNotFoundError(internal.ErrScreenNotMounted.Message, internal.ErrCodeScreenNotMounted)
}
