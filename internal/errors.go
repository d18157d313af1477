package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeIdentity   ErrorType = "IDENTITY_ERROR"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
	ErrorTypeConnection ErrorType = "CONNECTION_ERROR"
	ErrorTypeMutation   ErrorType = "MUTATION_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequiredFields     ErrorCode = "REQUIRED_FIELDS"
	ErrCodeInvalidDate        ErrorCode = "INVALID_DATE"
	ErrCodeInvalidDateRange   ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeStartDateInPast    ErrorCode = "START_DATE_IN_PAST"
	ErrCodeInvalidAbsenceKind ErrorCode = "INVALID_ABSENCE_KIND"
	ErrCodeInvalidStatus      ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidDepartment  ErrorCode = "INVALID_DEPARTMENT"
	ErrCodeReasonRequired     ErrorCode = "REASON_REQUIRED"
	ErrCodeInvalidClientID    ErrorCode = "INVALID_CLIENT_ID"

	ErrCodeEmployeeInactive   ErrorCode = "EMPLOYEE_INACTIVE"
	ErrCodeTerminationPending ErrorCode = "TERMINATION_ALREADY_PENDING"
	ErrCodeRowNotInView       ErrorCode = "ROW_NOT_IN_VIEW"
	ErrCodeScreenNotMounted   ErrorCode = "SCREEN_NOT_MOUNTED"
	ErrCodeDepartmentMissing  ErrorCode = "DEPARTMENT_MISSING"

	ErrCodeIdentityUnresolved ErrorCode = "IDENTITY_UNRESOLVED"

	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeBackendRejected    ErrorCode = "BACKEND_REJECTED"
	ErrCodeStateStore         ErrorCode = "STATE_STORE_FAILED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// GetDetailedMessage joins the per-field messages of a validation error.
func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithMessage replaces the user-facing message, keeping type, code and details.
func (e *AppError) WithMessage(message string) *AppError {
	e.Message = message
	return e
}

// Is matches on type and code so shared sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewIdentityError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeIdentity,
		Code:       ErrCodeIdentityUnresolved,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConnectionError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeConnection,
		Code:       ErrCodeBackendUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

func NewStateStoreError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeStateStore,
		Message:    MsgStateStoreFailed,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewMutationError reports a write the HR backend refused. statusCode is the status the
// portal answers with; zero means 502.
func NewMutationError(message string, statusCode int, cause error) *AppError {
	if statusCode == 0 {
		statusCode = http.StatusBadGateway
	}
	return &AppError{
		Type:       ErrorTypeMutation,
		Code:       ErrCodeBackendRejected,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// User-facing fallbacks shared by every screen.
const (
	MsgConnectionFailed = "No se pudo conectar con el servidor. Intente nuevamente."
	MsgIdentityFailed   = "No se pudo identificar al usuario. Inicie sesión nuevamente."
	MsgStateStoreFailed = "No se pudo guardar la preferencia del departamento."
)

var (
	ErrIdentityUnresolved = NewIdentityError(MsgIdentityFailed, nil)
	ErrScreenNotMounted   = NewNotFoundError("La pantalla no está cargada. Recargue la página.", ErrCodeScreenNotMounted)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
