package validation

import (
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/hr-portal/internal"
)

const DateLayout = "2006-01-02"

// User-facing messages of the form checks.
const (
	MsgRequiredFields    = "Complete todos los campos obligatorios."
	MsgInvalidDate       = "Fecha inválida. Use el formato AAAA-MM-DD."
	MsgInvalidKind       = "Tipo de ausencia inválido."
	MsgEndBeforeStart    = "La fecha de término no puede ser anterior a la fecha de inicio."
	MsgStartInPast       = "La fecha de inicio no puede ser anterior a hoy."
	MsgInvalidDepartment = "El departamento debe ser un número entero positivo."
	MsgReasonRequired    = "Debe indicar el motivo de la solicitud."
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

// Required rejects empty or whitespace-only strings.
func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, MsgRequiredFields, errors.ErrCodeRequiredFields)
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, MsgRequiredFields, errors.ErrCodeRequiredFields)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) OneOf(allowed []string, message string, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok {
			return nil
		}
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return errors.NewValidationFieldError(fv.FieldName, message, code)
	})
	return fv
}

// Date requires a "2006-01-02" calendar day.
func (fv *FieldValidator) Date() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok {
			return nil
		}
		if _, err := time.ParseInLocation(DateLayout, v, time.Local); err != nil {
			return errors.NewValidationFieldError(fv.FieldName, MsgInvalidDate, errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return fv
}

// PositiveInt accepts an empty string (absent) or a positive base-10 integer.
func (fv *FieldValidator) PositiveInt() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return errors.NewValidationFieldError(fv.FieldName, MsgInvalidDepartment, errors.ErrCodeInvalidDepartment)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every field's validators, stopping at the first failure per field,
// and folds the failures into one validation error. The error's message is the first
// failure's message.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
			} else {
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Message: appErr.Message,
					Code:    string(appErr.Code),
				})
			}
			break
		}
	}

	if len(validationErrors) > 0 {
		code := errors.ErrorCode(validationErrors[0].Code)
		return errors.NewValidationError(validationErrors[0].Message, code).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// NotBefore checks that day is not earlier than floor. Both are compared at calendar
// day granularity in the local time zone.
func NotBefore(field string, day, floor time.Time, message string, code errors.ErrorCode) *errors.AppError {
	if truncateDay(day).Before(truncateDay(floor)) {
		return errors.NewValidationFieldError(field, message, code)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
