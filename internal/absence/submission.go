package absence

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/core/common/validation"
	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	hrclient "github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/session"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

const (
	MsgSubmitFailed    = "No se pudo enviar la solicitud de ausencia"
	MsgSubmitSucceeded = "Solicitud de ausencia enviada correctamente"
)

type SubmissionBackend interface {
	CreateAbsence(ctx context.Context, absence rrhh.NewAbsence) (*rrhh.AbsenceRequest, error)
}

type SubmissionService struct {
	backend SubmissionBackend
	bus     events.Publisher
	logger  *slog.Logger
	// Now is the clock used for the past-date check and fecha_solicitud.
	Now func() time.Time
}

func NewSubmissionService(backend SubmissionBackend, bus events.Publisher, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{
		backend: backend,
		bus:     bus,
		logger:  logger,
		Now:     time.Now,
	}
}

// Submit validates the form completely before the caller's identity is looked up or
// the backend is called. On success the returned form is blank except for the
// employee id.
func (s *SubmissionService) Submit(ctx context.Context, dto SubmitAbsenceDTO) (*SubmissionResult, error) {
	lg := logger.FromOr(ctx, s.logger)
	now := s.Now()

	dto.Tipo = strings.TrimSpace(dto.Tipo)
	dto.FechaInicio = strings.TrimSpace(dto.FechaInicio)
	dto.FechaFin = strings.TrimSpace(dto.FechaFin)

	required := validation.NewValidator()
	required.Field("tipo", dto.Tipo).Required()
	required.Field("fecha_inicio", dto.FechaInicio).Required()
	required.Field("fecha_fin", dto.FechaFin).Required()
	if err := required.Validate(); err != nil {
		return nil, err
	}

	format := validation.NewValidator()
	format.Field("tipo", dto.Tipo).OneOf(rrhh.AbsenceKinds, validation.MsgInvalidKind, internal.ErrCodeInvalidAbsenceKind)
	format.Field("fecha_inicio", dto.FechaInicio).Date()
	format.Field("fecha_fin", dto.FechaFin).Date()
	if err := format.Validate(); err != nil {
		return nil, err
	}

	start, _ := rrhh.ParseDate(dto.FechaInicio)
	end, _ := rrhh.ParseDate(dto.FechaFin)

	if end.Before(start.Time) {
		return nil, internal.NewValidationFieldError("fecha_fin", validation.MsgEndBeforeStart, internal.ErrCodeInvalidDateRange)
	}
	if err := validation.NotBefore("fecha_inicio", start.Time, now, validation.MsgStartInPast, internal.ErrCodeStartDateInPast); err != nil {
		return nil, err
	}

	employeeID, err := session.EmployeeID(ctx)
	if err != nil {
		lg.Warn("absence submission without identity", "error", err)
		return nil, err
	}

	created, err := s.backend.CreateAbsence(ctx, rrhh.NewAbsence{
		IDEmpleado:     employeeID,
		Tipo:           dto.Tipo,
		FechaInicio:    dto.FechaInicio,
		FechaFin:       dto.FechaFin,
		Motivo:         strings.TrimSpace(dto.Motivo),
		FechaSolicitud: now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		lg.Error("failed to submit absence", "employee_id", employeeID, "error", err)
		return nil, hrclient.MutationError(err, MsgSubmitFailed)
	}

	lg.Info("absence submitted", "employee_id", employeeID, "kind", dto.Tipo, "start", dto.FechaInicio, "end", dto.FechaFin)
	publish(ctx, s.bus, lg, events.NewAbsenceSubmittedEvent(employeeID, dto.Tipo, dto.FechaInicio, dto.FechaFin))

	result := &SubmissionResult{
		Form:    BlankForm(employeeID),
		Message: MsgSubmitSucceeded,
	}
	if created != nil {
		row := toRow(*created)
		row.Badge = BadgeFor(row.Status)
		result.Created = &row
	}
	return result, nil
}

func BlankForm(employeeID int64) SubmissionForm {
	return SubmissionForm{EmployeeID: employeeID, Kinds: rrhh.AbsenceKinds}
}
