// Package termination is the manager's form for requesting an employee's termination.
package termination

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/core/common/validation"
	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	hrclient "github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/roster"
	"github.com/frahmantamala/hr-portal/internal/scope"
	"github.com/frahmantamala/hr-portal/internal/view"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/frahmantamala/hr-portal/pkg/metrics"
)

const (
	MsgSubmitFailed        = "No se pudo registrar la solicitud de baja"
	MsgEmployeeInactive    = "El empleado no está activo."
	MsgAlreadyPending      = "El empleado ya tiene una solicitud de baja pendiente."
	MsgSubmitSucceeded     = "Solicitud de baja registrada"
	rosterRedirectTemplate = "/rrhh/solicitud-baja/departamento/%d"
)

type Backend interface {
	GetEmployee(ctx context.Context, employeeID int64) (*rrhh.Employee, error)
	ListTerminationRequests(ctx context.Context, status string) ([]rrhh.TerminationRequest, error)
	CreateTerminationRequest(ctx context.Context, req rrhh.NewTermination) error
}

type ScopeResolver interface {
	Resolve(ctx context.Context, clientID string, c scope.Candidates) (scope.Resolution, error)
}

type Form struct {
	State          view.State     `json:"state"`
	Error          *view.Failure  `json:"error,omitempty"`
	Employee       *rrhh.Employee `json:"employee,omitempty"`
	CanSubmit      bool           `json:"can_submit"`
	DisabledReason string         `json:"disabled_reason,omitempty"`
	DisabledLabel  string         `json:"disabled_label,omitempty"`
}

// SubmitDTO carries the reason plus the department the form was opened from. Route
// and Query are only used to pick the redirect target.
type SubmitDTO struct {
	Motivo       string `json:"motivo"`
	Departamento string `json:"departamento"`
	Query        string `json:"-"`
}

type SubmitResult struct {
	EmployeeID   int64  `json:"employee_id"`
	DepartmentID int64  `json:"department_id,omitempty"`
	Redirect     string `json:"redirect,omitempty"`
	Message      string `json:"message"`
}

// RosterRedirect is the roster the manager returns to after submitting.
func RosterRedirect(departmentID int64) string {
	return fmt.Sprintf(rosterRedirectTemplate, departmentID)
}

type Service struct {
	backend  Backend
	resolver ScopeResolver
	mounts   *view.Mounts[*rrhh.Employee]
	bus      events.Publisher
	logger   *slog.Logger
}

func NewService(backend Backend, resolver ScopeResolver, bus events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		backend:  backend,
		resolver: resolver,
		mounts:   view.NewMounts[*rrhh.Employee](),
		bus:      bus,
		logger:   logger,
	}
}

// Mount loads the employee the request is about.
func (s *Service) Mount(ctx context.Context, clientID string, employeeID int64) Form {
	employee, err := s.backend.GetEmployee(ctx, employeeID)
	if err != nil {
		logger.FromOr(ctx, s.logger).Error("failed to load employee", "employee_id", employeeID, "error", err)
		s.mounts.Drop(clientID)
		metrics.ObserveScreen("termination_form", string(view.StateError))
		return Form{State: view.StateError, Error: view.FailureFrom(hrclient.ConnectionError(err))}
	}

	s.mounts.Put(clientID, employee)
	form := formFor(employee)
	metrics.ObserveScreen("termination_form", string(form.State))
	return form
}

// Submit checks the reason, the employee's status and the pending list, in that order,
// before posting the request. The employee mounted by this client is reused; any other
// employee is loaded first.
func (s *Service) Submit(ctx context.Context, clientID string, employeeID int64, dto SubmitDTO) (*SubmitResult, error) {
	lg := logger.FromOr(ctx, s.logger).With("employee_id", employeeID)

	reason := strings.TrimSpace(dto.Motivo)
	if reason == "" {
		return nil, internal.NewValidationFieldError("motivo", validation.MsgReasonRequired, internal.ErrCodeReasonRequired)
	}

	employee, err := s.employee(ctx, clientID, employeeID)
	if err != nil {
		lg.Error("failed to load employee", "error", err)
		return nil, hrclient.ConnectionError(err)
	}
	if !employee.IsActive() {
		return nil, internal.NewValidationError(MsgEmployeeInactive, internal.ErrCodeEmployeeInactive)
	}

	pending, err := s.backend.ListTerminationRequests(ctx, rrhh.StatusPending)
	if err != nil {
		lg.Error("failed to load pending terminations", "error", err)
		return nil, hrclient.ConnectionError(err)
	}
	if roster.NewPendingSet(pending).Has(employee.ID) {
		return nil, internal.NewConflictError(MsgAlreadyPending, internal.ErrCodeTerminationPending)
	}

	if err := s.backend.CreateTerminationRequest(ctx, rrhh.NewTermination{IDEmpleado: employee.ID, Motivo: reason}); err != nil {
		lg.Error("failed to create termination request", "error", err)
		return nil, hrclient.MutationError(err, MsgSubmitFailed)
	}
	s.mounts.Drop(clientID)

	result := &SubmitResult{EmployeeID: employee.ID, Message: MsgSubmitSucceeded}
	res, err := s.resolver.Resolve(ctx, clientID, scope.Candidates{
		Employee: employee.DepartmentID(),
		Route:    dto.Departamento,
		Query:    dto.Query,
	})
	switch {
	case err != nil:
		// the request exists already; only the redirect is lost
		lg.Warn("termination submitted without redirect", "error", err)
	case res.IsResolved():
		result.DepartmentID = res.DepartmentID
		result.Redirect = RosterRedirect(res.DepartmentID)
	}

	lg.Info("termination requested", "department_id", result.DepartmentID)
	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.NewTerminationRequestedEvent(employee.ID, result.DepartmentID)); err != nil {
			lg.Warn("failed to publish event", "error", err)
		}
	}

	return result, nil
}

func (s *Service) employee(ctx context.Context, clientID string, employeeID int64) (*rrhh.Employee, error) {
	if mounted, ok := s.mounts.Get(clientID); ok && mounted.ID == employeeID {
		return mounted, nil
	}
	employee, err := s.backend.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	s.mounts.Put(clientID, employee)
	return employee, nil
}

func formFor(employee *rrhh.Employee) Form {
	form := Form{State: view.StateReady, Employee: employee, CanSubmit: employee.IsActive()}
	if !form.CanSubmit {
		form.DisabledReason, form.DisabledLabel = roster.ReasonInactive, roster.LabelInactive
	}
	return form
}
