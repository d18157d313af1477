// Package employee is the administrator's new-employee form.
package employee

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/hr-portal/internal/core/common/validation"
	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	hrclient "github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/view"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/frahmantamala/hr-portal/pkg/metrics"
)

const (
	MsgCreateFailed = "No se pudo crear el empleado"
	// RedirectEmployees is where a successful creation navigates to.
	RedirectEmployees = "/rrhh/empleados"
	// DepartmentInputNumeric tells the client to render the department as a number
	// field; no department catalogue is fetched.
	DepartmentInputNumeric = "numeric"
)

type Backend interface {
	ListRoles(ctx context.Context) ([]rrhh.Role, error)
	CreateEmployee(ctx context.Context, employee rrhh.NewEmployee) (*rrhh.Employee, error)
}

type Form struct {
	State           view.State    `json:"state"`
	Error           *view.Failure `json:"error,omitempty"`
	Roles           []rrhh.Role   `json:"roles"`
	DepartmentInput string        `json:"department_input"`
	Defaults        CreateDTO     `json:"defaults"`
}

type CreateDTO struct {
	Rut            string      `json:"rut"`
	Nombre         string      `json:"nombre"`
	Apellido       string      `json:"apellido"`
	Email          string      `json:"email"`
	Telefono       string      `json:"telefono"`
	Rol            string      `json:"rol"`
	IDDepartamento NumericText `json:"id_departamento"`
	FechaIngreso   string      `json:"fecha_ingreso"`
}

// NumericText holds a form value that may arrive as a JSON string or number.
type NumericText string

func (n *NumericText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = NumericText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = NumericText(num.String())
	return nil
}

type CreateResult struct {
	Employee *rrhh.Employee `json:"employee"`
	Redirect string         `json:"redirect"`
}

type Service struct {
	backend Backend
	bus     events.Publisher
	logger  *slog.Logger
	Now     func() time.Time
}

func NewService(backend Backend, bus events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		bus:     bus,
		logger:  logger,
		Now:     time.Now,
	}
}

// Mount loads the role catalogue. A failure still returns the blank form so the
// error can be shown next to it.
func (s *Service) Mount(ctx context.Context) Form {
	form := Form{
		State:           view.StateReady,
		Roles:           []rrhh.Role{},
		DepartmentInput: DepartmentInputNumeric,
		Defaults:        CreateDTO{FechaIngreso: s.today()},
	}

	roles, err := s.backend.ListRoles(ctx)
	if err != nil {
		logger.FromOr(ctx, s.logger).Error("failed to load roles", "error", err)
		form.State = view.StateError
		form.Error = view.FailureFrom(hrclient.ConnectionError(err))
		metrics.ObserveScreen("employee_form", string(form.State))
		return form
	}
	if roles != nil {
		form.Roles = roles
	}
	if len(form.Roles) == 0 {
		form.State = view.StateEmpty
	}

	metrics.ObserveScreen("employee_form", string(form.State))
	return form
}

// Create validates the form locally, then posts it. fecha_ingreso defaults to today
// and is sent as midnight UTC of that day.
func (s *Service) Create(ctx context.Context, dto CreateDTO) (*CreateResult, error) {
	lg := logger.FromOr(ctx, s.logger)

	v := validation.NewValidator()
	v.Field("rut", dto.Rut).Required()
	v.Field("nombre", dto.Nombre).Required()
	v.Field("apellido", dto.Apellido).Required()
	v.Field("email", dto.Email).Required()
	v.Field("rol", dto.Rol).Required()
	v.Field("id_departamento", string(dto.IDDepartamento)).PositiveInt()
	hireDate := strings.TrimSpace(dto.FechaIngreso)
	if hireDate != "" {
		v.Field("fecha_ingreso", hireDate).Date()
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	if hireDate == "" {
		hireDate = s.today()
	}
	day, _ := time.Parse(validation.DateLayout, hireDate)

	req := rrhh.NewEmployee{
		Rut:          strings.TrimSpace(dto.Rut),
		Nombre:       strings.TrimSpace(dto.Nombre),
		Apellido:     strings.TrimSpace(dto.Apellido),
		Rol:          strings.TrimSpace(dto.Rol),
		Email:        strings.TrimSpace(dto.Email),
		Telefono:     strings.TrimSpace(dto.Telefono),
		FechaIngreso: day.UTC().Format(time.RFC3339),
	}
	if raw := strings.TrimSpace(string(dto.IDDepartamento)); raw != "" {
		id, _ := strconv.ParseInt(raw, 10, 64)
		req.IDDepartamento = &id
	}

	created, err := s.backend.CreateEmployee(ctx, req)
	if err != nil {
		lg.Error("failed to create employee", "rut", req.Rut, "error", err)
		return nil, hrclient.MutationError(err, MsgCreateFailed)
	}

	var employeeID int64
	if created != nil {
		employeeID = created.ID
	}
	lg.Info("employee created", "employee_id", employeeID, "rol", req.Rol)
	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.NewEmployeeCreatedEvent(employeeID, req.Rut, req.Rol)); err != nil {
			lg.Warn("failed to publish event", "error", err)
		}
	}

	return &CreateResult{Employee: created, Redirect: RedirectEmployees}, nil
}

func (s *Service) today() string {
	return s.Now().Format(validation.DateLayout)
}
