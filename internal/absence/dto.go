package absence

import (
	"strings"
	"time"

	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
)

type Badge string

const (
	BadgeSuccess Badge = "success"
	BadgeDanger  Badge = "danger"
	BadgeWarning Badge = "warning"
)

// BadgeFor maps an absence status to its visual treatment. Anything that is not a
// final decision renders as pending.
func BadgeFor(status string) Badge {
	switch status {
	case rrhh.StatusApproved:
		return BadgeSuccess
	case rrhh.StatusRejected:
		return BadgeDanger
	default:
		return BadgeWarning
	}
}

type AbsenceRow struct {
	ID           int64      `json:"id"`
	EmployeeID   int64      `json:"id_empleado"`
	EmployeeName string     `json:"empleado,omitempty"`
	Kind         string     `json:"tipo"`
	StartDate    string     `json:"fecha_inicio"`
	EndDate      string     `json:"fecha_fin"`
	Reason       string     `json:"motivo,omitempty"`
	RequestedAt  *time.Time `json:"fecha_solicitud,omitempty"`
	Status       string     `json:"estado"`
	Badge        Badge      `json:"badge,omitempty"`
}

func toRow(a rrhh.AbsenceRequest) AbsenceRow {
	row := AbsenceRow{
		ID:          a.ID,
		EmployeeID:  a.IDEmpleado,
		Kind:        a.Tipo,
		StartDate:   a.FechaInicio.String(),
		EndDate:     a.FechaFin.String(),
		Reason:      a.Motivo,
		RequestedAt: a.FechaSolicitud,
		Status:      a.Estado,
	}
	if a.Empleado != nil {
		row.EmployeeName = strings.TrimSpace(a.Empleado.Nombre + " " + a.Empleado.Apellido)
	}
	return row
}

// SubmitAbsenceDTO is the self-service absence form.
type SubmitAbsenceDTO struct {
	Tipo        string `json:"tipo"`
	FechaInicio string `json:"fecha_inicio"`
	FechaFin    string `json:"fecha_fin"`
	Motivo      string `json:"motivo,omitempty"`
}

// SubmissionForm is the form state after a submission. Only the employee id survives
// a successful submit.
type SubmissionForm struct {
	EmployeeID  int64    `json:"id_empleado"`
	Tipo        string   `json:"tipo"`
	FechaInicio string   `json:"fecha_inicio"`
	FechaFin    string   `json:"fecha_fin"`
	Motivo      string   `json:"motivo"`
	Kinds       []string `json:"tipos"`
}

type SubmissionResult struct {
	Created *AbsenceRow    `json:"created"`
	Form    SubmissionForm `json:"form"`
	Message string         `json:"message"`
}
