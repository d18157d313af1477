// Package roster is the manager's department roster with termination eligibility.
package roster

import (
	"strings"

	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	"github.com/frahmantamala/hr-portal/internal/view"
)

const (
	ReasonAlreadyPending = "ALREADY_PENDING"
	ReasonInactive       = "INACTIVE"

	LabelAlreadyPending = "Ya existe una solicitud de baja pendiente"
	LabelInactive       = "Empleado inactivo"
)

type Row struct {
	ID                    int64  `json:"id"`
	Rut                   string `json:"rut"`
	Nombre                string `json:"nombre"`
	Apellido              string `json:"apellido"`
	Email                 string `json:"email"`
	Rol                   string `json:"rol"`
	Estado                string `json:"estado"`
	IDDepartamento        int64  `json:"id_departamento"`
	HasPendingRequest     bool   `json:"has_pending_request"`
	CanRequestTermination bool   `json:"can_request_termination"`
	DisabledReason        string `json:"disabled_reason,omitempty"`
	DisabledLabel         string `json:"disabled_label,omitempty"`
}

// Page is the rendered roster. Total counts the mounted rows before filtering.
type Page struct {
	view.Page[Row]
	DepartmentID int64  `json:"department_id,omitempty"`
	Query        string `json:"query"`
	Total        int    `json:"total"`
}

// PendingSet holds the employee ids that already have a pending termination request.
type PendingSet map[int64]struct{}

func NewPendingSet(requests []rrhh.TerminationRequest) PendingSet {
	set := make(PendingSet, len(requests))
	for _, r := range requests {
		if r.Estado == "" || r.Estado == rrhh.StatusPending {
			set[r.IDEmpleado] = struct{}{}
		}
	}
	return set
}

func (p PendingSet) Has(employeeID int64) bool {
	_, ok := p[employeeID]
	return ok
}

// BuildRows joins the department's employees with the pending set. The termination
// action is enabled only for active employees without a pending request.
func BuildRows(employees []rrhh.Employee, pending PendingSet) []Row {
	rows := make([]Row, 0, len(employees))
	for _, e := range employees {
		row := Row{
			ID:                e.ID,
			Rut:               e.Rut,
			Nombre:            e.Nombre,
			Apellido:          e.Apellido,
			Email:             e.Email,
			Rol:               e.Rol,
			Estado:            e.Estado,
			IDDepartamento:    e.DepartmentID(),
			HasPendingRequest: pending.Has(e.ID),
		}
		switch {
		case row.HasPendingRequest:
			row.DisabledReason, row.DisabledLabel = ReasonAlreadyPending, LabelAlreadyPending
		case !e.IsActive():
			row.DisabledReason, row.DisabledLabel = ReasonInactive, LabelInactive
		default:
			row.CanRequestTermination = true
		}
		rows = append(rows, row)
	}
	return rows
}

// Filter keeps the rows whose nombre, apellido, rut, email or rol contains query,
// ignoring case. A blank query keeps every row.
func Filter(rows []Row, query string) []Row {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		out := make([]Row, len(rows))
		copy(out, rows)
		return out
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		for _, field := range []string{r.Nombre, r.Apellido, r.Rut, r.Email, r.Rol} {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
