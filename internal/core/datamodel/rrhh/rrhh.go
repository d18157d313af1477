// Package rrhh holds the wire shapes of the HR backend. Field names follow the
// backend's JSON contract.
package rrhh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	EmployeeActive   = "ACTIVO"
	EmployeeInactive = "INACTIVO"
)

const (
	StatusPending  = "PENDIENTE"
	StatusApproved = "APROBADA"
	StatusRejected = "RECHAZADA"
)

const (
	KindVacation     = "VACACIONES"
	KindPermission   = "PERMISO"
	KindMedicalLeave = "LICENCIA_MEDICA"
	KindOther        = "OTRO"
)

// AbsenceKinds lists the accepted absence kinds in display order.
var AbsenceKinds = []string{KindVacation, KindPermission, KindMedicalLeave, KindOther}

type Department struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

type Role struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

type Employee struct {
	ID             int64       `json:"id"`
	Rut            string      `json:"rut"`
	Nombre         string      `json:"nombre"`
	Apellido       string      `json:"apellido"`
	Email          string      `json:"email"`
	Telefono       string      `json:"telefono,omitempty"`
	Rol            string      `json:"rol"`
	IDDepartamento int64       `json:"id_departamento"`
	Departamento   *Department `json:"departamento,omitempty"`
	Estado         string      `json:"estado"`
	FechaIngreso   Date        `json:"fecha_ingreso"`
}

func (e Employee) IsActive() bool {
	return e.Estado == EmployeeActive
}

// DepartmentID is the flat id_departamento, else the id of the embedded department.
func (e Employee) DepartmentID() int64 {
	if e.IDDepartamento > 0 {
		return e.IDDepartamento
	}
	if e.Departamento != nil {
		return e.Departamento.ID
	}
	return 0
}

type AbsenceRequest struct {
	ID             int64      `json:"id"`
	IDEmpleado     int64      `json:"id_empleado"`
	Empleado       *Employee  `json:"empleado,omitempty"`
	Tipo           string     `json:"tipo"`
	FechaInicio    Date       `json:"fecha_inicio"`
	FechaFin       Date       `json:"fecha_fin"`
	Motivo         string     `json:"motivo,omitempty"`
	FechaSolicitud *time.Time `json:"fecha_solicitud,omitempty"`
	Estado         string     `json:"estado"`
}

func (a AbsenceRequest) IsPending() bool {
	return a.Estado == StatusPending
}

type TerminationRequest struct {
	ID         int64     `json:"id"`
	IDEmpleado int64     `json:"id_empleado"`
	Empleado   *Employee `json:"empleado,omitempty"`
	Motivo     string    `json:"motivo"`
	Estado     string    `json:"estado"`
}

// NewAbsence is the body of POST /rrhh/ausencias/.
type NewAbsence struct {
	IDEmpleado     int64  `json:"id_empleado"`
	Tipo           string `json:"tipo"`
	FechaInicio    string `json:"fecha_inicio"`
	FechaFin       string `json:"fecha_fin"`
	Motivo         string `json:"motivo,omitempty"`
	FechaSolicitud string `json:"fecha_solicitud"`
}

// NewEmployee is the body of POST /rrhh/empleados.
type NewEmployee struct {
	Rut            string `json:"rut"`
	Nombre         string `json:"nombre"`
	Apellido       string `json:"apellido"`
	Rol            string `json:"rol"`
	Email          string `json:"email"`
	Telefono       string `json:"telefono"`
	IDDepartamento *int64 `json:"id_departamento"`
	FechaIngreso   string `json:"fecha_ingreso"`
}

// NewTermination is the body of POST /rrhh/solicitud-baja.
type NewTermination struct {
	IDEmpleado int64  `json:"id_empleado"`
	Motivo     string `json:"motivo"`
}

// StatusUpdate is the body of PUT /rrhh/ausencias/{id}/estado.
type StatusUpdate struct {
	Estado string `json:"estado"`
}

const DateLayout = "2006-01-02"

// Date is a calendar day. It decodes both "2006-01-02" and RFC 3339 timestamps and
// always encodes as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())}
}

// ParseDate parses a "2006-01-02" string as midnight in the local time zone.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	// the backend stores calendar days as UTC midnight timestamps
	u := t.UTC()
	d.Time = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.Local)
	return nil
}
