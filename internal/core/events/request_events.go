package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAbsenceStatusChanged = "absence.status_changed"
	EventTypeAbsenceSubmitted     = "absence.submitted"
	EventTypeTerminationRequested = "termination.requested"
	EventTypeEmployeeCreated      = "employee.created"
)

// Publisher is the side of the bus screens depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type AbsenceStatusChangedEvent struct {
	BaseEvent
	AbsenceID  int64  `json:"absence_id"`
	EmployeeID int64  `json:"employee_id"`
	Status     string `json:"status"`
}

func NewAbsenceStatusChangedEvent(absenceID, employeeID int64, status string) *AbsenceStatusChangedEvent {
	return &AbsenceStatusChangedEvent{
		BaseEvent: newBase(EventTypeAbsenceStatusChanged, map[string]interface{}{
			"absence_id":  absenceID,
			"employee_id": employeeID,
			"status":      status,
		}),
		AbsenceID:  absenceID,
		EmployeeID: employeeID,
		Status:     status,
	}
}

type AbsenceSubmittedEvent struct {
	BaseEvent
	EmployeeID int64  `json:"employee_id"`
	Kind       string `json:"kind"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func NewAbsenceSubmittedEvent(employeeID int64, kind, startDate, endDate string) *AbsenceSubmittedEvent {
	return &AbsenceSubmittedEvent{
		BaseEvent: newBase(EventTypeAbsenceSubmitted, map[string]interface{}{
			"employee_id": employeeID,
			"kind":        kind,
			"start_date":  startDate,
			"end_date":    endDate,
		}),
		EmployeeID: employeeID,
		Kind:       kind,
		StartDate:  startDate,
		EndDate:    endDate,
	}
}

type TerminationRequestedEvent struct {
	BaseEvent
	EmployeeID   int64 `json:"employee_id"`
	DepartmentID int64 `json:"department_id"`
}

func NewTerminationRequestedEvent(employeeID, departmentID int64) *TerminationRequestedEvent {
	return &TerminationRequestedEvent{
		BaseEvent: newBase(EventTypeTerminationRequested, map[string]interface{}{
			"employee_id":   employeeID,
			"department_id": departmentID,
		}),
		EmployeeID:   employeeID,
		DepartmentID: departmentID,
	}
}

type EmployeeCreatedEvent struct {
	BaseEvent
	EmployeeID int64  `json:"employee_id"`
	Rut        string `json:"rut"`
	Role       string `json:"role"`
}

func NewEmployeeCreatedEvent(employeeID int64, rut, role string) *EmployeeCreatedEvent {
	return &EmployeeCreatedEvent{
		BaseEvent: newBase(EventTypeEmployeeCreated, map[string]interface{}{
			"employee_id": employeeID,
			"rut":         rut,
			"role":        role,
		}),
		EmployeeID: employeeID,
		Rut:        rut,
		Role:       role,
	}
}

// SubscribeAuditLog writes every request lifecycle event to logger.
func SubscribeAuditLog(bus *EventBus, logger *slog.Logger) {
	audit := func(_ context.Context, event Event) error {
		logger.Info("hr request event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}
	for _, eventType := range []string{
		EventTypeAbsenceStatusChanged,
		EventTypeAbsenceSubmitted,
		EventTypeTerminationRequested,
		EventTypeEmployeeCreated,
	} {
		bus.Subscribe(eventType, audit)
	}
}
