package absence

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	hrclient "github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/session"
	"github.com/frahmantamala/hr-portal/internal/view"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/frahmantamala/hr-portal/pkg/metrics"
)

type StatusBackend interface {
	ListEmployeeAbsences(ctx context.Context, employeeID int64) ([]rrhh.AbsenceRequest, error)
}

// StatusService renders an employee's own absence requests, decided ones included.
type StatusService struct {
	backend StatusBackend
	logger  *slog.Logger
}

func NewStatusService(backend StatusBackend, logger *slog.Logger) *StatusService {
	return &StatusService{backend: backend, logger: logger}
}

func (s *StatusService) View(ctx context.Context) view.Page[AbsenceRow] {
	lg := logger.FromOr(ctx, s.logger)

	employeeID, err := session.EmployeeID(ctx)
	if err != nil {
		lg.Warn("absence status view without identity", "error", err)
		metrics.ObserveScreen("absence_status", string(view.StateError))
		return view.Failed[AbsenceRow](err)
	}

	absences, err := s.backend.ListEmployeeAbsences(ctx, employeeID)
	if err != nil {
		lg.Error("failed to load own absences", "employee_id", employeeID, "error", err)
		metrics.ObserveScreen("absence_status", string(view.StateError))
		return view.Failed[AbsenceRow](hrclient.ConnectionError(err))
	}

	rows := make([]AbsenceRow, 0, len(absences))
	for _, a := range absences {
		row := toRow(a)
		row.Badge = BadgeFor(a.Estado)
		rows = append(rows, row)
	}

	page := view.Rendered(rows)
	metrics.ObserveScreen("absence_status", string(page.State))
	return page
}
