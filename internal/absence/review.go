package absence

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	hrclient "github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/view"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/frahmantamala/hr-portal/pkg/metrics"
)

const MsgDecisionFailed = "No se pudo actualizar el estado de la solicitud"

type ReviewBackend interface {
	ListAbsences(ctx context.Context) ([]rrhh.AbsenceRequest, error)
	UpdateAbsenceStatus(ctx context.Context, absenceID int64, status string) error
}

type pendingScreen struct {
	mu   sync.Mutex
	rows []rrhh.AbsenceRequest
}

func (s *pendingScreen) page() view.Page[AbsenceRow] {
	rows := make([]AbsenceRow, 0, len(s.rows))
	for _, a := range s.rows {
		rows = append(rows, toRow(a))
	}
	return view.Rendered(rows)
}

// ReviewService is the administrator's queue of pending absence requests.
type ReviewService struct {
	backend ReviewBackend
	mounts  *view.Mounts[*pendingScreen]
	bus     events.Publisher
	logger  *slog.Logger
}

func NewReviewService(backend ReviewBackend, bus events.Publisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		backend: backend,
		mounts:  view.NewMounts[*pendingScreen](),
		bus:     bus,
		logger:  logger,
	}
}

// Mount fetches every absence and keeps the pending ones as this client's screen.
func (s *ReviewService) Mount(ctx context.Context, clientID string) view.Page[AbsenceRow] {
	lg := logger.FromOr(ctx, s.logger)

	all, err := s.backend.ListAbsences(ctx)
	if err != nil {
		lg.Error("failed to load absences", "error", err)
		s.mounts.Drop(clientID)
		metrics.ObserveScreen("absence_review", string(view.StateError))
		return view.Failed[AbsenceRow](hrclient.ConnectionError(err))
	}

	pending := make([]rrhh.AbsenceRequest, 0, len(all))
	for _, a := range all {
		if a.IsPending() {
			pending = append(pending, a)
		}
	}

	// rendered before Put: once registered, Decide may rewrite rows
	screen := &pendingScreen{rows: pending}
	page := screen.page()
	s.mounts.Put(clientID, screen)

	metrics.ObserveScreen("absence_review", string(page.State))
	return page
}

// Current renders the mounted screen without fetching.
func (s *ReviewService) Current(clientID string) (view.Page[AbsenceRow], error) {
	screen, ok := s.mounts.Get(clientID)
	if !ok {
		return view.Page[AbsenceRow]{}, view.NotMountedError()
	}
	screen.mu.Lock()
	defer screen.mu.Unlock()
	return screen.page(), nil
}

func (s *ReviewService) Approve(ctx context.Context, clientID string, absenceID int64) (view.Page[AbsenceRow], error) {
	return s.Decide(ctx, clientID, absenceID, rrhh.StatusApproved)
}

func (s *ReviewService) Reject(ctx context.Context, clientID string, absenceID int64) (view.Page[AbsenceRow], error) {
	return s.Decide(ctx, clientID, absenceID, rrhh.StatusRejected)
}

// Decide issues exactly one status update for a row of the mounted screen and drops
// the row locally on success. On failure the screen is left as it was.
func (s *ReviewService) Decide(ctx context.Context, clientID string, absenceID int64, status string) (view.Page[AbsenceRow], error) {
	lg := logger.FromOr(ctx, s.logger)

	if status != rrhh.StatusApproved && status != rrhh.StatusRejected {
		return view.Page[AbsenceRow]{}, internal.NewValidationError("Estado de solicitud inválido", internal.ErrCodeInvalidStatus)
	}

	screen, ok := s.mounts.Get(clientID)
	if !ok {
		return view.Page[AbsenceRow]{}, view.NotMountedError()
	}

	// held across the update so one row is never decided twice
	screen.mu.Lock()
	defer screen.mu.Unlock()

	idx := -1
	for i, a := range screen.rows {
		if a.ID == absenceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return screen.page(), internal.NewNotFoundError("La solicitud no está en la lista de pendientes", internal.ErrCodeRowNotInView)
	}

	decided := screen.rows[idx]
	if err := s.backend.UpdateAbsenceStatus(ctx, absenceID, status); err != nil {
		lg.Error("failed to update absence status",
			"absence_id", absenceID,
			"status", status,
			"error", err)
		return screen.page(), hrclient.MutationError(err, MsgDecisionFailed)
	}

	screen.rows = append(screen.rows[:idx:idx], screen.rows[idx+1:]...)

	lg.Info("absence decided", "absence_id", absenceID, "employee_id", decided.IDEmpleado, "status", status)
	publish(ctx, s.bus, lg, events.NewAbsenceStatusChangedEvent(absenceID, decided.IDEmpleado, status))

	return screen.page(), nil
}

func publish(ctx context.Context, bus events.Publisher, lg *slog.Logger, event events.Event) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, event); err != nil {
		lg.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
