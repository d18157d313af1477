package roster

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	hrclient "github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/scope"
	"github.com/frahmantamala/hr-portal/internal/view"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/frahmantamala/hr-portal/pkg/metrics"
)

type Backend interface {
	ListEmployeesByDepartment(ctx context.Context, departmentID int64) ([]rrhh.Employee, error)
	ListTerminationRequests(ctx context.Context, status string) ([]rrhh.TerminationRequest, error)
}

type ScopeResolver interface {
	Resolve(ctx context.Context, clientID string, c scope.Candidates) (scope.Resolution, error)
}

type screen struct {
	mu           sync.Mutex
	departmentID int64
	rows         []Row
}

type Service struct {
	backend  Backend
	resolver ScopeResolver
	mounts   *view.Mounts[*screen]
	logger   *slog.Logger
}

func NewService(backend Backend, resolver ScopeResolver, logger *slog.Logger) *Service {
	return &Service{
		backend:  backend,
		resolver: resolver,
		mounts:   view.NewMounts[*screen](),
		logger:   logger,
	}
}

// Mount resolves the department, then fetches its employees and the pending
// termination requests in parallel. Either failure fails the whole screen.
func (s *Service) Mount(ctx context.Context, clientID, routeDepartment, queryDepartment, query string) Page {
	lg := logger.FromOr(ctx, s.logger)

	res, err := s.resolver.Resolve(ctx, clientID, scope.Candidates{Route: routeDepartment, Query: queryDepartment})
	if err != nil {
		s.mounts.Drop(clientID)
		return s.failed(query, 0, err)
	}
	if !res.IsResolved() {
		s.mounts.Drop(clientID)
		lg.Warn("roster without department", "client_id", clientID)
		return s.failed(query, 0, scope.MissingError())
	}

	departmentID := res.DepartmentID
	var (
		employees []rrhh.Employee
		pending   []rrhh.TerminationRequest
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = s.backend.ListEmployeesByDepartment(gctx, departmentID)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.backend.ListTerminationRequests(gctx, rrhh.StatusPending)
		return err
	})
	if err := g.Wait(); err != nil {
		s.mounts.Drop(clientID)
		lg.Error("failed to load roster", "department_id", departmentID, "error", err)
		return s.failed(query, departmentID, hrclient.ConnectionError(err))
	}

	sc := &screen{
		departmentID: departmentID,
		rows:         BuildRows(employees, NewPendingSet(pending)),
	}
	s.mounts.Put(clientID, sc)

	page := sc.render(query)
	metrics.ObserveScreen("roster", string(page.State))
	return page
}

// Filter recomputes the visible rows of the mounted roster without fetching.
func (s *Service) Filter(clientID, query string) (Page, error) {
	sc, ok := s.mounts.Get(clientID)
	if !ok {
		return Page{}, view.NotMountedError()
	}
	return sc.render(query), nil
}

func (s *Service) failed(query string, departmentID int64, err error) Page {
	metrics.ObserveScreen("roster", string(view.StateError))
	return Page{
		Page:         view.Failed[Row](err),
		DepartmentID: departmentID,
		Query:        query,
	}
}

func (sc *screen) render(query string) Page {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return Page{
		Page:         view.Rendered(Filter(sc.rows, query)),
		DepartmentID: sc.departmentID,
		Query:        query,
		Total:        len(sc.rows),
	}
}
