// Package scope resolves which department a roster screen is about.
package scope

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

type Source string

const (
	SourceEmployee Source = "employee"
	SourceRoute    Source = "route"
	SourceQuery    Source = "query"
	SourceCache    Source = "cache"
)

// Resolution is either Resolved(id) or Missing.
type Resolution struct {
	DepartmentID int64
	Source       Source
	resolved     bool
}

func Resolved(departmentID int64, source Source) Resolution {
	return Resolution{DepartmentID: departmentID, Source: source, resolved: true}
}

func Missing() Resolution {
	return Resolution{}
}

func (r Resolution) IsResolved() bool {
	return r.resolved
}

// Store remembers the last department each client resolved to.
type Store interface {
	// Last reports false when the client never resolved a department.
	Last(ctx context.Context, clientID string) (int64, bool, error)
	Remember(ctx context.Context, clientID string, departmentID int64) error
}

// Candidates are the raw sources, strongest first. Employee is the department of the
// employee a screen is about and is zero when there is none.
type Candidates struct {
	Employee int64
	Route    string
	Query    string
}

type Resolver struct {
	store  Store
	logger *slog.Logger
}

func NewResolver(store Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve picks the first usable candidate, falling back to the client's cached
// department. A freshly resolved id is persisted before it is returned, so callers
// never reach the backend with an id the cache does not hold.
func (r *Resolver) Resolve(ctx context.Context, clientID string, c Candidates) (Resolution, error) {
	lg := logger.FromOr(ctx, r.logger)

	res := Missing()
	switch {
	case c.Employee > 0:
		res = Resolved(c.Employee, SourceEmployee)
	case validID(c.Route) > 0:
		res = Resolved(validID(c.Route), SourceRoute)
	case validID(c.Query) > 0:
		res = Resolved(validID(c.Query), SourceQuery)
	}

	if !res.IsResolved() {
		if clientID == "" {
			return Missing(), nil
		}
		cached, ok, err := r.store.Last(ctx, clientID)
		if err != nil {
			lg.Warn("department cache unreadable", "client_id", clientID, "error", err)
			return Missing(), nil
		}
		if !ok || cached <= 0 {
			return Missing(), nil
		}
		return Resolved(cached, SourceCache), nil
	}

	if clientID != "" {
		if err := r.store.Remember(ctx, clientID, res.DepartmentID); err != nil {
			lg.Error("failed to persist department", "client_id", clientID, "department_id", res.DepartmentID, "error", err)
			return Missing(), internal.NewStateStoreError(err)
		}
	}

	lg.Debug("department resolved", "department_id", res.DepartmentID, "source", res.Source)
	return res, nil
}

// validID returns the positive integer in raw, or zero.
func validID(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// MissingError is the screen error shown when no department could be resolved.
func MissingError() *internal.AppError {
	return internal.NewValidationError("No se especificó un departamento.", internal.ErrCodeDepartmentMissing)
}
