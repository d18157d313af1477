package roster

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

type ServiceAPI interface {
	Mount(ctx context.Context, clientID, routeDepartment, queryDepartment, query string) Page
	Filter(clientID, query string) (Page, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// GetRoster serves both /roster and /roster/{departmentID}. The path segment wins
// over the departamento query parameter.
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := h.Service.Mount(r.Context(),
		internal.ClientIDFromContext(r.Context()),
		chi.URLParam(r, "departmentID"),
		q.Get("departamento"),
		q.Get("q"))

	h.WriteJSON(w, page.HTTPStatus(), page)
}

func (h *Handler) FilterRoster(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.Filter(internal.ClientIDFromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}
