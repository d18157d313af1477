package termination

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

type ServiceAPI interface {
	Mount(ctx context.Context, clientID string, employeeID int64) Form
	Submit(ctx context.Context, clientID string, employeeID int64, dto SubmitDTO) (*SubmitResult, error)
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

func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.PathID(r, "employeeID")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	form := h.Service.Mount(r.Context(), internal.ClientIDFromContext(r.Context()), employeeID)
	h.WriteJSON(w, http.StatusOK, form)
}

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.PathID(r, "employeeID")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto SubmitDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	dto.Query = r.URL.Query().Get("departamento")

	result, err := h.Service.Submit(r.Context(), internal.ClientIDFromContext(r.Context()), employeeID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}
