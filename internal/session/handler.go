package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

type ServiceAPI interface {
	Start(ctx context.Context, clientID, token string) (int64, error)
	Current(ctx context.Context, clientID string) (int64, error)
	End(ctx context.Context, clientID string) error
	Open(ctx context.Context, clientID, presented string) *Session
}

type StartSessionDTO struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	EmployeeID int64 `json:"employee_id"`
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var dto StartSessionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	token := dto.Token
	if token == "" {
		token = h.ExtractTokenFromHeader(r)
	}

	employeeID, err := h.Service.Start(r.Context(), internal.ClientIDFromContext(r.Context()), token)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, SessionResponse{EmployeeID: employeeID})
}

func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.Service.Current(r.Context(), internal.ClientIDFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, SessionResponse{EmployeeID: employeeID})
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.End(r.Context(), internal.ClientIDFromContext(r.Context())); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Middleware attaches the request's session and forwards its credential to the HR
// backend client.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s := h.Service.Open(ctx, internal.ClientIDFromContext(ctx), h.ExtractTokenFromHeader(r))

		ctx = WithSession(ctx, s)
		ctx = rrhh.WithBearer(ctx, s.Token())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
