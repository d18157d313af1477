package absence

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/transport"
	"github.com/frahmantamala/hr-portal/internal/view"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

type ReviewAPI interface {
	Mount(ctx context.Context, clientID string) view.Page[AbsenceRow]
	Approve(ctx context.Context, clientID string, absenceID int64) (view.Page[AbsenceRow], error)
	Reject(ctx context.Context, clientID string, absenceID int64) (view.Page[AbsenceRow], error)
}

type SubmissionAPI interface {
	Submit(ctx context.Context, dto SubmitAbsenceDTO) (*SubmissionResult, error)
}

type StatusAPI interface {
	View(ctx context.Context) view.Page[AbsenceRow]
}

type Handler struct {
	*transport.BaseHandler
	Review     ReviewAPI
	Submission SubmissionAPI
	Status     StatusAPI
}

func NewHandler(review ReviewAPI, submission SubmissionAPI, status StatusAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Review:      review,
		Submission:  submission,
		Status:      status,
	}
}

func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	page := h.Review.Mount(r.Context(), internal.ClientIDFromContext(r.Context()))
	h.WriteJSON(w, page.HTTPStatus(), page)
}

func (h *Handler) ApprovePending(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Review.Approve)
}

func (h *Handler) RejectPending(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Review.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action func(context.Context, string, int64) (view.Page[AbsenceRow], error)) {
	absenceID, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	page, err := action(r.Context(), internal.ClientIDFromContext(r.Context()), absenceID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	page := h.Status.View(r.Context())
	h.WriteJSON(w, page.HTTPStatus(), page)
}

func (h *Handler) SubmitMine(w http.ResponseWriter, r *http.Request) {
	var dto SubmitAbsenceDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Submission.Submit(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}
