package absence_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/absence"
	"github.com/frahmantamala/hr-portal/internal/core/common/validation"
	"github.com/frahmantamala/hr-portal/internal/core/datamodel/rrhh"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	hrclient "github.com/frahmantamala/hr-portal/internal/rrhh"
	"github.com/frahmantamala/hr-portal/internal/session"
	"github.com/frahmantamala/hr-portal/internal/view"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

func TestAbsence(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Absence Suite")
}

// Mock backend for testing
type mockBackend struct {
	mu         sync.Mutex
	absences   []rrhh.AbsenceRequest
	listErr    error
	updateErr  error
	createErr  error
	updates    []rrhh.StatusUpdate
	updatedIDs []int64
	created    []rrhh.NewAbsence
	ownCalls   []int64
}

func (m *mockBackend) ListAbsences(context.Context) ([]rrhh.AbsenceRequest, error) {
	return m.absences, m.listErr
}

func (m *mockBackend) UpdateAbsenceStatus(_ context.Context, absenceID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatedIDs = append(m.updatedIDs, absenceID)
	m.updates = append(m.updates, rrhh.StatusUpdate{Estado: status})
	return m.updateErr
}

func (m *mockBackend) CreateAbsence(_ context.Context, a rrhh.NewAbsence) (*rrhh.AbsenceRequest, error) {
	m.created = append(m.created, a)
	if m.createErr != nil {
		return nil, m.createErr
	}
	start, _ := rrhh.ParseDate(a.FechaInicio)
	end, _ := rrhh.ParseDate(a.FechaFin)
	return &rrhh.AbsenceRequest{ID: 99, IDEmpleado: a.IDEmpleado, Tipo: a.Tipo, FechaInicio: start, FechaFin: end, Estado: rrhh.StatusPending}, nil
}

func (m *mockBackend) ListEmployeeAbsences(_ context.Context, employeeID int64) ([]rrhh.AbsenceRequest, error) {
	m.ownCalls = append(m.ownCalls, employeeID)
	return m.absences, m.listErr
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func day(s string) rrhh.Date {
	d, err := rrhh.ParseDate(s)
	Expect(err).NotTo(HaveOccurred())
	return d
}

func withEmployee(id string) context.Context {
	enc := func(s string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(s))
	}
	token := enc(`{"alg":"HS256"}`) + "." + enc(`{"sub":"`+id+`"}`) + ".c2ln"
	return session.WithSession(context.Background(), session.New(token, session.NewTokenVerifier("")))
}

func ids(page view.Page[absence.AbsenceRow]) []int64 {
	out := make([]int64, 0, len(page.Rows))
	for _, r := range page.Rows {
		out = append(out, r.ID)
	}
	return out
}

var _ = Describe("ReviewService", func() {
	var (
		backend *mockBackend
		bus     *recordingBus
		service *absence.ReviewService
		ctx     context.Context
	)

	BeforeEach(func() {
		backend = &mockBackend{absences: []rrhh.AbsenceRequest{
			{ID: 1, IDEmpleado: 5, Tipo: rrhh.KindVacation, Estado: rrhh.StatusPending, FechaInicio: day("2030-01-10"), FechaFin: day("2030-01-12")},
			{ID: 2, IDEmpleado: 6, Tipo: rrhh.KindPermission, Estado: rrhh.StatusApproved},
			{ID: 3, IDEmpleado: 7, Tipo: rrhh.KindOther, Estado: rrhh.StatusPending},
		}}
		bus = &recordingBus{}
		service = absence.NewReviewService(backend, bus, logger.Discard())
		ctx = context.Background()
	})

	It("shows exactly the pending subset", func() {
		backend.absences = backend.absences[:2]
		page := service.Mount(ctx, "c")
		Expect(page.State).To(Equal(view.StateReady))
		Expect(ids(page)).To(Equal([]int64{1}))
		Expect(page.Rows[0].StartDate).To(Equal("2030-01-10"))
	})

	It("renders the empty state when nothing is pending", func() {
		backend.absences = []rrhh.AbsenceRequest{{ID: 2, Estado: rrhh.StatusRejected}}
		page := service.Mount(ctx, "c")
		Expect(page.State).To(Equal(view.StateEmpty))
	})

	It("renders a retryable error when the fetch fails", func() {
		backend.listErr = &hrclient.UnavailableError{Operation: "list_absences", Cause: errors.New("refused")}
		page := service.Mount(ctx, "c")
		Expect(page.State).To(Equal(view.StateError))
		Expect(page.Error.Retry).To(BeTrue())
		Expect(page.Error.Message).To(Equal(internal.MsgConnectionFailed))
	})

	It("approves with one PUT and removes only that row", func() {
		service.Mount(ctx, "c")

		page, err := service.Approve(ctx, "c", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(page)).To(Equal([]int64{3}))
		Expect(backend.updatedIDs).To(Equal([]int64{1}))
		Expect(backend.updates).To(Equal([]rrhh.StatusUpdate{{Estado: rrhh.StatusApproved}}))

		Expect(bus.events).To(HaveLen(1))
		Expect(bus.events[0].EventType()).To(Equal(events.EventTypeAbsenceStatusChanged))
	})

	It("rejects with one PUT", func() {
		service.Mount(ctx, "c")

		_, err := service.Reject(ctx, "c", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.updates).To(Equal([]rrhh.StatusUpdate{{Estado: rrhh.StatusRejected}}))

		current, err := service.Current("c")
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(current)).To(Equal([]int64{1}))
	})

	It("keeps the row when the backend refuses", func() {
		service.Mount(ctx, "c")
		backend.updateErr = &hrclient.APIError{StatusCode: http.StatusBadRequest, Messages: []string{"estado inválido"}}

		page, err := service.Approve(ctx, "c", 1)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeMutation))
		Expect(appErr.Message).To(Equal("estado inválido"))
		Expect(ids(page)).To(Equal([]int64{1, 3}))
		Expect(bus.events).To(BeEmpty())
	})

	It("stays consistent while one client remounts and decides concurrently", func() {
		service.Mount(ctx, "c")

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				page := service.Mount(ctx, "c")
				Expect(page.State).NotTo(Equal(view.StateError))
			}()
			go func(id int64) {
				defer wg.Done()
				defer GinkgoRecover()
				_, _ = service.Approve(ctx, "c", id)
			}(int64(1 + 2*(i%2)))
		}
		wg.Wait()

		current, err := service.Current("c")
		Expect(err).NotTo(HaveOccurred())
		for _, id := range ids(current) {
			Expect(id).To(BeElementOf(int64(1), int64(3)))
		}

		backend.mu.Lock()
		defer backend.mu.Unlock()
		Expect(len(backend.updatedIDs)).To(BeNumerically("<=", 50))
	})

	It("uses the fallback message when the backend sends none", func() {
		service.Mount(ctx, "c")
		backend.updateErr = &hrclient.UnavailableError{Operation: "update_absence_status", Cause: errors.New("timeout")}

		_, err := service.Approve(ctx, "c", 1)
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Message).To(Equal(absence.MsgDecisionFailed))
		Expect(appErr.StatusCode).To(Equal(http.StatusBadGateway))
	})

	It("refuses ids outside the mounted view without a network call", func() {
		service.Mount(ctx, "c")

		_, err := service.Approve(ctx, "c", 2)
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Code).To(Equal(internal.ErrCodeRowNotInView))
		Expect(backend.updatedIDs).To(BeEmpty())
	})

	It("refuses other target statuses without a network call", func() {
		service.Mount(ctx, "c")

		_, err := service.Decide(ctx, "c", 1, rrhh.StatusPending)
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))
		Expect(backend.updatedIDs).To(BeEmpty())
	})

	It("refuses decisions before the screen is mounted", func() {
		_, err := service.Approve(ctx, "c", 1)
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Code).To(Equal(internal.ErrCodeScreenNotMounted))
	})

	It("decides a row at most once under concurrent requests", func() {
		service.Mount(ctx, "c")

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, _ = service.Approve(ctx, "c", 1)
			}()
		}
		wg.Wait()

		Expect(backend.updatedIDs).To(Equal([]int64{1}))
	})

	It("keeps screens of different clients apart", func() {
		service.Mount(ctx, "a")
		service.Mount(ctx, "b")

		_, err := service.Approve(ctx, "a", 1)
		Expect(err).NotTo(HaveOccurred())

		other, err := service.Current("b")
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(other)).To(Equal([]int64{1, 3}))
	})
})

var _ = Describe("SubmissionService", func() {
	var (
		backend *mockBackend
		bus     *recordingBus
		service *absence.SubmissionService
		now     time.Time
	)

	BeforeEach(func() {
		backend = &mockBackend{}
		bus = &recordingBus{}
		service = absence.NewSubmissionService(backend, bus, logger.Discard())
		now = time.Date(2030, 6, 15, 18, 45, 0, 0, time.Local)
		service.Now = func() time.Time { return now }
	})

	codeOf := func(err error) internal.ErrorCode {
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		if details, ok := appErr.Details.(internal.ValidationErrors); ok && len(details.Errors) > 0 {
			return internal.ErrorCode(details.Errors[0].Code)
		}
		return appErr.Code
	}

	It("requires kind and both dates", func() {
		_, err := service.Submit(withEmployee("5"), absence.SubmitAbsenceDTO{Tipo: rrhh.KindVacation, FechaInicio: "2030-06-20"})
		Expect(codeOf(err)).To(Equal(internal.ErrCodeRequiredFields))
		Expect(backend.created).To(BeEmpty())
	})

	It("rejects an unknown kind", func() {
		_, err := service.Submit(withEmployee("5"), absence.SubmitAbsenceDTO{Tipo: "SABATICO", FechaInicio: "2030-06-20", FechaFin: "2030-06-21"})
		Expect(codeOf(err)).To(Equal(internal.ErrCodeInvalidAbsenceKind))
	})

	It("rejects an end date before the start date before resolving identity", func() {
		_, err := service.Submit(context.Background(), absence.SubmitAbsenceDTO{Tipo: rrhh.KindVacation, FechaInicio: "2030-06-20", FechaFin: "2030-06-19"})
		Expect(codeOf(err)).To(Equal(internal.ErrCodeInvalidDateRange))
		Expect(backend.created).To(BeEmpty())
	})

	It("rejects a start date in the past with no POST", func() {
		_, err := service.Submit(context.Background(), absence.SubmitAbsenceDTO{Tipo: rrhh.KindVacation, FechaInicio: "2020-01-01", FechaFin: "2020-01-02"})
		Expect(codeOf(err)).To(Equal(internal.ErrCodeStartDateInPast))

		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Message).To(Equal(validation.MsgStartInPast))
		Expect(backend.created).To(BeEmpty())
	})

	It("accepts a start date of today", func() {
		_, err := service.Submit(withEmployee("5"), absence.SubmitAbsenceDTO{Tipo: rrhh.KindPermission, FechaInicio: "2030-06-15", FechaFin: "2030-06-15"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("fails with an identity error only once the form is valid", func() {
		_, err := service.Submit(context.Background(), absence.SubmitAbsenceDTO{Tipo: rrhh.KindVacation, FechaInicio: "2030-06-20", FechaFin: "2030-06-21"})
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Type).To(Equal(internal.ErrorTypeIdentity))
		Expect(backend.created).To(BeEmpty())
	})

	It("posts the request and resets the form keeping the employee id", func() {
		result, err := service.Submit(withEmployee("5"), absence.SubmitAbsenceDTO{
			Tipo:        rrhh.KindVacation,
			FechaInicio: "2030-06-20",
			FechaFin:    "2030-06-25",
			Motivo:      "  Viaje familiar ",
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(backend.created).To(HaveLen(1))
		sent := backend.created[0]
		Expect(sent.IDEmpleado).To(Equal(int64(5)))
		Expect(sent.Motivo).To(Equal("Viaje familiar"))
		Expect(sent.FechaSolicitud).To(Equal(now.UTC().Format(time.RFC3339)))

		Expect(result.Form.EmployeeID).To(Equal(int64(5)))
		Expect(result.Form.Tipo).To(BeEmpty())
		Expect(result.Form.FechaInicio).To(BeEmpty())
		Expect(result.Form.Motivo).To(BeEmpty())
		Expect(result.Created.Badge).To(Equal(absence.BadgeWarning))
		Expect(bus.events).To(HaveLen(1))
	})

	It("surfaces the backend message on failure", func() {
		backend.createErr = &hrclient.APIError{StatusCode: http.StatusBadRequest, Messages: []string{"fecha_inicio must be a date", "tipo invalid"}}
		_, err := service.Submit(withEmployee("5"), absence.SubmitAbsenceDTO{Tipo: rrhh.KindVacation, FechaInicio: "2030-06-20", FechaFin: "2030-06-21"})
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Message).To(Equal("fecha_inicio must be a date, tipo invalid"))
		Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("StatusService", func() {
	var backend *mockBackend

	BeforeEach(func() {
		backend = &mockBackend{absences: []rrhh.AbsenceRequest{
			{ID: 1, Estado: rrhh.StatusApproved},
			{ID: 2, Estado: rrhh.StatusRejected},
			{ID: 3, Estado: rrhh.StatusPending},
			{ID: 4, Estado: "EN_REVISION"},
		}}
	})

	It("renders every own request with its badge", func() {
		page := absence.NewStatusService(backend, logger.Discard()).View(withEmployee("5"))
		Expect(page.State).To(Equal(view.StateReady))
		Expect(backend.ownCalls).To(Equal([]int64{5}))

		badges := make([]absence.Badge, 0, len(page.Rows))
		for _, r := range page.Rows {
			badges = append(badges, r.Badge)
		}
		Expect(badges).To(Equal([]absence.Badge{absence.BadgeSuccess, absence.BadgeDanger, absence.BadgeWarning, absence.BadgeWarning}))
	})

	It("reports a missing identity without calling the backend", func() {
		page := absence.NewStatusService(backend, logger.Discard()).View(context.Background())
		Expect(page.State).To(Equal(view.StateError))
		Expect(page.Error.Type).To(Equal(internal.ErrorTypeIdentity))
		Expect(page.HTTPStatus()).To(Equal(http.StatusUnauthorized))
		Expect(backend.ownCalls).To(BeEmpty())
	})
})

var _ = Describe("Handler", func() {
	var (
		backend *mockBackend
		router  *chi.Mux
	)

	BeforeEach(func() {
		backend = &mockBackend{absences: []rrhh.AbsenceRequest{
			{ID: 1, Estado: rrhh.StatusPending},
			{ID: 2, Estado: rrhh.StatusApproved},
		}}
		review := absence.NewReviewService(backend, nil, logger.Discard())
		submission := absence.NewSubmissionService(backend, nil, logger.Discard())
		status := absence.NewStatusService(backend, logger.Discard())
		handler := absence.NewHandler(review, submission, status)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithClientID(r.Context(), "client-1")))
			})
		})
		router.Get("/absences/pending", handler.GetPending)
		router.Post("/absences/pending/{id}/approve", handler.ApprovePending)
		router.Post("/absences/mine", handler.SubmitMine)
	})

	It("mounts and approves through HTTP", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/absences/pending", nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var page view.Page[absence.AbsenceRow]
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		Expect(ids(page)).To(Equal([]int64{1}))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/absences/pending/1/approve", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		Expect(page.State).To(Equal(view.StateEmpty))
	})

	It("rejects a malformed id", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/absences/pending/abc/approve", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 400 with the validation message for a past start date", func() {
		body, _ := json.Marshal(absence.SubmitAbsenceDTO{Tipo: rrhh.KindVacation, FechaInicio: "2020-01-01", FechaFin: "2020-01-01"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/absences/mine", bytes.NewReader(body)))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(validation.MsgStartInPast))
		Expect(backend.created).To(BeEmpty())
	})
})
