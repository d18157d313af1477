package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-portal/internal"
)

var _ = Describe("AppError", func() {
	It("is found through wrapping", func() {
		err := fmt.Errorf("screen: %w", internal.NewConflictError("ya existe", internal.ErrCodeTerminationPending))
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusConflict))
	})

	It("matches by type and code", func() {
		err := internal.NewNotFoundError("otra", internal.ErrCodeScreenNotMounted)
		Expect(errors.Is(err, internal.ErrScreenNotMounted)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrIdentityUnresolved)).To(BeFalse())
	})

	It("joins field messages for the log line", func() {
		appErr := internal.NewValidationFieldError("motivo", "El motivo es obligatorio", internal.ErrCodeReasonRequired)
		Expect(appErr.GetDetailedMessage()).To(Equal("El motivo es obligatorio"))

		appErr.Details = internal.ValidationErrors{Errors: []internal.ValidationError{
			{Field: "tipo", Message: "Tipo inválido"},
			{Field: "fecha_fin", Message: "Fecha inválida"},
		}}
		Expect(appErr.GetDetailedMessage()).To(Equal("Tipo inválido; Fecha inválida"))
		Expect(internal.NewConflictError("Ya existe", internal.ErrCodeTerminationPending).GetDetailedMessage()).To(Equal("Ya existe"))
	})

	It("defaults mutation failures to 502", func() {
		Expect(internal.NewMutationError("x", 0, nil).StatusCode).To(Equal(http.StatusBadGateway))
		Expect(internal.NewMutationError("x", http.StatusUnprocessableEntity, nil).StatusCode).To(Equal(http.StatusUnprocessableEntity))
	})

	It("keeps the cause out of the JSON body", func() {
		appErr := internal.NewConnectionError(internal.MsgConnectionFailed, errors.New("dial tcp: refused"))
		status, body := appErr.ToHTTPResponse()
		Expect(status).To(Equal(http.StatusServiceUnavailable))

		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring(`"code":"BACKEND_UNAVAILABLE"`))
		Expect(string(raw)).NotTo(ContainSubstring("refused"))
		Expect(appErr.Error()).To(ContainSubstring("refused"))
	})
})
