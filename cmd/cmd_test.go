package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/absence"
	"github.com/frahmantamala/hr-portal/internal/core/events"
	"github.com/frahmantamala/hr-portal/internal/view"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("loadConfig", func() {
	It("falls back to defaults without a config file", func() {
		cfg, err := loadConfig(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Backend.BaseURL).To(Equal(internal.DefaultBackendURL))
		Expect(cfg.Backend.Timeout).To(BeZero())
		Expect(cfg.Security.ClientCookie).To(Equal("hr_portal_client"))
		Expect(cfg.Database.Driver).To(Equal("sqlite"))
	})

	It("reads config.yml and lets the environment override it", func() {
		dir := GinkgoT().TempDir()
		yml := []byte("backend:\n  base_url: http://rrhh.internal:3004\nhttp_server:\n  port: 9090\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), yml, 0o600)).To(Succeed())
		GinkgoT().Setenv("HRP_HTTP_SERVER_PORT", "9191")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Backend.BaseURL).To(Equal("http://rrhh.internal:3004"))
		Expect(cfg.Server.Port).To(Equal(9191))
	})

	It("rejects an invalid backend address", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte("backend:\n  base_url: ftp://x\n"), 0o600)).To(Succeed())

		_, err := loadConfig(dir)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("printAbsences", func() {
	It("prints a table of pending rows", func() {
		var out bytes.Buffer
		page := view.Rendered([]absence.AbsenceRow{{ID: 1, EmployeeID: 5, Kind: "VACACIONES", StartDate: "2030-01-01", EndDate: "2030-01-05"}})

		Expect(printAbsences(&out, page)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("VACACIONES"))
		Expect(out.String()).To(ContainSubstring("2030-01-05"))
	})

	It("reports an empty queue", func() {
		var out bytes.Buffer
		Expect(printAbsences(&out, view.Rendered[absence.AbsenceRow](nil))).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No hay solicitudes pendientes"))
	})
})

var _ = Describe("sampleEvent", func() {
	It("builds every published event type", func() {
		for _, eventType := range []string{
			events.EventTypeAbsenceStatusChanged,
			events.EventTypeAbsenceSubmitted,
			events.EventTypeTerminationRequested,
			events.EventTypeEmployeeCreated,
		} {
			event, err := sampleEvent(eventType)
			Expect(err).NotTo(HaveOccurred())
			Expect(event.EventType()).To(Equal(eventType))
		}
	})

	It("rejects unknown types", func() {
		_, err := sampleEvent("payment.completed")
		Expect(err).To(HaveOccurred())
	})
})
