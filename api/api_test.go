package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-portal/api"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("OpenAPI document", func() {
	It("is valid", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("HR Portal"))
	})

	It("describes every screen route", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		for _, path := range []string{
			"/session",
			"/screens/absences/pending",
			"/screens/absences/pending/{id}/approve",
			"/screens/absences/pending/{id}/reject",
			"/screens/absences/mine",
			"/screens/employees/new",
			"/screens/employees",
			"/screens/roster",
			"/screens/roster/current",
			"/screens/roster/{departmentID}",
			"/screens/terminations/{employeeID}",
		} {
			Expect(doc.Paths.Value(path)).NotTo(BeNil(), path)
		}
	})

	It("is served as YAML", func() {
		w := httptest.NewRecorder()
		api.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.Bytes()).To(Equal(api.Document()))
	})
})
