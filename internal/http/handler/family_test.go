package handler_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crimescape.app/dna/internal/http/handler"
	"crimescape.app/dna/internal/model"
	"crimescape.app/dna/internal/service"
	"crimescape.app/dna/internal/store"
)

var _ = Describe("FamilyHandler", func() {
	var (
		router   *gin.Engine
		families *mockFamilyService
		intel    *mockIntelligenceService
	)

	BeforeEach(func() {
		families = &mockFamilyService{}
		intel = &mockIntelligenceService{}

		h := handler.NewFamilyHandler(families, intel)
		router = gin.New()
		router.GET("/families", h.List)
		router.GET("/families/:id", h.Get)
		router.GET("/families/:id/incidents", h.Incidents)
		router.POST("/families/:id/recompute", h.Recompute)
	})

	It("returns a family with its intelligence", func() {
		families.getFn = func(_ context.Context, id int64) (*model.FraudFamily, error) {
			return &model.FraudFamily{
				ID:          id,
				Label:       "Courier Fraud",
				ScamType:    "Courier Fraud",
				CoreMarkers: []string{"courier", "fee"},
				Cases:       []int64{1, 2, 3, 4},
				Intelligence: model.Intelligence{
					Risk:      model.RiskHigh,
					Insights:  []string{"Observed 4 case(s) linked to this family."},
					Artifacts: model.Artifacts{URLs: []string{"http://parcel-fee.in"}},
				},
			}, nil
		}

		w := doJSON(router, http.MethodGet, "/families/1234567890123", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		body := decode(w)
		Expect(body["id"]).To(Equal("1234567890123"))
		Expect(body["risk"]).To(Equal("HIGH"))
		Expect(body["case_count"]).To(BeNumerically("==", 4))
		artifacts := body["artifacts"].(map[string]any)
		Expect(artifacts["urls"]).To(Equal([]any{"http://parcel-fee.in"}))
		Expect(artifacts["phones"]).To(Equal([]any{}))
	})

	It("returns 404 for an unknown family", func() {
		families.getFn = func(context.Context, int64) (*model.FraudFamily, error) {
			return nil, &service.PersistenceError{Op: "getting family", Err: store.ErrNotFound}
		}

		w := doJSON(router, http.MethodGet, "/families/5", nil)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects a zero id", func() {
		w := doJSON(router, http.MethodGet, "/families/0", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists the incidents of a family", func() {
		var gotID int64
		families.incidentsFn = func(_ context.Context, familyID int64) ([]model.Incident, error) {
			gotID = familyID
			return []model.Incident{{ID: 10, FamilyID: familyID}, {ID: 11, FamilyID: familyID}}, nil
		}

		w := doJSON(router, http.MethodGet, "/families/8/incidents", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(gotID).To(Equal(int64(8)))
		Expect(w.Body.String()).To(ContainSubstring(`"id":"10"`))
	})

	It("passes the list limit through", func() {
		var gotLimit int32
		families.listFn = func(_ context.Context, limit int32) ([]model.FraudFamily, error) {
			gotLimit = limit
			return nil, nil
		}

		w := doJSON(router, http.MethodGet, "/families?limit=3", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(gotLimit).To(Equal(int32(3)))
		Expect(w.Body.String()).To(Equal("[]"))
	})

	Describe("Recompute", func() {
		It("returns the refreshed family", func() {
			intel.refreshFn = func(_ context.Context, id int64) (*model.FraudFamily, error) {
				return &model.FraudFamily{ID: id, Intelligence: model.Intelligence{Risk: model.RiskCritical}}, nil
			}

			w := doJSON(router, http.MethodPost, "/families/3/recompute", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["risk"]).To(Equal("CRITICAL"))
		})

		It("returns 500 when the refresh fails", func() {
			intel.refreshFn = func(context.Context, int64) (*model.FraudFamily, error) {
				return nil, errors.New("lock timeout")
			}

			w := doJSON(router, http.MethodPost, "/families/3/recompute", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(w)["error"]).To(Equal("failed to recompute family intelligence"))
		})
	})
})

var _ = Describe("SchemaHandler", func() {
	It("publishes the submission schema", func() {
		router := gin.New()
		router.GET("/schema/incident", handler.NewSchemaHandler().Incident)

		w := doJSON(router, http.MethodGet, "/schema/incident", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		body := decode(w)
		Expect(body["type"]).To(Equal("object"))
		Expect(body["required"]).To(ContainElement("raw_text"))
		props := body["properties"].(map[string]any)
		Expect(props).To(HaveKey("raw_text"))
		Expect(props).To(HaveKey("reported_at"))
		Expect(props).NotTo(HaveKey("TraceID"))
	})
})
