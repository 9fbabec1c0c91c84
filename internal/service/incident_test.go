package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crimescape.app/dna/internal/dna"
	"crimescape.app/dna/internal/intel"
	"crimescape.app/dna/internal/lock"
	"crimescape.app/dna/internal/model"
	"crimescape.app/dna/internal/queue"
	"crimescape.app/dna/internal/service"
	"crimescape.app/dna/internal/store"
)

const bankingReport = "Your HDFC bank account is suspended. Verify with OTP urgently: http://hdfc-verify.in"

var _ = Describe("IncidentService", func() {
	var (
		ctx      context.Context
		db       *memDB
		producer *mockProducer
		svc      service.IncidentService
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMemDB()
		producer = &mockProducer{}

		services := service.NewServices(db, &memTxRunner{db: db}, dna.Default(), intel.Default(), lock.NewKeyedMutex(), producer, nil)
		svc = services.Incidents()
	})

	Describe("ClassifyAndLink", func() {
		Context("with blank raw text", func() {
			DescribeTable("rejects the report before touching the store",
				func(raw string) {
					_, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: raw})

					Expect(err).To(MatchError(service.ErrValidation))
					var verr *service.ValidationError
					Expect(errors.As(err, &verr)).To(BeTrue())
					Expect(verr.Field).To(Equal("raw_text"))
					Expect(db.callCount("families.list_by_scam_type")).To(BeZero())
				},
				Entry("empty", ""),
				Entry("spaces", "   "),
				Entry("newlines and tabs", "\n\t "),
			)
		})

		Context("with the first report of a campaign", func() {
			It("founds a family from the report", func() {
				result, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{
					RawText: bankingReport,
					Phone:   "+91-9000000001",
					URL:     "http://hdfc-verify.in",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Linked).To(BeFalse())
				Expect(result.Confidence).To(BeZero())
				Expect(result.ScamType).To(Equal(dna.ScamTypeBanking))
				Expect(result.Markers).To(Equal([]string{"verify", "bank", "otp", "account"}))

				fam := result.Family
				Expect(fam.Label).To(Equal(dna.ScamTypeBanking))
				Expect(fam.CoreMarkers).To(Equal(result.Markers))
				Expect(fam.SampleText).To(Equal(bankingReport))
				Expect(fam.Cases).To(Equal([]int64{result.Incident.ID}))

				inc := result.Incident
				Expect(inc.FamilyID).To(Equal(fam.ID))
				Expect(inc.Platform).To(Equal(model.DefaultPlatform))
				Expect(inc.Location).To(Equal(model.DefaultLocation))
				Expect(inc.Status).To(Equal(model.IncidentStatusActive))
				Expect(inc.CreatedAt).NotTo(BeZero())
			})

			It("returns the refreshed intelligence", func() {
				result, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{
					RawText: bankingReport,
					URL:     "http://hdfc-verify.in",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.IntelligenceStale).To(BeFalse())
				// one case, severe scam type
				Expect(result.Family.Risk).To(Equal(model.RiskMedium))
				Expect(result.Family.Artifacts.URLs).To(Equal([]string{"http://hdfc-verify.in"}))
				Expect(result.Family.Insights[0]).To(Equal("Observed 1 case(s) linked to this family."))
				Expect(result.Family.Actions).To(ContainElement(intel.ActionDomainTakedown))
				Expect(producer.sent()).To(BeEmpty())
			})
		})

		Context("with the same report submitted twice", func() {
			It("links the second copy with full confidence", func() {
				first, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})
				Expect(err).NotTo(HaveOccurred())

				second, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})
				Expect(err).NotTo(HaveOccurred())

				Expect(first.Linked).To(BeFalse())
				Expect(second.Linked).To(BeTrue())
				Expect(second.Confidence).To(Equal(1.0))
				Expect(second.Similarity.MarkerJaccard).To(Equal(1.0))
				Expect(second.Family.ID).To(Equal(first.Family.ID))
				Expect(second.Family.Cases).To(Equal([]int64{first.Incident.ID, second.Incident.ID}))
				Expect(second.Incident.Confidence).To(Equal(1.0))
				Expect(db.familyCount()).To(Equal(1))
			})
		})

		Context("with a later report that differs from the founder", func() {
			It("keeps the founder's markers and sample text", func() {
				first, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})
				Expect(err).NotTo(HaveOccurred())

				variant := "URGENT: your HDFC bank account is suspended, verify OTP now at http://hdfc-verify.in"
				second, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: variant})
				Expect(err).NotTo(HaveOccurred())

				Expect(second.Linked).To(BeTrue())
				Expect(second.Markers).To(ContainElement("urgent"))
				Expect(second.Family.CoreMarkers).To(Equal(first.Family.CoreMarkers))
				Expect(second.Family.SampleText).To(Equal(bankingReport))
			})
		})

		Context("with a backdated report for a known family", func() {
			It("does not move last seen backwards", func() {
				reported := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
				first, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport, ReportedAt: reported})
				Expect(err).NotTo(HaveOccurred())

				second, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{
					RawText:    bankingReport,
					ReportedAt: reported.Add(-72 * time.Hour),
				})
				Expect(err).NotTo(HaveOccurred())

				Expect(second.Family.ID).To(Equal(first.Family.ID))
				Expect(second.Incident.CreatedAt).To(Equal(reported.Add(-72 * time.Hour)))
				Expect(second.Family.LastSeen).To(Equal(reported))

				stored, err := db.Families().GetByID(ctx, first.Family.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.LastSeen).To(Equal(reported))
			})
		})

		Context("with unrelated reports of the same scam type", func() {
			It("founds a second family", func() {
				first, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})
				Expect(err).NotTo(HaveOccurred())

				second, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: "Bank holiday notice: branch closed on Monday"})
				Expect(err).NotTo(HaveOccurred())

				Expect(second.ScamType).To(Equal(first.ScamType))
				Expect(second.Linked).To(BeFalse())
				Expect(second.Confidence).To(BeNumerically(">", 0))
				Expect(second.Confidence).To(BeNumerically("<", 0.5))
				Expect(second.Family.ID).NotTo(Equal(first.Family.ID))
				Expect(db.familyCount()).To(Equal(2))
			})
		})

		Context("with a report of another scam type", func() {
			It("never considers families of other types", func() {
				_, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: "Police will arrest you, verify your bank account"})
				Expect(err).NotTo(HaveOccurred())

				result, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})
				Expect(err).NotTo(HaveOccurred())

				Expect(result.Linked).To(BeFalse())
				Expect(result.Confidence).To(BeZero())
			})
		})

		Context("with equally similar families", func() {
			It("links to the family listed first", func() {
				for i := 0; i < 2; i++ {
					Expect(db.Families().Create(ctx, &model.FraudFamily{
						Label:       dna.ScamTypeBanking,
						ScamType:    dna.ScamTypeBanking,
						CoreMarkers: []string{"verify", "bank", "otp", "account"},
						SampleText:  bankingReport,
					})).To(Succeed())
				}

				result, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.Linked).To(BeTrue())
				Expect(result.Family.ID).To(Equal(int64(1)))
			})
		})

		Context("when the store fails", func() {
			It("wraps the error and rolls back the new family", func() {
				boom := errors.New("connection reset")
				db.fail("incidents.create", boom)

				_, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})

				Expect(err).To(MatchError(boom))
				var perr *service.PersistenceError
				Expect(errors.As(err, &perr)).To(BeTrue())
				Expect(perr.Op).To(Equal("creating incident"))
				Expect(db.familyCount()).To(BeZero())
				Expect(db.incidentCount()).To(BeZero())
			})

			It("fails when the candidate families cannot be read", func() {
				db.fail("families.list_by_scam_type", errors.New("timeout"))

				_, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})

				var perr *service.PersistenceError
				Expect(errors.As(err, &perr)).To(BeTrue())
				Expect(perr.Op).To(Equal("listing families"))
				Expect(db.callCount("families.create")).To(BeZero())
			})
		})

		Context("when the intelligence refresh fails", func() {
			BeforeEach(func() {
				db.fail("families.save_intelligence", errors.New("disk full"))
			})

			It("still accepts the report and queues a recompute", func() {
				result, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport, TraceID: "trace-1"})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.IntelligenceStale).To(BeTrue())
				Expect(result.Family.Cases).To(HaveLen(1))
				Expect(db.incidentCount()).To(Equal(1))
				Expect(producer.sent()).To(Equal([]queue.RecomputeMessage{{
					FamilyID: result.Family.ID,
					Reason:   queue.ReasonSynthesisFailed,
					TraceID:  "trace-1",
				}}))
			})

			It("survives a queue failure too", func() {
				producer.err = errors.New("redis down")

				result, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})

				Expect(err).NotTo(HaveOccurred())
				Expect(result.IntelligenceStale).To(BeTrue())
			})
		})

		Context("with concurrent submissions of one campaign", func() {
			It("creates exactly one family", func() {
				const n = 12
				var wg sync.WaitGroup
				results := make([]*service.SubmitIncidentResult, n)
				for i := 0; i < n; i++ {
					wg.Add(1)
					go func(i int) {
						defer GinkgoRecover()
						defer wg.Done()
						r, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})
						Expect(err).NotTo(HaveOccurred())
						results[i] = r
					}(i)
				}
				wg.Wait()

				Expect(db.familyCount()).To(Equal(1))
				Expect(db.incidentCount()).To(Equal(n))

				linked := 0
				for _, r := range results {
					if r.Linked {
						linked++
					}
				}
				Expect(linked).To(Equal(n - 1))

				fam, err := db.Families().GetByID(ctx, results[0].Family.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(fam.Cases).To(HaveLen(n))
				Expect(fam.Insights[0]).To(Equal("Observed 12 case(s) linked to this family."))
			})
		})
	})

	Describe("Preview", func() {
		It("reports the decision without writing", func() {
			first, err := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})
			Expect(err).NotTo(HaveOccurred())

			preview, err := svc.Preview(ctx, bankingReport)

			Expect(err).NotTo(HaveOccurred())
			Expect(preview.Linked).To(BeTrue())
			Expect(preview.FamilyID).To(Equal(first.Family.ID))
			Expect(preview.Fingerprint.ScamType).To(Equal(dna.ScamTypeBanking))
			Expect(preview.Candidates).To(Equal(1))
			Expect(db.incidentCount()).To(Equal(1))
		})

		It("rejects blank text", func() {
			_, err := svc.Preview(ctx, " ")
			Expect(err).To(MatchError(service.ErrValidation))
		})
	})

	Describe("Get", func() {
		It("maps a missing incident to ErrNotFound", func() {
			_, err := svc.Get(ctx, 404)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("List", func() {
		It("returns newest first", func() {
			a, _ := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: bankingReport})
			b, _ := svc.ClassifyAndLink(ctx, service.SubmitIncidentParams{RawText: "Job offer: pay a registration fee"})

			incidents, err := svc.List(ctx, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(incidents).To(HaveLen(2))
			Expect(incidents[0].ID).To(Equal(b.Incident.ID))
			Expect(incidents[1].ID).To(Equal(a.Incident.ID))
		})
	})
})
