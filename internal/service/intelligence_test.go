package service_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crimescape.app/dna/internal/intel"
	"crimescape.app/dna/internal/lock"
	"crimescape.app/dna/internal/model"
	"crimescape.app/dna/internal/service"
	"crimescape.app/dna/internal/store"
)

var _ = Describe("IntelligenceService", func() {
	var (
		ctx context.Context
		db  *memDB
		svc service.IntelligenceService
		fam *model.FraudFamily
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMemDB()
		svc = service.NewIntelligenceService(&memTxRunner{db: db}, intel.Default(), lock.NewKeyedMutex(), nil)

		fam = &model.FraudFamily{Label: "Courier Fraud", ScamType: "Courier Fraud"}
		Expect(db.Families().Create(ctx, fam)).To(Succeed())
	})

	addIncidents := func(n int, phones int) {
		for i := 0; i < n; i++ {
			inc := &model.Incident{
				RawText:  fmt.Sprintf("parcel %d held, pay customs fee", i),
				Phone:    fmt.Sprintf("+91-%d", i%phones),
				FamilyID: fam.ID,
			}
			Expect(db.Incidents().Create(ctx, inc)).To(Succeed())
			Expect(db.Families().AppendCase(ctx, fam.ID, inc.ID, inc.CreatedAt)).To(Succeed())
		}
	}

	It("recomputes from the full incident list", func() {
		addIncidents(10, 4)

		refreshed, err := svc.Refresh(ctx, fam.ID)

		Expect(err).NotTo(HaveOccurred())
		// 10 cases and 4 reused phones
		Expect(refreshed.Risk).To(Equal(model.RiskHigh))
		Expect(refreshed.Artifacts.Phones).To(Equal([]string{"+91-0", "+91-1", "+91-2", "+91-3"}))
		Expect(refreshed.Insights[0]).To(Equal("Observed 10 case(s) linked to this family."))

		stored, err := db.Families().GetByID(ctx, fam.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Intelligence).To(Equal(refreshed.Intelligence))
	})

	It("is idempotent", func() {
		addIncidents(5, 2)

		a, err := svc.Refresh(ctx, fam.ID)
		Expect(err).NotTo(HaveOccurred())
		b, err := svc.Refresh(ctx, fam.ID)
		Expect(err).NotTo(HaveOccurred())

		Expect(b.Intelligence).To(Equal(a.Intelligence))
	})

	It("gives an empty family LOW risk", func() {
		refreshed, err := svc.Refresh(ctx, fam.ID)

		Expect(err).NotTo(HaveOccurred())
		Expect(refreshed.Risk).To(Equal(model.RiskLow))
		Expect(refreshed.Insights).To(BeEmpty())
		Expect(refreshed.Artifacts.URLs).NotTo(BeNil())
	})

	It("reports an unknown family as not found", func() {
		_, err := svc.Refresh(ctx, 999)

		Expect(err).To(MatchError(store.ErrNotFound))
	})

	It("leaves the stored intelligence alone when saving fails", func() {
		addIncidents(4, 1)
		db.fail("families.save_intelligence", errors.New("disk full"))

		_, err := svc.Refresh(ctx, fam.ID)

		var perr *service.PersistenceError
		Expect(errors.As(err, &perr)).To(BeTrue())
		Expect(perr.Op).To(Equal("saving intelligence"))
		stored, _ := db.Families().GetByID(ctx, fam.ID)
		Expect(stored.Insights).To(BeEmpty())
	})
})

var _ = Describe("FamilyService", func() {
	var (
		ctx context.Context
		db  *memDB
		svc service.FamilyService
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMemDB()
		svc = service.NewFamilyService(db)
	})

	It("404s incidents of an unknown family", func() {
		_, err := svc.Incidents(ctx, 7)
		Expect(err).To(MatchError(store.ErrNotFound))
	})

	It("lists a family's incidents in submission order", func() {
		fam := &model.FraudFamily{ScamType: "Job Scam"}
		Expect(db.Families().Create(ctx, fam)).To(Succeed())
		for _, text := range []string{"first", "second"} {
			Expect(db.Incidents().Create(ctx, &model.Incident{RawText: text, FamilyID: fam.ID})).To(Succeed())
		}
		Expect(db.Incidents().Create(ctx, &model.Incident{RawText: "other", FamilyID: 99})).To(Succeed())

		incidents, err := svc.Incidents(ctx, fam.ID)

		Expect(err).NotTo(HaveOccurred())
		Expect(incidents).To(HaveLen(2))
		Expect(incidents[0].RawText).To(Equal("first"))
		Expect(incidents[1].RawText).To(Equal("second"))
	})

	It("builds the overview from both stores", func() {
		fam := &model.FraudFamily{ScamType: "Job Scam"}
		Expect(db.Families().Create(ctx, fam)).To(Succeed())
		Expect(db.Incidents().Create(ctx, &model.Incident{RawText: "x", FamilyID: fam.ID})).To(Succeed())

		overview, err := svc.Overview(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(overview.Families).To(HaveLen(1))
		Expect(overview.Incidents).To(HaveLen(1))
		Expect(db.callCount("incidents.list")).To(Equal(1))
	})

	It("fails the overview when either read fails", func() {
		db.fail("families.list", errors.New("timeout"))

		_, err := svc.Overview(ctx)

		Expect(err).To(MatchError(ContainSubstring("listing families")))
	})
})
