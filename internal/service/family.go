package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"crimescape.app/dna/internal/model"
)

const (
	overviewIncidentLimit = 100
	defaultFamilyLimit    = 500
)

// Overview is the dashboard snapshot: newest incidents and families by
// recency.
type Overview struct {
	Incidents []model.Incident
	Families  []model.FraudFamily
}

type FamilyService interface {
	Get(ctx context.Context, id int64) (*model.FraudFamily, error)
	List(ctx context.Context, limit int32) ([]model.FraudFamily, error)
	Incidents(ctx context.Context, familyID int64) ([]model.Incident, error)
	Overview(ctx context.Context) (*Overview, error)
}

type familyService struct {
	stores StoreProvider
}

func NewFamilyService(stores StoreProvider) FamilyService {
	return &familyService{stores: stores}
}

func (s *familyService) Get(ctx context.Context, id int64) (*model.FraudFamily, error) {
	f, err := s.stores.Families().GetByID(ctx, id)
	if err != nil {
		return nil, persistErr("getting family", err)
	}
	return f, nil
}

func (s *familyService) List(ctx context.Context, limit int32) ([]model.FraudFamily, error) {
	families, err := s.stores.Families().List(ctx, clampLimit(limit, defaultFamilyLimit))
	if err != nil {
		return nil, persistErr("listing families", err)
	}
	return families, nil
}

// Incidents 404s for an unknown family rather than returning an empty list.
func (s *familyService) Incidents(ctx context.Context, familyID int64) ([]model.Incident, error) {
	if _, err := s.stores.Families().GetByID(ctx, familyID); err != nil {
		return nil, persistErr("getting family", err)
	}
	incidents, err := s.stores.Incidents().ListByFamily(ctx, familyID)
	if err != nil {
		return nil, persistErr("listing family incidents", err)
	}
	return incidents, nil
}

func (s *familyService) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		incidents, err := s.stores.Incidents().List(gctx, overviewIncidentLimit)
		if err != nil {
			return persistErr("listing incidents", err)
		}
		out.Incidents = incidents
		return nil
	})
	g.Go(func() error {
		families, err := s.stores.Families().List(gctx, maxListLimit)
		if err != nil {
			return persistErr("listing families", err)
		}
		out.Families = families
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
