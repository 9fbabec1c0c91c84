package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"crimescape.app/dna/common/id"
	"crimescape.app/dna/core/db"
	"crimescape.app/dna/internal/model"
)

const familyColumns = `id, label, scam_type, core_markers, sample_text, cases,
	risk, insights, actions, artifacts, last_seen, created_at`

type familyStore struct {
	q db.DBTX
}

func newFamilyStore(q db.DBTX) FamilyStore {
	return &familyStore{q: q}
}

func (s *familyStore) ListByScamType(ctx context.Context, scamType string) ([]model.FraudFamily, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+familyColumns+` FROM fraud_families WHERE scam_type = $1 ORDER BY created_at, id`,
		scamType)
	if err != nil {
		return nil, err
	}
	return collectFamilies(rows)
}

func (s *familyStore) GetByID(ctx context.Context, familyID int64) (*model.FraudFamily, error) {
	rows, err := s.q.Query(ctx, `SELECT `+familyColumns+` FROM fraud_families WHERE id = $1`, familyID)
	if err != nil {
		return nil, err
	}
	family, err := pgx.CollectExactlyOneRow(rows, scanFamily)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &family, nil
}

func (s *familyStore) Create(ctx context.Context, family *model.FraudFamily) error {
	if family.ID == 0 {
		family.ID = id.New()
	}
	family.CoreMarkers = nonNil(family.CoreMarkers)
	family.Insights = nonNil(family.Insights)
	family.Actions = nonNil(family.Actions)
	family.Artifacts = model.Artifacts{
		Phones:  nonNil(family.Artifacts.Phones),
		URLs:    nonNil(family.Artifacts.URLs),
		Phrases: nonNil(family.Artifacts.Phrases),
	}
	if family.Cases == nil {
		family.Cases = []int64{}
	}
	if family.Risk == "" {
		family.Risk = model.RiskMedium
	}

	err := s.q.QueryRow(ctx, `
		INSERT INTO fraud_families (id, label, scam_type, core_markers, sample_text, cases,
			risk, insights, actions, artifacts, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`,
		family.ID, family.Label, family.ScamType, family.CoreMarkers, family.SampleText, family.Cases,
		string(family.Risk), family.Insights, family.Actions, family.Artifacts, family.LastSeen,
	).Scan(&family.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting family: %w", err)
	}
	return nil
}

func (s *familyStore) AppendCase(ctx context.Context, familyID, incidentID int64, lastSeen time.Time) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE fraud_families SET cases = array_append(cases, $2), last_seen = GREATEST(last_seen, $3) WHERE id = $1`,
		familyID, incidentID, lastSeen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *familyStore) SaveIntelligence(ctx context.Context, familyID int64, intel model.Intelligence) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE fraud_families SET risk = $2, insights = $3, actions = $4, artifacts = $5 WHERE id = $1`,
		familyID, string(intel.Risk), nonNil(intel.Insights), nonNil(intel.Actions), intel.Artifacts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *familyStore) List(ctx context.Context, limit int32) ([]model.FraudFamily, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+familyColumns+` FROM fraud_families ORDER BY last_seen DESC, id DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	return collectFamilies(rows)
}

func collectFamilies(rows pgx.Rows) ([]model.FraudFamily, error) {
	families, err := pgx.CollectRows(rows, scanFamily)
	if err != nil {
		return nil, err
	}
	if families == nil {
		families = []model.FraudFamily{}
	}
	return families, nil
}

func scanFamily(row pgx.CollectableRow) (model.FraudFamily, error) {
	var (
		f    model.FraudFamily
		risk string
	)
	err := row.Scan(&f.ID, &f.Label, &f.ScamType, &f.CoreMarkers, &f.SampleText, &f.Cases,
		&risk, &f.Insights, &f.Actions, &f.Artifacts, &f.LastSeen, &f.CreatedAt)
	f.Risk = model.RiskLabel(risk)
	return f, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
