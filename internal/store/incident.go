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

const incidentColumns = `id, raw_text, platform, phone, url, location, markers,
	scam_type, family_id, confidence, status, created_at`

type incidentStore struct {
	q db.DBTX
}

func newIncidentStore(q db.DBTX) IncidentStore {
	return &incidentStore{q: q}
}

func (s *incidentStore) GetByID(ctx context.Context, incidentID int64) (*model.Incident, error) {
	rows, err := s.q.Query(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, incidentID)
	if err != nil {
		return nil, err
	}
	inc, err := pgx.CollectExactlyOneRow(rows, scanIncident)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inc, nil
}

func (s *incidentStore) Create(ctx context.Context, inc *model.Incident) error {
	if inc.ID == 0 {
		inc.ID = id.New()
	}
	inc.Markers = nonNil(inc.Markers)
	if inc.Status == "" {
		inc.Status = model.IncidentStatusActive
	}

	err := s.q.QueryRow(ctx, `
		INSERT INTO incidents (id, raw_text, platform, phone, url, location, markers,
			scam_type, family_id, confidence, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, now()))
		RETURNING created_at`,
		inc.ID, inc.RawText, inc.Platform, inc.Phone, inc.URL, inc.Location, inc.Markers,
		inc.ScamType, inc.FamilyID, inc.Confidence, string(inc.Status), nullTime(inc.CreatedAt),
	).Scan(&inc.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting incident: %w", err)
	}
	return nil
}

func (s *incidentStore) ListByFamily(ctx context.Context, familyID int64) ([]model.Incident, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE family_id = $1 ORDER BY created_at, id`,
		familyID)
	if err != nil {
		return nil, err
	}
	return collectIncidents(rows)
}

func (s *incidentStore) List(ctx context.Context, limit int32) ([]model.Incident, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+incidentColumns+` FROM incidents ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	return collectIncidents(rows)
}

func collectIncidents(rows pgx.Rows) ([]model.Incident, error) {
	incidents, err := pgx.CollectRows(rows, scanIncident)
	if err != nil {
		return nil, err
	}
	if incidents == nil {
		incidents = []model.Incident{}
	}
	return incidents, nil
}

func scanIncident(row pgx.CollectableRow) (model.Incident, error) {
	var (
		inc    model.Incident
		status string
	)
	err := row.Scan(&inc.ID, &inc.RawText, &inc.Platform, &inc.Phone, &inc.URL, &inc.Location,
		&inc.Markers, &inc.ScamType, &inc.FamilyID, &inc.Confidence, &status, &inc.CreatedAt)
	inc.Status = model.IncidentStatus(status)
	return inc, err
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
