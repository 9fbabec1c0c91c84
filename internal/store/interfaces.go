package store

import (
	"context"
	"errors"
	"time"

	"crimescape.app/dna/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// FamilyStore defines the contract for fraud family data access
type FamilyStore interface {
	// ListByScamType returns every family of scamType oldest first. The order
	// is the linkage tie-break and must be stable.
	ListByScamType(ctx context.Context, scamType string) ([]model.FraudFamily, error)
	GetByID(ctx context.Context, id int64) (*model.FraudFamily, error)
	Create(ctx context.Context, family *model.FraudFamily) error
	// AppendCase records incidentID as a member. LastSeen only moves forward.
	AppendCase(ctx context.Context, familyID, incidentID int64, lastSeen time.Time) error
	SaveIntelligence(ctx context.Context, familyID int64, intel model.Intelligence) error
	// List returns families most recently seen first.
	List(ctx context.Context, limit int32) ([]model.FraudFamily, error)
}

// IncidentStore defines the contract for incident data access
type IncidentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Incident, error)
	Create(ctx context.Context, incident *model.Incident) error
	// ListByFamily returns the family's incidents in submission order.
	ListByFamily(ctx context.Context, familyID int64) ([]model.Incident, error)
	// List returns incidents newest first.
	List(ctx context.Context, limit int32) ([]model.Incident, error)
}
