package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"crimescape.app/dna/common/logger"
	"crimescape.app/dna/internal/dna"
	"crimescape.app/dna/internal/lock"
	"crimescape.app/dna/internal/model"
	"crimescape.app/dna/internal/queue"
)

const (
	defaultIncidentListLimit = 100
	maxListLimit             = 1000
)

// SubmitIncidentParams is one fraud report as received. Only RawText is
// required; Platform and Location default to "Unknown".
type SubmitIncidentParams struct {
	RawText  string `json:"raw_text"`
	Platform string `json:"platform,omitempty"`
	Phone    string `json:"phone,omitempty"`
	URL      string `json:"url,omitempty"`
	Location string `json:"location,omitempty"`

	// ReportedAt backdates the incident, used when replaying historical
	// reports. Zero means now.
	ReportedAt time.Time `json:"reported_at,omitempty"`
	TraceID    string    `json:"-"`
}

func (p SubmitIncidentParams) validate() error {
	if strings.TrimSpace(p.RawText) == "" {
		return &ValidationError{Field: "raw_text", Reason: "is required"}
	}
	return nil
}

func (p SubmitIncidentParams) withDefaults(now time.Time) SubmitIncidentParams {
	if p.Platform == "" {
		p.Platform = model.DefaultPlatform
	}
	if p.Location == "" {
		p.Location = model.DefaultLocation
	}
	if p.ReportedAt.IsZero() {
		p.ReportedAt = now
	}
	p.ReportedAt = p.ReportedAt.UTC()
	return p
}

type SubmitIncidentResult struct {
	Incident   *model.Incident
	Family     *model.FraudFamily
	Linked     bool
	Confidence float64
	ScamType   string
	Markers    []string
	Similarity dna.Similarity
	// IntelligenceStale is set when the family was linked but its
	// intelligence could not be refreshed in the request.
	IntelligenceStale bool
}

// PreviewResult is what ClassifyAndLink would decide for a text, without
// writing anything.
type PreviewResult struct {
	Fingerprint dna.Fingerprint
	Linked      bool
	FamilyID    int64
	Similarity  dna.Similarity
	Candidates  int
}

type IncidentService interface {
	// ClassifyAndLink fingerprints the report, attaches it to the most similar
	// family of its scam type or founds a new one, and refreshes that
	// family's intelligence.
	ClassifyAndLink(ctx context.Context, params SubmitIncidentParams) (*SubmitIncidentResult, error)
	Preview(ctx context.Context, rawText string) (*PreviewResult, error)
	Get(ctx context.Context, id int64) (*model.Incident, error)
	List(ctx context.Context, limit int32) ([]model.Incident, error)
}

type incidentService struct {
	stores   StoreProvider
	txRunner TxRunner
	engine   *dna.Engine
	intel    IntelligenceService
	locker   lock.Locker
	queue    queue.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewIncidentService wires the linkage flow. producer may be nil, in which
// case a failed intelligence refresh is only logged.
func NewIncidentService(
	stores StoreProvider,
	txRunner TxRunner,
	engine *dna.Engine,
	intel IntelligenceService,
	locker lock.Locker,
	producer queue.Producer,
	logger *slog.Logger,
) IncidentService {
	if logger == nil {
		logger = slog.Default()
	}
	if locker == nil {
		locker = lock.Noop{}
	}
	return &incidentService{
		stores:   stores,
		txRunner: txRunner,
		engine:   engine,
		intel:    intel,
		locker:   locker,
		queue:    producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *incidentService) ClassifyAndLink(ctx context.Context, params SubmitIncidentParams) (*SubmitIncidentResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	params = params.withDefaults(s.now())

	span := logger.StartSpan(ctx, "service.classify_and_link")
	defer span.End()
	ctx = span.Context()

	fp := s.engine.Fingerprint(params.RawText)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ScamType:  &fp.ScamType,
		Component: "dna.service.incident",
	})

	result, err := s.link(ctx, params, fp)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		IncidentID: &result.Incident.ID,
		FamilyID:   &result.Family.ID,
	})
	span.SetAttributes(
		attribute.String("dna.scam_type", fp.ScamType),
		attribute.Bool("dna.linked", result.Linked),
		attribute.Float64("dna.confidence", result.Confidence),
	)
	s.logger.InfoContext(ctx, "incident classified",
		"linked", result.Linked,
		"confidence", result.Confidence,
		"markers", fp.Markers)

	// The link is committed. From here on failures only leave the family's
	// intelligence stale.
	refreshed, err := s.intel.Refresh(ctx, result.Family.ID)
	if err != nil {
		result.IntelligenceStale = true
		s.logger.WarnContext(ctx, "intelligence refresh failed, family left stale", "error", err)
		s.enqueueRecompute(ctx, result.Family.ID, params.TraceID)
	} else {
		result.Family = refreshed
	}

	return result, nil
}

// link runs find-or-create and the incident insert under the scam type lock.
func (s *incidentService) link(ctx context.Context, params SubmitIncidentParams, fp dna.Fingerprint) (*SubmitIncidentResult, error) {
	unlock, err := s.locker.Lock(ctx, lock.ScamTypeKey(fp.ScamType))
	if err != nil {
		return nil, fmt.Errorf("locking scam type %q: %w", fp.ScamType, err)
	}
	defer unlock()

	var result *SubmitIncidentResult
	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		families, err := sp.Families().ListByScamType(ctx, fp.ScamType)
		if err != nil {
			return persistErr("listing families", err)
		}

		decision := s.engine.Link(candidatesOf(families), fp, params.RawText)

		var family model.FraudFamily
		if decision.Linked {
			family = families[decision.Match.Index]
		} else {
			family = model.FraudFamily{
				Label:       fp.ScamType,
				ScamType:    fp.ScamType,
				CoreMarkers: fp.Markers,
				SampleText:  params.RawText,
				Cases:       []int64{},
				LastSeen:    params.ReportedAt,
				Intelligence: model.Intelligence{
					Risk: model.RiskMedium,
				},
			}
			if err := sp.Families().Create(ctx, &family); err != nil {
				return persistErr("creating family", err)
			}
		}

		incident := &model.Incident{
			RawText:    params.RawText,
			Platform:   params.Platform,
			Phone:      params.Phone,
			URL:        params.URL,
			Location:   params.Location,
			Markers:    fp.Markers,
			ScamType:   fp.ScamType,
			FamilyID:   family.ID,
			Confidence: decision.Confidence,
			Status:     model.IncidentStatusActive,
			CreatedAt:  params.ReportedAt,
		}
		if err := sp.Incidents().Create(ctx, incident); err != nil {
			return persistErr("creating incident", err)
		}

		if err := sp.Families().AppendCase(ctx, family.ID, incident.ID, params.ReportedAt); err != nil {
			return persistErr("appending case", err)
		}
		family.Cases = append(family.Cases, incident.ID)
		if params.ReportedAt.After(family.LastSeen) {
			family.LastSeen = params.ReportedAt
		}

		result = &SubmitIncidentResult{
			Incident:   incident,
			Family:     &family,
			Linked:     decision.Linked,
			Confidence: decision.Confidence,
			ScamType:   fp.ScamType,
			Markers:    fp.Markers,
			Similarity: decision.Match.Similarity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *incidentService) enqueueRecompute(ctx context.Context, familyID int64, traceID string) {
	if s.queue == nil {
		return
	}
	if traceID == "" {
		traceID = logger.TraceID(ctx)
	}
	if err := s.queue.EnqueueRecompute(ctx, queue.RecomputeMessage{
		FamilyID: familyID,
		Reason:   queue.ReasonSynthesisFailed,
		TraceID:  traceID,
	}); err != nil {
		s.logger.ErrorContext(ctx, "enqueueing family recompute failed", "error", err)
	}
}

func (s *incidentService) Preview(ctx context.Context, rawText string) (*PreviewResult, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, &ValidationError{Field: "raw_text", Reason: "is required"}
	}

	fp := s.engine.Fingerprint(rawText)
	families, err := s.stores.Families().ListByScamType(ctx, fp.ScamType)
	if err != nil {
		return nil, persistErr("listing families", err)
	}

	decision := s.engine.Link(candidatesOf(families), fp, rawText)
	return &PreviewResult{
		Fingerprint: fp,
		Linked:      decision.Linked,
		FamilyID:    decision.FamilyID(),
		Similarity:  decision.Match.Similarity,
		Candidates:  len(families),
	}, nil
}

func (s *incidentService) Get(ctx context.Context, id int64) (*model.Incident, error) {
	inc, err := s.stores.Incidents().GetByID(ctx, id)
	if err != nil {
		return nil, persistErr("getting incident", err)
	}
	return inc, nil
}

func (s *incidentService) List(ctx context.Context, limit int32) ([]model.Incident, error) {
	incidents, err := s.stores.Incidents().List(ctx, clampLimit(limit, defaultIncidentListLimit))
	if err != nil {
		return nil, persistErr("listing incidents", err)
	}
	return incidents, nil
}

func candidatesOf(families []model.FraudFamily) []dna.Candidate {
	out := make([]dna.Candidate, len(families))
	for i, f := range families {
		out[i] = dna.Candidate{
			FamilyID:    f.ID,
			CoreMarkers: f.CoreMarkers,
			SampleText:  f.SampleText,
		}
	}
	return out
}

func clampLimit(limit, fallback int32) int32 {
	if limit <= 0 {
		return fallback
	}
	return min(limit, maxListLimit)
}
