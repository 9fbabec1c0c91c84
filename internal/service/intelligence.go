package service

import (
	"context"
	"fmt"
	"log/slog"

	"crimescape.app/dna/common/logger"
	"crimescape.app/dna/internal/intel"
	"crimescape.app/dna/internal/lock"
	"crimescape.app/dna/internal/model"
)

// IntelligenceService recomputes a family's derived fields from scratch.
type IntelligenceService interface {
	Refresh(ctx context.Context, familyID int64) (*model.FraudFamily, error)
}

type intelligenceService struct {
	txRunner    TxRunner
	synthesizer *intel.Synthesizer
	locker      lock.Locker
	logger      *slog.Logger
}

func NewIntelligenceService(txRunner TxRunner, synthesizer *intel.Synthesizer, locker lock.Locker, logger *slog.Logger) IntelligenceService {
	if logger == nil {
		logger = slog.Default()
	}
	if locker == nil {
		locker = lock.Noop{}
	}
	return &intelligenceService{
		txRunner:    txRunner,
		synthesizer: synthesizer,
		locker:      locker,
		logger:      logger,
	}
}

// Refresh reads the family and all of its incidents and overwrites risk,
// insights, actions and artifacts in one transaction. Refreshes of the same
// family are serialized so an older incident list never overwrites a newer
// one.
func (s *intelligenceService) Refresh(ctx context.Context, familyID int64) (*model.FraudFamily, error) {
	span := logger.StartSpan(ctx, "service.refresh_intelligence")
	defer span.End()
	ctx = logger.WithLogFields(span.Context(), logger.LogFields{FamilyID: &familyID})

	unlock, err := s.locker.Lock(ctx, lock.FamilyKey(familyID))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("locking family %d: %w", familyID, err)
	}
	defer unlock()

	var family *model.FraudFamily
	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		f, err := sp.Families().GetByID(ctx, familyID)
		if err != nil {
			return persistErr("getting family", err)
		}
		incidents, err := sp.Incidents().ListByFamily(ctx, familyID)
		if err != nil {
			return persistErr("listing family incidents", err)
		}

		f.Intelligence = s.synthesizer.Synthesize(*f, incidents)
		if err := sp.Families().SaveIntelligence(ctx, familyID, f.Intelligence); err != nil {
			return persistErr("saving intelligence", err)
		}
		family = f
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.DebugContext(ctx, "family intelligence refreshed",
		"risk", family.Risk,
		"cases", len(family.Cases))
	return family, nil
}
