package service

import (
	"log/slog"

	"crimescape.app/dna/internal/dna"
	"crimescape.app/dna/internal/intel"
	"crimescape.app/dna/internal/lock"
	"crimescape.app/dna/internal/queue"
)

type Services struct {
	stores      StoreProvider
	txRunner    TxRunner
	engine      *dna.Engine
	synthesizer *intel.Synthesizer
	locker      lock.Locker
	producer    queue.Producer
	logger      *slog.Logger
}

// NewServices builds the service set. producer may be nil when no redis is
// configured.
func NewServices(
	stores StoreProvider,
	txRunner TxRunner,
	engine *dna.Engine,
	synthesizer *intel.Synthesizer,
	locker lock.Locker,
	producer queue.Producer,
	logger *slog.Logger,
) *Services {
	return &Services{
		stores:      stores,
		txRunner:    txRunner,
		engine:      engine,
		synthesizer: synthesizer,
		locker:      locker,
		producer:    producer,
		logger:      logger,
	}
}

func (s *Services) Incidents() IncidentService {
	return NewIncidentService(s.stores, s.txRunner, s.engine, s.Intelligence(), s.locker, s.producer, s.logger)
}

func (s *Services) Intelligence() IntelligenceService {
	return NewIntelligenceService(s.txRunner, s.synthesizer, s.locker, s.logger)
}

func (s *Services) Families() FamilyService {
	return NewFamilyService(s.stores)
}

func (s *Services) Engine() *dna.Engine {
	return s.engine
}
