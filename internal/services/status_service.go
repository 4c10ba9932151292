package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"todobackend/internal/storage"
)

const healthProbeTimeout = 5 * time.Second

type statusServiceImpl struct {
	logger zerolog.Logger
	db     Backend
	cache  *storage.MemoryStorage
	events EventPublisher
}

func NewStatusService(
	logger zerolog.Logger,
	db Backend,
	cache *storage.MemoryStorage,
	publisher EventPublisher,
) StatusService {
	return &statusServiceImpl{
		logger: logger,
		db:     db,
		cache:  cache,
		events: publisher,
	}
}

func (s *statusServiceImpl) Snapshot() Status {
	return Status{
		TodoCount:     s.cache.Len(),
		DBConnected:   s.db.Available(),
		NATSConnected: s.events.Connected(),
	}
}

func (s *statusServiceImpl) Health(ctx context.Context) Health {
	if !s.db.Enabled() {
		return Health{Status: HealthOK, DB: HealthDBDisabled}
	}

	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	err := s.db.Ping(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("db health probe failed")
		return Health{Status: HealthUnavailable, DB: HealthDBError}
	}
	return Health{Status: HealthOK, DB: HealthDBConnected}
}
