package app

import (
	"context"
	"strings"

	"todobackend/internal/config"
	"todobackend/internal/storage"
)

var (
	globalStorage *storage.PostgresStorage
	globalCache   *storage.MemoryStorage
)

// SetupStorage wires the fallback cache to the postgres connector and
// starts the initial connection attempt in the background. Connection
// failures never stop the process; the backend serves from the cache
// until the supervisor succeeds.
func SetupStorage() {
	cfg := config.Global()

	globalCache = storage.NewMemoryStorage(globalLogger)
	globalStorage = storage.NewPostgresStorage(globalLogger, cfg.Postgres, cfg.Strict())
	globalStorage.OnReady(globalCache.ReplaceAll)

	if !globalStorage.Enabled() {
		globalLogger.Warn().
			Str("missing", strings.Join(cfg.Postgres.MissingVars(), ", ")).
			Msg("running without database")
		return
	}

	err := globalStorage.Open()
	if err != nil {
		globalLogger.Warn().
			Err(err).
			Msg("failed to open postgres pool, running without database")
		return
	}

	go globalStorage.Connect(context.Background())
}

func CloseStorage() {
	globalStorage.Close()
}
