package app

import (
	"todobackend/internal/config"
	"todobackend/internal/events"
)

var globalPublisher *events.Publisher

// SetupEvents starts the broker connection attempt in the background.
// Like the database, an unreachable broker never stops the process;
// events are dropped until the supervisor succeeds.
func SetupEvents() {
	cfg := config.Global()

	globalPublisher = events.NewPublisher(globalLogger, cfg.NATS, cfg.Strict())
	if !globalPublisher.Enabled() {
		globalLogger.Warn().Msg("nats not configured, event publishing disabled")
		return
	}

	go globalPublisher.Connect()
}

func CloseEvents() {
	globalPublisher.Close()
}
