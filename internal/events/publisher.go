package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"todobackend/internal/config"
	"todobackend/internal/models"
)

// Domain event types carried in the envelope.
const (
	TodoCreated = "todo.created"
	TodoUpdated = "todo.updated"
)

const (
	envelopeSource  = "todo-backend"
	envelopeVersion = "1.0"
)

type envelope struct {
	Type string       `json:"type"`
	Data *models.Todo `json:"data"`
	Meta meta         `json:"meta"`
}

type meta struct {
	Source    string `json:"source"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Publisher owns the NATS connection and emits domain events on a
// fixed subject. Publishing is fire and forget: when the broker is
// down the event is dropped with a warning, never queued or retried.
// The connect supervisor mirrors the postgres one, with its own flag
// and retry budget.
type Publisher struct {
	logger zerolog.Logger
	cfg    config.NATSConfig
	strict bool

	mu sync.RWMutex
	nc *nats.Conn

	connected    atomic.Bool
	reconnecting atomic.Bool
}

func NewPublisher(
	logger zerolog.Logger,
	cfg config.NATSConfig,
	strict bool,
) *Publisher {
	return &Publisher{
		logger: logger,
		cfg:    cfg,
		strict: strict,
	}
}

// Enabled reports whether a broker URL was configured at all.
func (p *Publisher) Enabled() bool {
	return p.cfg.Enabled()
}

func (p *Publisher) Connected() bool {
	return p.connected.Load()
}

// Connect runs the connection supervisor unless one is already in
// flight, retrying up to the configured budget in strict mode and
// exactly once otherwise. Retries run to exhaustion.
func (p *Publisher) Connect() {
	if !p.Enabled() {
		p.logger.Warn().Msg("nats url not set, skipping nats initialization")
		return
	}
	if !p.reconnecting.CompareAndSwap(false, true) {
		return
	}
	p.supervise()
}

// supervise holds the reconnect guard through the retry loop and, on
// success, through the handoff back to steady state.
func (p *Publisher) supervise() {
	for {
		if !p.connectWithRetry() {
			p.reconnecting.Store(false)
			return
		}
		if !p.releaseAndRecheck() {
			return
		}
	}
}

// connectWithRetry reports whether a dial attempt succeeded within the
// retry budget.
func (p *Publisher) connectWithRetry() bool {
	attempts := 1
	if p.strict && p.cfg.RetryAttempts > 1 {
		attempts = p.cfg.RetryAttempts
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		nc, err := nats.Connect(p.cfg.URL)
		if err == nil {
			p.mu.Lock()
			p.nc = nc
			p.mu.Unlock()

			p.connected.Store(true)
			p.logger.Info().
				Int("attempt", attempt).
				Str("url", p.cfg.URL).
				Msg("nats ready")
			return true
		}

		p.connected.Store(false)
		p.logger.Error().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("nats init failed")

		if attempt == attempts {
			p.logger.Error().
				Bool("strict", p.strict).
				Msg("giving up on nats, publishing will be skipped")
			return false
		}
		time.Sleep(p.cfg.RetryDelay)
	}
	return false
}

// releaseAndRecheck hands the reconnect guard back and reports whether
// the supervisor must run again. A publish failure landing between the
// successful dial and the guard release had its trigger coalesced into
// this supervisor; re-checking the flag here picks that trigger up
// instead of losing it with no supervisor left in flight.
func (p *Publisher) releaseAndRecheck() bool {
	p.reconnecting.Store(false)
	if p.Connected() {
		return false
	}
	return p.reconnecting.CompareAndSwap(false, true)
}

// TriggerReconnect starts the reconnect supervisor unless one is
// already in flight; concurrent triggers collapse into a no-op.
func (p *Publisher) TriggerReconnect() {
	if !p.Enabled() {
		return
	}
	if !p.reconnecting.CompareAndSwap(false, true) {
		return
	}

	p.logger.Warn().Msg("nats connection lost, attempting to reconnect")
	go p.supervise()
}

// Publish emits one domain event. Every failure path is logged and
// swallowed; callers never see an error and the originating request is
// never affected by broker state.
func (p *Publisher) Publish(eventType string, todo *models.Todo) {
	p.mu.RLock()
	nc := p.nc
	p.mu.RUnlock()

	if nc == nil || !p.connected.Load() {
		p.logger.Warn().
			Str("type", eventType).
			Msg("nats not connected, skipping publish")
		return
	}

	payload, err := json.Marshal(newEnvelope(eventType, todo))
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("type", eventType).
			Msg("failed to marshal event")
		return
	}

	err = nc.Publish(p.cfg.Subject, payload)
	if err != nil {
		p.connected.Store(false)
		p.logger.Error().
			Err(err).
			Str("type", eventType).
			Msg("failed to publish event")
		p.TriggerReconnect()
		return
	}

	p.logger.Debug().
		Str("type", eventType).
		Str("subject", p.cfg.Subject).
		Msg("published event")
}

func newEnvelope(eventType string, todo *models.Todo) envelope {
	return envelope{
		Type: eventType,
		Data: todo,
		Meta: meta{
			Source:    envelopeSource,
			Version:   envelopeVersion,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

func (p *Publisher) Close() {
	p.mu.Lock()
	nc := p.nc
	p.nc = nil
	p.mu.Unlock()

	if nc == nil {
		return
	}
	if err := nc.Drain(); err != nil {
		p.logger.Error().
			Err(err).
			Msg("failed to drain nats connection")
	}
	p.connected.Store(false)
	p.logger.Info().Msg("disconnected from nats")
}
