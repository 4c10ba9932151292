package services

import (
	"context"
	"errors"

	"todobackend/internal/models"
)

var ErrTodoNotFound = errors.New("todo not found")

// TodoService is the single entry point for record operations. It
// routes each call to the database when it is available and falls
// through to the fallback cache otherwise, so callers are never blocked
// by database flakiness.
type TodoService interface {
	// GetAll returns every todo from whichever store is authoritative.
	GetAll(ctx context.Context) []models.Todo

	// GetByID returns ErrTodoNotFound if the id is absent from the
	// authoritative store.
	GetByID(ctx context.Context, id int64) (*models.Todo, error)

	// Create inserts a pre-validated todo and reports whether it was
	// persisted to the database. Only persisted creates emit an event.
	Create(ctx context.Context, text string) (*models.Todo, bool)

	// MarkDone sets done=true. It is idempotent and returns
	// ErrTodoNotFound if the id is absent. Only persisted updates
	// emit an event.
	MarkDone(ctx context.Context, id int64) (*models.Todo, bool, error)

	// DeleteByID removes a todo, returning the deleted record or
	// ErrTodoNotFound. A second delete of the same id also reports
	// ErrTodoNotFound.
	DeleteByID(ctx context.Context, id int64) (*models.Todo, bool, error)
}

// StatusService reports backend availability for the status and
// health endpoints.
type StatusService interface {
	Snapshot() Status

	// Health issues a live probe against the database instead of
	// trusting the cached availability flag.
	Health(ctx context.Context) Health
}

// Backend is the database-side store consumed by the services. The
// availability flag is owned by the implementation; the services only
// read it.
type Backend interface {
	Enabled() bool
	Available() bool
	Ping(ctx context.Context) error

	SelectAll(ctx context.Context) ([]models.Todo, error)
	SelectByID(ctx context.Context, id int64) (*models.Todo, error)
	Insert(ctx context.Context, text string) (*models.Todo, error)
	MarkDone(ctx context.Context, id int64) (*models.Todo, error)
	DeleteByID(ctx context.Context, id int64) (*models.Todo, error)
}

// EventPublisher emits best-effort domain events for persisted
// mutations.
type EventPublisher interface {
	Publish(eventType string, todo *models.Todo)
	Connected() bool
	Enabled() bool
}

type Status struct {
	TodoCount     int
	DBConnected   bool
	NATSConnected bool
}

const (
	HealthOK          = "ok"
	HealthUnavailable = "unavailable"

	HealthDBConnected = "connected"
	HealthDBDisabled  = "disabled"
	HealthDBError     = "error"
)

type Health struct {
	Status string
	DB     string
}
