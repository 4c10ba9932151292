package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"todobackend/internal/config"
	"todobackend/internal/models"
)

const createTodosTableQuery = `
CREATE TABLE IF NOT EXISTS todos (
    id SERIAL PRIMARY KEY,
    text TEXT NOT NULL,
    done BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`

// PostgresStorage owns the connection to the backing database: the
// pool, the availability flag and the reconnect supervisor. The flag is
// mutated only here; callers read it through Available and route around
// the database when it is down.
type PostgresStorage struct {
	logger zerolog.Logger
	cfg    config.PostgresConfig
	strict bool

	pool *pgxpool.Pool

	available    atomic.Bool
	reconnecting atomic.Bool

	// onReady receives the full record set loaded after a successful
	// (re)connect, so the fallback cache can be primed with it.
	onReady func([]models.Todo)
}

func NewPostgresStorage(
	logger zerolog.Logger,
	cfg config.PostgresConfig,
	strict bool,
) *PostgresStorage {
	return &PostgresStorage{
		logger: logger,
		cfg:    cfg,
		strict: strict,
	}
}

// OnReady registers the snapshot hook. Must be called before Connect.
func (s *PostgresStorage) OnReady(fn func([]models.Todo)) {
	s.onReady = fn
}

// Enabled reports whether the database was configured at all. When
// false the backend runs on the fallback cache for its whole lifetime.
func (s *PostgresStorage) Enabled() bool {
	return s.cfg.Enabled()
}

// Available reports whether the last known state of the connection is
// usable. It is flipped false by any failed operation and true only by
// a successful connect.
func (s *PostgresStorage) Available() bool {
	return s.available.Load()
}

// Open builds the connection pool. pgxpool connects lazily, so errors
// here mean a malformed configuration, not an unreachable server.
func (s *PostgresStorage) Open() error {
	connURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.cfg.Username, s.cfg.Password, s.cfg.Host,
		s.cfg.Port, s.cfg.Database, s.cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = s.cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return fmt.Errorf("create postgres pool: %w", err)
	}

	s.pool = pool
	return nil
}

// Connect runs the connection supervisor unless one is already in
// flight: ensure the schema exists, load the current record set and
// flip the availability flag. In strict mode each pass retries up to
// the configured budget with a fixed delay; otherwise it tries exactly
// once. Retries run to exhaustion, there is no cancellation of an
// in-flight loop.
func (s *PostgresStorage) Connect(ctx context.Context) {
	if !s.reconnecting.CompareAndSwap(false, true) {
		return
	}
	s.supervise(ctx)
}

// supervise holds the reconnect guard through the retry loop and, on
// success, through the handoff back to steady state.
func (s *PostgresStorage) supervise(ctx context.Context) {
	for {
		if !s.connectWithRetry(ctx) {
			s.reconnecting.Store(false)
			return
		}
		if !s.releaseAndRecheck() {
			return
		}
	}
}

// connectWithRetry reports whether a connect attempt succeeded within
// the retry budget.
func (s *PostgresStorage) connectWithRetry(ctx context.Context) bool {
	attempts := 1
	if s.strict && s.cfg.RetryAttempts > 1 {
		attempts = s.cfg.RetryAttempts
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.connectOnce(ctx)
		if err == nil {
			s.available.Store(true)
			s.logger.Info().
				Int("attempt", attempt).
				Str("host", s.cfg.Host).
				Int("port", s.cfg.Port).
				Msg("db ready")
			return true
		}

		s.available.Store(false)
		s.logger.Error().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("db init failed")

		if attempt == attempts {
			s.logger.Error().
				Bool("strict", s.strict).
				Msg("giving up on db, serving from fallback cache")
			return false
		}
		time.Sleep(s.cfg.RetryDelay)
	}
	return false
}

// releaseAndRecheck hands the reconnect guard back and reports whether
// the supervisor must run again. An operation failure landing between
// the successful connect and the guard release had its trigger
// coalesced into this supervisor; re-checking the flag here picks that
// trigger up instead of losing it with no supervisor left in flight.
func (s *PostgresStorage) releaseAndRecheck() bool {
	s.reconnecting.Store(false)
	if s.Available() {
		return false
	}
	return s.reconnecting.CompareAndSwap(false, true)
}

func (s *PostgresStorage) connectOnce(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createTodosTableQuery)
	if err != nil {
		return fmt.Errorf("ensure todos table: %w", err)
	}

	todos, err := s.selectAll(ctx)
	if err != nil {
		return fmt.Errorf("load todos: %w", err)
	}

	if s.onReady != nil {
		s.onReady(todos)
	}
	s.logger.Info().
		Int("count", len(todos)).
		Msg("loaded todos from db")
	return nil
}

// TriggerReconnect starts the reconnect supervisor unless one is
// already in flight; concurrent triggers collapse into a no-op.
func (s *PostgresStorage) TriggerReconnect() {
	if s.pool == nil {
		return
	}
	if !s.reconnecting.CompareAndSwap(false, true) {
		return
	}

	s.logger.Warn().Msg("db connection lost, attempting to reconnect")
	go s.supervise(context.Background())
}

// fail records an operation failure: flip the flag, log the error with
// its SQLSTATE class when it is a connectivity one, kick the supervisor.
func (s *PostgresStorage) fail(op string, err error) {
	s.available.Store(false)

	evt := s.logger.Error().Err(err).Str("op", op)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		evt = evt.Str("pg_code", pgErr.Code).
			Bool("connection_error", pgerrcode.IsConnectionException(pgErr.Code))
	}
	evt.Msg("db query failed")

	s.TriggerReconnect()
}

func (s *PostgresStorage) SelectAll(ctx context.Context) ([]models.Todo, error) {
	todos, err := s.selectAll(ctx)
	if err != nil {
		s.fail("select_all", err)
		return nil, err
	}
	return todos, nil
}

func (s *PostgresStorage) selectAll(ctx context.Context) ([]models.Todo, error) {
	const selectTodosQuery = `
SELECT id, text, done, created_at, updated_at
FROM todos
ORDER BY id ASC
`
	rows, err := s.pool.Query(ctx, selectTodosQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		var todo models.Todo
		err = rows.Scan(
			&todo.ID,
			&todo.Text,
			&todo.Done,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		todo.CreatedAt = todo.CreatedAt.UTC()
		todo.UpdatedAt = todo.UpdatedAt.UTC()
		todos = append(todos, todo)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return todos, nil
}

func (s *PostgresStorage) SelectByID(ctx context.Context, id int64) (*models.Todo, error) {
	const selectTodoByIDQuery = `
SELECT id, text, done, created_at, updated_at
FROM todos
WHERE id = $1
`
	todo, err := s.scanTodo(s.pool.QueryRow(ctx, selectTodoByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.fail("select_by_id", err)
		return nil, err
	}
	return todo, nil
}

func (s *PostgresStorage) Insert(ctx context.Context, text string) (*models.Todo, error) {
	now := time.Now().UTC()

	const insertTodoQuery = `
INSERT INTO todos (text, done, created_at, updated_at)
VALUES ($1, false, $2, $2)
RETURNING id, text, done, created_at, updated_at
`
	todo, err := s.scanTodo(s.pool.QueryRow(ctx, insertTodoQuery, text, now))
	if err != nil {
		s.fail("insert", err)
		return nil, err
	}

	s.logger.Debug().
		Int64("todo_id", todo.ID).
		Msg("inserted todo")
	return todo, nil
}

func (s *PostgresStorage) MarkDone(ctx context.Context, id int64) (*models.Todo, error) {
	const markTodoDoneQuery = `
UPDATE todos
SET done = true,
    updated_at = $2
WHERE id = $1
RETURNING id, text, done, created_at, updated_at
`
	todo, err := s.scanTodo(s.pool.QueryRow(ctx, markTodoDoneQuery, id, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.fail("mark_done", err)
		return nil, err
	}

	s.logger.Debug().
		Int64("todo_id", todo.ID).
		Msg("marked todo done")
	return todo, nil
}

func (s *PostgresStorage) DeleteByID(ctx context.Context, id int64) (*models.Todo, error) {
	const deleteTodoQuery = `
DELETE FROM todos
WHERE id = $1
RETURNING id, text, done, created_at, updated_at
`
	todo, err := s.scanTodo(s.pool.QueryRow(ctx, deleteTodoQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.fail("delete_by_id", err)
		return nil, err
	}

	s.logger.Debug().
		Int64("todo_id", todo.ID).
		Msg("deleted todo")
	return todo, nil
}

// Ping issues the liveness probe for the deep health check. Unlike the
// record operations it does not flip the availability flag; it exists
// to catch staleness between the flag and the true connection state.
func (s *PostgresStorage) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres pool is not initialized")
	}

	var one int
	return s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func (s *PostgresStorage) Close() {
	if s.pool == nil {
		return
	}
	s.pool.Close()
	s.logger.Info().Msg("disconnected from postgres")
}

func (s *PostgresStorage) scanTodo(row pgx.Row) (*models.Todo, error) {
	var todo models.Todo
	err := row.Scan(
		&todo.ID,
		&todo.Text,
		&todo.Done,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	return &todo, nil
}
