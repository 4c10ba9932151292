package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"todobackend/internal/events"
	"todobackend/internal/models"
	"todobackend/internal/storage"
)

type todoServiceImpl struct {
	logger zerolog.Logger
	db     Backend
	cache  *storage.MemoryStorage
	events EventPublisher
}

func NewTodoService(
	logger zerolog.Logger,
	db Backend,
	cache *storage.MemoryStorage,
	publisher EventPublisher,
) TodoService {
	return &todoServiceImpl{
		logger: logger,
		db:     db,
		cache:  cache,
		events: publisher,
	}
}

func (s *todoServiceImpl) GetAll(ctx context.Context) []models.Todo {
	if s.db.Available() {
		todos, err := s.db.SelectAll(ctx)
		if err == nil {
			if todos == nil {
				todos = []models.Todo{}
			}
			return todos
		}
		s.fallingBack("get_all", err)
	}
	return s.cache.All()
}

func (s *todoServiceImpl) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	if s.db.Available() {
		todo, err := s.db.SelectByID(ctx, id)
		if err == nil {
			return todo, nil
		}
		if errors.Is(err, storage.ErrNotFound) {
			// The database is authoritative: absence there is final,
			// not a reason to consult the cache.
			return nil, ErrTodoNotFound
		}
		s.fallingBack("get_by_id", err)
	}

	todo := s.cache.GetByID(id)
	if todo == nil {
		return nil, ErrTodoNotFound
	}
	return todo, nil
}

func (s *todoServiceImpl) Create(ctx context.Context, text string) (*models.Todo, bool) {
	if s.db.Available() {
		todo, err := s.db.Insert(ctx, text)
		if err == nil {
			s.logger.Info().
				Int64("todo_id", todo.ID).
				Msg("created todo")
			s.events.Publish(events.TodoCreated, todo)
			return todo, true
		}
		s.fallingBack("create", err)
	}

	todo := s.cache.Insert(text)
	s.logger.Warn().
		Int64("todo_id", todo.ID).
		Msg("todo created in-memory, skipping event publish")
	return todo, false
}

func (s *todoServiceImpl) MarkDone(ctx context.Context, id int64) (*models.Todo, bool, error) {
	if s.db.Available() {
		todo, err := s.db.MarkDone(ctx, id)
		if err == nil {
			s.logger.Info().
				Int64("todo_id", todo.ID).
				Msg("marked todo done")
			s.events.Publish(events.TodoUpdated, todo)
			return todo, true, nil
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, ErrTodoNotFound
		}
		s.fallingBack("mark_done", err)
	}

	todo := s.cache.MarkDone(id)
	if todo == nil {
		return nil, false, ErrTodoNotFound
	}
	s.logger.Warn().
		Int64("todo_id", todo.ID).
		Msg("todo updated in-memory, skipping event publish")
	return todo, false, nil
}

func (s *todoServiceImpl) DeleteByID(ctx context.Context, id int64) (*models.Todo, bool, error) {
	if s.db.Available() {
		todo, err := s.db.DeleteByID(ctx, id)
		if err == nil {
			s.logger.Info().
				Int64("todo_id", todo.ID).
				Msg("deleted todo")
			return todo, true, nil
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, ErrTodoNotFound
		}
		s.fallingBack("delete_by_id", err)
	}

	todo := s.cache.DeleteByID(id)
	if todo == nil {
		return nil, false, ErrTodoNotFound
	}
	return todo, false, nil
}

// fallingBack logs the transition for one request that hit a database
// failure mid-operation. The connector already flipped its flag and
// kicked its supervisor; this request completes against the cache.
func (s *todoServiceImpl) fallingBack(op string, err error) {
	s.logger.Warn().
		Err(err).
		Str("op", op).
		Msg("db operation failed, serving from fallback cache")
}
