package storage

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"todobackend/internal/models"
)

// MemoryStorage is the in-process fallback used whenever postgres is
// unavailable. Todos are kept in creation order. All operations are
// purely in-memory; the only failure mode is "not found".
type MemoryStorage struct {
	logger zerolog.Logger

	mu     sync.Mutex
	todos  []models.Todo
	lastID int64
}

func NewMemoryStorage(logger zerolog.Logger) *MemoryStorage {
	return &MemoryStorage{
		logger: logger,
	}
}

func (s *MemoryStorage) All() []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos := make([]models.Todo, len(s.todos))
	copy(todos, s.todos)
	return todos
}

func (s *MemoryStorage) GetByID(id int64) *models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.todos {
		if s.todos[i].ID == id {
			todo := s.todos[i]
			return &todo
		}
	}
	return nil
}

// Insert assigns the next id as last assigned id + 1, or 1 when nothing
// has been assigned yet. Ids are never reused after deletion.
func (s *MemoryStorage) Insert(text string) *models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.lastID++
	todo := models.Todo{
		ID:        s.lastID,
		Text:      text,
		Done:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.todos = append(s.todos, todo)

	s.logger.Debug().
		Int64("todo_id", todo.ID).
		Msg("inserted todo into fallback cache")
	return &todo
}

func (s *MemoryStorage) MarkDone(id int64) *models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i].Done = true
			s.todos[i].UpdatedAt = time.Now().UTC()
			todo := s.todos[i]
			return &todo
		}
	}
	return nil
}

func (s *MemoryStorage) DeleteByID(id int64) *models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.todos {
		if s.todos[i].ID == id {
			todo := s.todos[i]
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			return &todo
		}
	}
	return nil
}

// ReplaceAll swaps the cache content for the backing store's snapshot
// after a successful (re)connect. Whatever was written to the cache
// beforehand is discarded, not reconciled into postgres; records
// created during an outage are stranded and their ids may be reissued
// by the database. Known consistency gap, kept as designed.
func (s *MemoryStorage) ReplaceAll(todos []models.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.todos = make([]models.Todo, len(todos))
	copy(s.todos, todos)

	s.lastID = 0
	if n := len(s.todos); n > 0 {
		s.lastID = s.todos[n-1].ID
	}

	s.logger.Info().
		Int("count", len(todos)).
		Msg("replaced fallback cache content")
}

func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.todos)
}
