package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todobackend/internal/models"
	"todobackend/internal/services"
	"todobackend/internal/storage"
)

// fakeTodoService serves records from a MemoryStorage and reports a
// configurable persisted flag, standing in for the resilient store.
type fakeTodoService struct {
	data      *storage.MemoryStorage
	persisted bool
}

func newFakeTodoService() *fakeTodoService {
	return &fakeTodoService{
		data: storage.NewMemoryStorage(zerolog.Nop()),
	}
}

func (s *fakeTodoService) GetAll(_ context.Context) []models.Todo {
	return s.data.All()
}

func (s *fakeTodoService) GetByID(_ context.Context, id int64) (*models.Todo, error) {
	todo := s.data.GetByID(id)
	if todo == nil {
		return nil, services.ErrTodoNotFound
	}
	return todo, nil
}

func (s *fakeTodoService) Create(_ context.Context, text string) (*models.Todo, bool) {
	return s.data.Insert(text), s.persisted
}

func (s *fakeTodoService) MarkDone(_ context.Context, id int64) (*models.Todo, bool, error) {
	todo := s.data.MarkDone(id)
	if todo == nil {
		return nil, false, services.ErrTodoNotFound
	}
	return todo, s.persisted, nil
}

func (s *fakeTodoService) DeleteByID(_ context.Context, id int64) (*models.Todo, bool, error) {
	todo := s.data.DeleteByID(id)
	if todo == nil {
		return nil, false, services.ErrTodoNotFound
	}
	return todo, s.persisted, nil
}

type fakeStatusService struct {
	status services.Status
	health services.Health
}

func (s *fakeStatusService) Snapshot() services.Status {
	return s.status
}

func (s *fakeStatusService) Health(_ context.Context) services.Health {
	return s.health
}

func newTestRouter(todos services.TodoService, status services.StatusService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := New(zerolog.Nop(), todos, status)

	router := gin.New()
	router.Use(handler.HandleRequestID)
	router.GET("/healthz", handler.HandleHealth)

	todosRouter := router.Group("/todos")
	todosRouter.GET("", handler.HandleGetTodos)
	todosRouter.GET("/status", handler.HandleStatus)
	todosRouter.GET("/:id", handler.HandleGetTodo)
	todosRouter.POST("", handler.HandleCreateTodo)
	todosRouter.PUT("/:id", handler.HandleMarkTodoDone)
	todosRouter.DELETE("/:id", handler.HandleDeleteTodo)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleGetTodos(t *testing.T) {
	todoService := newFakeTodoService()
	router := newTestRouter(todoService, &fakeStatusService{})

	rec := doRequest(t, router, http.MethodGet, "/todos", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	todoService.data.Insert("Buy milk")
	todoService.data.Insert("Walk dog")

	rec = doRequest(t, router, http.MethodGet, "/todos", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var todos []todoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	require.Len(t, todos, 2)
	assert.Equal(t, "Buy milk", todos[0].Text)
	assert.Equal(t, "Walk dog", todos[1].Text)
}

func TestHandleGetTodo(t *testing.T) {
	todoService := newFakeTodoService()
	inserted := todoService.data.Insert("Buy milk")
	router := newTestRouter(todoService, &fakeStatusService{})

	rec := doRequest(t, router, http.MethodGet, "/todos/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var todo todoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	assert.Equal(t, inserted.ID, todo.ID)
	assert.Equal(t, "Buy milk", todo.Text)

	rec = doRequest(t, router, http.MethodGet, "/todos/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Todo not found"}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/todos/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid ID"}`, rec.Body.String())
}

func TestHandleCreateTodo(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "valid text",
			body:     `{"text":"Buy milk"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "surrounding whitespace is trimmed",
			body:     `{"text":"  Walk dog  "}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "missing text",
			body:     `{}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "blank text",
			body:     `{"text":"   "}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "text too long",
			body:     `{"text":"` + strings.Repeat("a", 141) + `"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed json",
			body:     `{"text":`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(newFakeTodoService(), &fakeStatusService{})

			rec := doRequest(t, router, http.MethodPost, "/todos", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusCreated {
				var todo todoResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
				assert.NotZero(t, todo.ID)
				assert.False(t, todo.Done)
			}
		})
	}
}

func TestHandleCreateTodoTrimsText(t *testing.T) {
	todoService := newFakeTodoService()
	router := newTestRouter(todoService, &fakeStatusService{})

	rec := doRequest(t, router, http.MethodPost, "/todos", `{"text":"  Buy milk  "}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var todo todoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	assert.Equal(t, "Buy milk", todo.Text)
}

func TestHandleMarkTodoDone(t *testing.T) {
	todoService := newFakeTodoService()
	todoService.data.Insert("Buy milk")
	router := newTestRouter(todoService, &fakeStatusService{})

	rec := doRequest(t, router, http.MethodPut, "/todos/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var todo todoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	assert.True(t, todo.Done)

	rec = doRequest(t, router, http.MethodPut, "/todos/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/todos/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeleteTodo(t *testing.T) {
	todoService := newFakeTodoService()
	todoService.data.Insert("Buy milk")
	router := newTestRouter(todoService, &fakeStatusService{})

	rec := doRequest(t, router, http.MethodDelete, "/todos/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	// Deleting the same id again reports absence.
	rec = doRequest(t, router, http.MethodDelete, "/todos/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	statusService := &fakeStatusService{
		status: services.Status{
			TodoCount:     3,
			DBConnected:   true,
			NATSConnected: false,
		},
	}
	router := newTestRouter(newFakeTodoService(), statusService)

	rec := doRequest(t, router, http.MethodGet, "/todos/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"todos_count":3,"db_connected":true,"nats_connected":false}`, rec.Body.String())
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name     string
		health   services.Health
		wantCode int
		wantBody string
	}{
		{
			name:     "connected",
			health:   services.Health{Status: services.HealthOK, DB: services.HealthDBConnected},
			wantCode: http.StatusOK,
			wantBody: `{"status":"ok","db":"connected"}`,
		},
		{
			name:     "disabled",
			health:   services.Health{Status: services.HealthOK, DB: services.HealthDBDisabled},
			wantCode: http.StatusOK,
			wantBody: `{"status":"ok","db":"disabled"}`,
		},
		{
			name:     "unavailable",
			health:   services.Health{Status: services.HealthUnavailable, DB: services.HealthDBError},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"status":"unavailable","db":"error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(newFakeTodoService(), &fakeStatusService{health: tt.health})

			rec := doRequest(t, router, http.MethodGet, "/healthz", "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newTestRouter(newFakeTodoService(), &fakeStatusService{})

	rec := doRequest(t, router, http.MethodGet, "/todos", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req, err := http.NewRequest(http.MethodGet, "/todos", strings.NewReader(""))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "caller-supplied-id")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "caller-supplied-id", rec.Header().Get("X-Request-Id"))
}
