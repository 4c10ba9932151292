package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"todobackend/internal/models"
	"todobackend/internal/services"
)

type todoResponse struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newTodoResponse(todo *models.Todo) todoResponse {
	return todoResponse{
		ID:        todo.ID,
		Text:      todo.Text,
		Done:      todo.Done,
		CreatedAt: todo.CreatedAt,
		UpdatedAt: todo.UpdatedAt,
	}
}

func parseTodoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, newBadRequestError(msgInvalidID))
		return 0, false
	}
	return id, true
}

func (h *handlerImpl) HandleGetTodos(c *gin.Context) {
	todos := h.todos.GetAll(c)

	response := make([]todoResponse, len(todos))
	for i := range todos {
		response[i] = newTodoResponse(&todos[i])
	}

	logger := h.requestLogger(c)
	logger.Debug().
		Int("count", len(response)).
		Msg("fetched todos")
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTodo(c *gin.Context) {
	id, ok := parseTodoID(c)
	if !ok {
		return
	}

	todo, err := h.todos.GetByID(c, id)
	if err != nil {
		if errors.Is(err, services.ErrTodoNotFound) {
			abort(c, newNotFoundError(msgTodoNotFound))
			return
		}

		logger := h.requestLogger(c)
		logger.Error().
			Err(err).
			Msg("failed to fetch todo")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, newTodoResponse(todo))
}

type createTodoRequest struct {
	Text string `json:"text"`
}

func (h *handlerImpl) HandleCreateTodo(c *gin.Context) {
	logger := h.requestLogger(c)

	var req createTodoRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(models.ErrEmptyText.Error()))
		return
	}

	text, err := models.ValidateText(req.Text)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("rejected todo text")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	todo, persisted := h.todos.Create(c, text)
	logger.Info().
		Int64("todo_id", todo.ID).
		Bool("persisted", persisted).
		Msg("created todo")
	c.JSON(http.StatusCreated, newTodoResponse(todo))
}

func (h *handlerImpl) HandleMarkTodoDone(c *gin.Context) {
	id, ok := parseTodoID(c)
	if !ok {
		return
	}

	todo, persisted, err := h.todos.MarkDone(c, id)
	if err != nil {
		if errors.Is(err, services.ErrTodoNotFound) {
			abort(c, newNotFoundError(msgTodoNotFound))
			return
		}

		logger := h.requestLogger(c)
		logger.Error().
			Err(err).
			Msg("failed to mark todo done")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	logger := h.requestLogger(c)
	logger.Info().
		Int64("todo_id", todo.ID).
		Bool("persisted", persisted).
		Msg("marked todo done")
	c.JSON(http.StatusOK, newTodoResponse(todo))
}

func (h *handlerImpl) HandleDeleteTodo(c *gin.Context) {
	id, ok := parseTodoID(c)
	if !ok {
		return
	}

	todo, persisted, err := h.todos.DeleteByID(c, id)
	if err != nil {
		if errors.Is(err, services.ErrTodoNotFound) {
			abort(c, newNotFoundError(msgTodoNotFound))
			return
		}

		logger := h.requestLogger(c)
		logger.Error().
			Err(err).
			Msg("failed to delete todo")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	logger := h.requestLogger(c)
	logger.Info().
		Int64("todo_id", todo.ID).
		Bool("persisted", persisted).
		Msg("deleted todo")
	c.Status(http.StatusNoContent)
}
