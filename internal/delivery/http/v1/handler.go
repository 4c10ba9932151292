package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"todobackend/internal/services"
)

type Handler interface {
	HandleRequestID(c *gin.Context)

	HandleGetTodos(c *gin.Context)
	HandleGetTodo(c *gin.Context)
	HandleCreateTodo(c *gin.Context)
	HandleMarkTodoDone(c *gin.Context)
	HandleDeleteTodo(c *gin.Context)

	HandleStatus(c *gin.Context)
	HandleHealth(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	todos  services.TodoService
	status services.StatusService
}

func New(
	logger zerolog.Logger,
	todoService services.TodoService,
	statusService services.StatusService,
) Handler {
	return &handlerImpl{
		logger: logger,
		todos:  todoService,
		status: statusService,
	}
}
