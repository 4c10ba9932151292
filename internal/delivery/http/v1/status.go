package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todobackend/internal/services"
)

type statusResponse struct {
	TodoCount     int  `json:"todos_count"`
	DBConnected   bool `json:"db_connected"`
	NATSConnected bool `json:"nats_connected"`
}

func (h *handlerImpl) HandleStatus(c *gin.Context) {
	snapshot := h.status.Snapshot()
	c.JSON(http.StatusOK, statusResponse{
		TodoCount:     snapshot.TodoCount,
		DBConnected:   snapshot.DBConnected,
		NATSConnected: snapshot.NATSConnected,
	})
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	health := h.status.Health(c)

	code := http.StatusOK
	if health.Status == services.HealthUnavailable {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, healthResponse{
		Status: health.Status,
		DB:     health.DB,
	})
}
