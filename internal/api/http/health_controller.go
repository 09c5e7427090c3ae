package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"landcharges/assist/internal/domain"
)

type HealthController struct {
	service string
}

func NewHealthController(service string) *HealthController {
	return &HealthController{service: service}
}

// Health handler для проверки работоспособности заглушки
func (h *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, domain.HealthResponse{
		Status:    domain.HealthStatusHealthy,
		Timestamp: time.Now(),
		Service:   h.service,
		Message:   "Stub is running",
	})
}
