package handlers

import (
	"net/http"
	"time"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// HealthReporter describes the state of the server's optional dependencies.
type HealthReporter func() map[string]interface{}

type SystemHandler struct {
	capabilities service.Capabilities
	health       HealthReporter
}

// Capabilities reports which features the connected schema supports
func (h *SystemHandler) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, h.capabilities)
}

func (h *SystemHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	}
	if h.health != nil {
		for k, v := range h.health() {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}
