package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gloveiq-backend/internal/models"
)

// HealthHandler reports liveness.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}
