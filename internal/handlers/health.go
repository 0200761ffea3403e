package handlers

import (
	"github.com/addisrender/backend/internal/models"
	"github.com/addisrender/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Untriaged contact submissions
	var newContacts int64
	models.GetDB().Model(&models.ContactSubmission{}).
		Where("status = ?", services.ContactStatusNew).
		Count(&newContacts)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "addisrender",
		"components": gin.H{
			"database":     dbStatus,
			"sse_clients":  services.GetEventHub().ClientCount(),
			"new_contacts": newContacts,
		},
	})
}
