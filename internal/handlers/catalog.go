package handlers

import (
	"github.com/addisrender/backend/internal/services"
	"github.com/addisrender/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CatalogHandler serves the public marketing content: the service
// catalog and the published portfolio.
type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{catalogService: services.NewCatalogService(db)}
}

// Service exposes the underlying catalog service for wiring.
func (h *CatalogHandler) Service() *services.CatalogService {
	return h.catalogService
}

// ListServices returns the active service offerings
// GET /api/services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	offerings, err := h.catalogService.ListServices()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, offerings)
}

// ListProjects returns the published portfolio
// GET /api/projects
func (h *CatalogHandler) ListProjects(c *gin.Context) {
	projects, err := h.catalogService.ListProjects()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, projects)
}
