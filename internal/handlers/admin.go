package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/addisrender/backend/internal/config"
	"github.com/addisrender/backend/internal/models"
	"github.com/addisrender/backend/internal/services"
	"github.com/addisrender/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler serves the back office: dashboard stats, user and file
// management, contact triage, and content CRUD.
type AdminHandler struct {
	adminService   *services.AdminService
	catalogService *services.CatalogService
	contactService *services.ContactService
	urlTTL         time.Duration
}

func NewAdminHandler(db *gorm.DB, store services.BlobStore, cfg *config.Config,
	catalog *services.CatalogService, contact *services.ContactService) *AdminHandler {
	return &AdminHandler{
		adminService:   services.NewAdminService(db, store),
		catalogService: catalog,
		contactService: contact,
		urlTTL:         time.Duration(cfg.Storage.URLTTLMinute) * time.Minute,
	}
}

// Stats returns dashboard counters
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// ListUsers returns registered users, newest first
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)
	users, total, err := h.adminService.ListUsers(page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"items": users, "total": total, "page": page})
}

// SetUserActive enables or disables an account
// PUT /api/admin/users/:id/active
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.adminService.SetUserActive(id, *req.Active); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "active": *req.Active})
}

// ListFiles returns uploaded quote files, newest first
// GET /api/admin/files
func (h *AdminHandler) ListFiles(c *gin.Context) {
	page, pageSize := pagination(c)
	files, total, err := h.adminService.ListFiles(page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"items": files, "total": total, "page": page})
}

// FileURL returns a time-limited link for a quote file
// GET /api/admin/files/:id/url?disposition=preview|download
func (h *AdminHandler) FileURL(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.BadRequest(c, "invalid file id")
		return
	}

	download := c.DefaultQuery("disposition", "preview") == "download"
	url, err := h.adminService.FileURL(c.Request.Context(), id, h.urlTTL, download)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.NotFound(c, "file not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"url": url, "expires_in": int(h.urlTTL.Seconds())})
}

// DeleteFile removes a quote file, blob first
// DELETE /api/admin/files/:id
func (h *AdminHandler) DeleteFile(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.BadRequest(c, "invalid file id")
		return
	}

	if err := h.adminService.DeleteFile(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.NotFound(c, "file not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// ListContacts returns contact submissions, newest first
// GET /api/admin/contacts?status=new
func (h *AdminHandler) ListContacts(c *gin.Context) {
	page, pageSize := pagination(c)
	submissions, total, err := h.contactService.List(c.Query("status"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"items": submissions, "total": total, "page": page})
}

// UpdateContactStatus moves a submission through triage
// PUT /api/admin/contacts/:id/status
func (h *AdminHandler) UpdateContactStatus(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	submission, err := h.contactService.UpdateStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrNotFound):
			response.NotFound(c, "contact submission not found")
		default:
			response.Error(c, err)
		}
		return
	}
	response.Success(c, submission)
}

// --- service offering CRUD ---

// ListAllServices returns every offering for the back office
// GET /api/admin/services
func (h *AdminHandler) ListAllServices(c *gin.Context) {
	offerings, err := h.catalogService.ListAllServices()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, offerings)
}

// CreateService adds an offering
// POST /api/admin/services
func (h *AdminHandler) CreateService(c *gin.Context) {
	var offering models.ServiceOffering
	if err := c.ShouldBindJSON(&offering); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if offering.Title == "" {
		response.BadRequest(c, "title is required")
		return
	}

	if err := h.catalogService.CreateService(&offering); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// UpdateService changes an offering
// PUT /api/admin/services/:id
func (h *AdminHandler) UpdateService(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	offering, err := h.catalogService.UpdateService(id, allowedFields(updates,
		"title", "description", "icon", "plan", "sort_order", "is_active"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.NotFound(c, "service not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, offering)
}

// DeleteService removes an offering
// DELETE /api/admin/services/:id
func (h *AdminHandler) DeleteService(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}

	if err := h.catalogService.DeleteService(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.NotFound(c, "service not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// --- portfolio CRUD ---

// ListAllProjects returns every portfolio project for the back office
// GET /api/admin/projects
func (h *AdminHandler) ListAllProjects(c *gin.Context) {
	projects, err := h.catalogService.ListAllProjects()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, projects)
}

// CreateProject adds a portfolio project
// POST /api/admin/projects
func (h *AdminHandler) CreateProject(c *gin.Context) {
	var project models.PortfolioProject
	if err := c.ShouldBindJSON(&project); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if project.Title == "" {
		response.BadRequest(c, "title is required")
		return
	}

	if err := h.catalogService.CreateProject(&project); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// UpdateProject changes a portfolio project
// PUT /api/admin/projects/:id
func (h *AdminHandler) UpdateProject(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.catalogService.UpdateProject(id, allowedFields(updates,
		"title", "description", "category", "image_url", "is_published", "sort_order"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// DeleteProject removes a portfolio project
// DELETE /api/admin/projects/:id
func (h *AdminHandler) DeleteProject(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.catalogService.DeleteProject(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// --- helpers ---

func idParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// allowedFields keeps only the whitelisted keys of a raw update payload.
func allowedFields(updates map[string]interface{}, keys ...string) map[string]interface{} {
	filtered := make(map[string]interface{}, len(updates))
	for _, key := range keys {
		if value, ok := updates[key]; ok {
			filtered[key] = value
		}
	}
	return filtered
}
