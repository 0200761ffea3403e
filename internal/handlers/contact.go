package handlers

import (
	"github.com/addisrender/backend/internal/services"
	"github.com/addisrender/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(db *gorm.DB) *ContactHandler {
	return &ContactHandler{contactService: services.NewContactService(db)}
}

// Service exposes the underlying contact service for wiring.
func (h *ContactHandler) Service() *services.ContactService {
	return h.contactService
}

// Submit records an inbound contact form message
// POST /api/contact
func (h *ContactHandler) Submit(c *gin.Context) {
	var req services.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	submission, err := h.contactService.Submit(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": submission.ID})
}
