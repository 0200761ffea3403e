package handlers

import (
	"github.com/addisrender/backend/internal/middleware"
	"github.com/addisrender/backend/internal/services"
	"github.com/addisrender/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	authService *services.AuthService
}

func NewProfileHandler(authService *services.AuthService) *ProfileHandler {
	return &ProfileHandler{authService: authService}
}

// Get returns the caller's profile
// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	user.Password = ""
	response.Success(c, user)
}

// Update applies a partial profile update
// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req services.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.UpdateProfile(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	user.Password = ""
	response.Success(c, user)
}
