package handlers

import (
	"errors"
	"net/http"

	"github.com/addisrender/backend/internal/config"
	"github.com/addisrender/backend/internal/middleware"
	"github.com/addisrender/backend/internal/services"
	"github.com/addisrender/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const RefreshTokenCookie = "refresh_token"

type AuthHandler struct {
	authService *services.AuthService
	jwtConfig   *config.JWTConfig
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT),
		jwtConfig:   &cfg.JWT,
	}
}

// Service exposes the underlying auth service for wiring.
func (h *AuthHandler) Service() *services.AuthService {
	return h.authService
}

// Signup registers a new account
// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.SignUp(&req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			response.Error(c, response.NewConflict(err.Error()))
			return
		}
		response.Error(c, err)
		return
	}

	user.Password = ""
	response.Created(c, user)
}

// Login verifies credentials and issues the session cookies
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.SignIn(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrUserDisabled) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Error(c, err)
		return
	}

	h.setSessionCookies(c, result.AccessToken, result.RefreshToken)

	result.User.Password = ""
	response.Success(c, result)
}

// Refresh rotates the refresh token and issues a new access token
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		response.Unauthorized(c, "refresh token required")
		return
	}

	result, err := h.authService.Refresh(refreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.clearSessionCookies(c)
		response.Unauthorized(c, err.Error())
		return
	}

	h.setSessionCookies(c, result.AccessToken, result.RefreshToken)
	response.Success(c, result)
}

// Logout revokes the refresh token and clears the session cookies
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	refreshToken := h.refreshTokenFrom(c)

	if err := h.authService.SignOut(userID, refreshToken); err != nil {
		response.Error(c, err)
		return
	}

	h.clearSessionCookies(c)
	response.Success(c, gin.H{"message": "logged out"})
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	user.Password = ""
	response.Success(c, user)
}

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken
	}
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		return cookie
	}
	return ""
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	accessMaxAge := h.jwtConfig.ExpireHour * 3600
	refreshMaxAge := h.jwtConfig.RefreshExpireHour * 3600

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, accessToken, accessMaxAge, "/", "", h.jwtConfig.CookieSecure, true)
	c.SetCookie(RefreshTokenCookie, refreshToken, refreshMaxAge, "/api/auth", "", h.jwtConfig.CookieSecure, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.jwtConfig.CookieSecure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/api/auth", "", h.jwtConfig.CookieSecure, true)
}
