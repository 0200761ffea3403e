package middleware

import (
	"net/http"
	"strings"

	"github.com/addisrender/backend/internal/guard"
	"github.com/addisrender/backend/internal/session"
	"github.com/addisrender/backend/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// AccessTokenCookie carries the access token for browser page navigation,
// where no Authorization header is available.
const AccessTokenCookie = "access_token"

// extractToken returns the access token from the Authorization header or,
// failing that, the session cookie.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// SessionState resolves the request's session snapshot. Token parsing is
// synchronous, so the state is never in loading.
func SessionState(c *gin.Context) session.State {
	token := extractToken(c)
	if token == "" {
		return session.State{}
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		// Expired or garbage token is the same as signed out.
		return session.State{}
	}

	sess := &session.Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	return session.State{
		Session: sess,
		Admin:   claims.Role == session.AdminRole,
	}
}

// AuthRequired rejects API requests without a valid token.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// AdminRequired rejects API requests whose principal lacks the admin role.
// Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists || role != session.AdminRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// PageGuard evaluates the route-access decision for a page route before any
// content is served. Denied visitors get a real 302; nothing of the page is
// written first.
func PageGuard(req guard.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := SessionState(c)
		decision := guard.Evaluate(req, state, c.Request.URL.RequestURI())

		if decision.Action == guard.Redirect {
			c.Redirect(http.StatusFound, decision.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetEmail gets the current user email from context
func GetEmail(c *gin.Context) string {
	if email, exists := c.Get(ContextEmail); exists {
		return email.(string)
	}
	return ""
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	if role, exists := c.Get(ContextRole); exists {
		return role.(string)
	}
	return ""
}
