package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/addisrender/backend/internal/guard"
	"github.com/addisrender/backend/internal/utils"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-middleware-testing")
}

func TestAuthRequired_NoToken(t *testing.T) {
	router := gin.New()
	router.Use(AuthRequired())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	router := gin.New()
	router.Use(AuthRequired())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	testCases := []string{
		"InvalidToken",
		"Basic token123",
		"Bearer",
		"Bearer invalid.jwt.token",
	}

	for _, authHeader := range testCases {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", authHeader)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected status %d, got %d", authHeader, http.StatusUnauthorized, w.Code)
		}
	}
}

func TestAuthRequired_ValidBearerToken(t *testing.T) {
	token, _ := utils.GenerateToken(1, "user@example.com", "user", 24)

	router := gin.New()
	router.Use(AuthRequired())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id": GetUserID(c),
			"email":   GetEmail(c),
			"role":    GetRole(c),
		})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestAuthRequired_ValidCookieToken(t *testing.T) {
	token, _ := utils.GenerateToken(2, "user@example.com", "user", 24)

	router := gin.New()
	router.Use(AuthRequired())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": GetUserID(c)})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestAdminRequired_NonAdmin(t *testing.T) {
	token, _ := utils.GenerateToken(3, "user@example.com", "user", 24)

	router := gin.New()
	router.Use(AuthRequired(), AdminRequired())
	router.GET("/admin-api", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/admin-api", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestAdminRequired_Admin(t *testing.T) {
	token, _ := utils.GenerateToken(4, "admin@example.com", "admin", 24)

	router := gin.New()
	router.Use(AuthRequired(), AdminRequired())
	router.GET("/admin-api", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/admin-api", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func pageRouter(req guard.Requirement, path string) *gin.Engine {
	router := gin.New()
	router.GET(path, PageGuard(req), func(c *gin.Context) {
		c.String(200, "page content")
	})
	return router
}

func TestPageGuard_AnonymousRedirectedToLogin(t *testing.T) {
	router := pageRouter(guard.AuthRequired, "/profile")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/profile", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d", http.StatusFound, w.Code)
	}
	loc := w.Header().Get("Location")
	if loc != "/login?returnTo=%2Fprofile" {
		t.Errorf("Location = %q", loc)
	}
	// The redirect must not leak any page content
	if strings.Contains(w.Body.String(), "page content") {
		t.Error("protected content leaked on redirect")
	}
}

func TestPageGuard_AdminPageBouncesNonAdmin(t *testing.T) {
	token, _ := utils.GenerateToken(5, "user@example.com", "user", 24)
	router := pageRouter(guard.AdminRequired, "/admin")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d", http.StatusFound, w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, expected %q", loc, "/")
	}
}

func TestPageGuard_LoginBouncesSignedInUser(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"user", "/profile"},
		{"admin", "/admin"},
	}

	for _, tt := range tests {
		token, _ := utils.GenerateToken(6, "someone@example.com", tt.role, 24)
		router := pageRouter(guard.PublicOnly, "/login")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/login", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		router.ServeHTTP(w, req)

		if w.Code != http.StatusFound {
			t.Fatalf("role %s: expected status %d, got %d", tt.role, http.StatusFound, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != tt.want {
			t.Errorf("role %s: Location = %q, expected %q", tt.role, loc, tt.want)
		}
	}
}

func TestPageGuard_PublicPageRenders(t *testing.T) {
	router := pageRouter(guard.Public, "/about")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/about", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestPageGuard_ExpiredTokenTreatedAsAnonymous(t *testing.T) {
	router := pageRouter(guard.AuthRequired, "/profile")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/profile", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "not.a.token"})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Errorf("expected redirect for invalid token, got %d", w.Code)
	}
}
