package main

import (
	"io/fs"

	"github.com/addisrender/backend/internal/guard"
	"github.com/addisrender/backend/internal/handlers"
	"github.com/addisrender/backend/internal/middleware"
	"github.com/addisrender/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiters: tight for credential and contact endpoints, wider
	// for uploads.
	authLimiter := middleware.NewRateLimiter(5, 10)
	contactLimiter := middleware.NewRateLimiter(2, 5)
	uploadLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/signup", svc.authHandler.Signup)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Public content
		api.GET("/services", svc.catalogHandler.ListServices)
		api.GET("/portfolio", svc.catalogHandler.ListProjects)
		api.GET("/plans", svc.quoteHandler.Plans)
		api.GET("/quotes/options", svc.quoteHandler.Options)
		api.POST("/contact", contactLimiter.Middleware(), svc.contactHandler.Submit)

		// SSE (token validated inside the handler; EventSource cannot
		// set headers)
		api.GET("/events", svc.eventsHandler.StreamEvents)
		api.GET("/events/services", svc.eventsHandler.StreamServiceEvents)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			protected.GET("/profile", svc.profileHandler.Get)
			protected.PUT("/profile", svc.profileHandler.Update)

			protected.POST("/quotes", uploadLimiter.Middleware(), svc.quoteHandler.Submit)
			protected.GET("/quotes/mine", svc.quoteHandler.ListMine)
		}

		// Admin only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/stats", svc.adminHandler.Stats)

			admin.GET("/users", svc.adminHandler.ListUsers)
			admin.PUT("/users/:id/active", svc.adminHandler.SetUserActive)

			admin.GET("/files", svc.adminHandler.ListFiles)
			admin.GET("/files/:id/url", svc.adminHandler.FileURL)
			admin.DELETE("/files/:id", svc.adminHandler.DeleteFile)

			admin.GET("/contacts", svc.adminHandler.ListContacts)
			admin.PUT("/contacts/:id/status", svc.adminHandler.UpdateContactStatus)

			admin.GET("/services", svc.adminHandler.ListAllServices)
			admin.POST("/services", svc.adminHandler.CreateService)
			admin.PUT("/services/:id", svc.adminHandler.UpdateService)
			admin.DELETE("/services/:id", svc.adminHandler.DeleteService)

			admin.GET("/projects", svc.adminHandler.ListAllProjects)
			admin.POST("/projects", svc.adminHandler.CreateProject)
			admin.PUT("/projects/:id", svc.adminHandler.UpdateProject)
			admin.DELETE("/projects/:id", svc.adminHandler.DeleteProject)
		}
	}

	registerPages(r)
}

// registerPages wires the navigable pages. Every declared page goes
// through the access guard before a byte of content is written, so a
// denied visitor gets a redirect, never a flash of protected markup.
func registerPages(r *gin.Engine) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logger.Warn().Err(err).Msg("embedded static assets unavailable")
		return
	}

	serveIndex := func(c *gin.Context) {
		data, readErr := fs.ReadFile(staticFS, "index.html")
		if readErr != nil {
			c.String(404, "index.html not found")
			return
		}
		c.Data(200, "text/html; charset=utf-8", data)
	}

	for path, req := range guard.Pages() {
		r.GET(path, middleware.PageGuard(req), serveIndex)
	}

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path[1:]

		data, readErr := fs.ReadFile(staticFS, path)
		if readErr != nil {
			// Unknown paths resolve as public pages; the client shows
			// its not-found view.
			serveIndex(c)
			return
		}
		c.Data(200, contentTypeFor(path), data)
	})
}

func contentTypeFor(path string) string {
	if len(path) < 4 {
		return "application/octet-stream"
	}
	switch path[len(path)-3:] {
	case ".js":
		return "application/javascript"
	case "css":
		return "text/css"
	case "tml":
		return "text/html"
	case "son":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "ico":
		return "image/x-icon"
	}
	return "application/octet-stream"
}
