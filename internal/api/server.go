package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/controle-cte/internal/api/handlers"
	"github.com/nexconsult/controle-cte/internal/api/middleware"
	"github.com/nexconsult/controle-cte/internal/config"
	"github.com/nexconsult/controle-cte/internal/services"
	"github.com/nexconsult/controle-cte/internal/view"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
	rateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) (*Server, error) {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	if err := server.setupRouter(); err != nil {
		return nil, err
	}
	return server, nil
}

// Close stops background work started by the server
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() error {
	s.Router = gin.New()

	// Page templates are embedded
	templates, err := view.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse page templates: %w", err)
	}
	s.Router.SetHTMLTemplate(templates)

	// Global middleware
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.Security())
	s.Router.Use(middleware.CORS(s.config.Security.CORS))

	// Shared by the browser routes and the metrics endpoint
	s.rateLimiter = middleware.NewRateLimiter(s.config.Security.RateLimit)

	// Operational endpoints (no rate limiting, no session)
	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	// Metrics
	metricsHandler := handlers.NewMetricsHandler(s.services.Metrics, s.services.Sessions, s.rateLimiter, s.logger)
	s.Router.GET("/metrics", metricsHandler.GetMetrics)

	// Embedded stylesheet and images
	s.Router.StaticFS("/static", http.FS(view.Static()))

	// Swagger documentation
	if !s.config.IsProduction() {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Browser routes carry the session cookie
	app := s.Router.Group("/")
	app.Use(s.rateLimiter.Middleware())
	app.Use(middleware.Session(s.services.Sessions, s.config.Session, s.logger))
	{
		// Login flow
		authHandler := handlers.NewAuthHandler(s.services.Auth, s.config.Session, s.config.Auth.LogoutReturnTo, s.logger)
		app.GET("/login", authHandler.Login)
		app.GET("/callback", authHandler.Callback)
		app.GET("/logout", authHandler.Logout)

		// HTML screens and their form posts
		pagesHandler := handlers.NewPagesHandler(s.services.Auth, s.services.Edits, s.logger)
		app.GET("/", pagesHandler.Index)

		records := app.Group("/records/:id")
		records.Use(middleware.RequireAuthPage(s.services.Auth))
		{
			records.POST("/edit", pagesHandler.Edit)
			records.POST("/stage", pagesHandler.Stage)
			records.POST("/save", pagesHandler.Save)
		}

		// API v1 routes
		v1 := app.Group("/api/v1")
		{
			v1.GET("/session", authHandler.Session)

			recordsHandler := handlers.NewRecordsHandler(s.services.Edits, s.services.Sessions, s.logger)
			recordsAPI := v1.Group("/records")
			recordsAPI.Use(middleware.RequireAuth(s.services.Auth))
			{
				recordsAPI.GET("", recordsHandler.List)
				recordsAPI.POST("/:id/edit", recordsHandler.Edit)
				recordsAPI.PUT("/:id/staged", recordsHandler.Stage)
				recordsAPI.POST("/:id/save", recordsHandler.Save)
			}
		}
	}

	// 404 handler
	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	// 405 handler
	s.Router.HandleMethodNotAllowed = true
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})

	return nil
}
