// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"crmapi/internal/domain/contact"
	"crmapi/internal/infrastructure/http/v1/handlers"
	"crmapi/internal/infrastructure/http/v1/middleware"
	"crmapi/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Health       *handlers.HealthHandler
	Auth         handlers.Authenticator
	Contacts     handlers.ContactService
	Filter       handlers.ContactFilter
	CustomFields handlers.CustomFieldService

	// Debug switches gin to debug mode.
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	if cfg.Health != nil {
		health := router.Group("/health")
		health.GET("/live", cfg.Health.Live)
		health.GET("/ready", cfg.Health.Ready)
		health.GET("/info", cfg.Health.Info)
	}

	v1 := router.Group("/api/v1")
	base := handlers.NewBaseHandler()

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.Use(middleware.Organization())

	if cfg.Auth != nil {
		authHandler := handlers.NewAuthHandler(base, cfg.Auth)
		authHandler.RegisterRoutes(v1.Group("/auth"), protected.Group("/auth"))
	}

	contacts := protected.Group("/contacts")
	registerFilterRoutes(contacts, base, cfg)
	if cfg.Contacts != nil {
		RegisterCRUDRoutes(contacts, handlers.NewContactHandler(base, cfg.Contacts), "contacts")
	}
	if cfg.CustomFields != nil {
		RegisterCRUDRoutes(protected.Group("/custom-fields"), handlers.NewCustomFieldHandler(base, cfg.CustomFields), "custom_fields")
	}

	return router
}

// registerFilterRoutes registers the contact filter endpoints. They are
// registered before "/:id" so the static segments win.
func registerFilterRoutes(contacts *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Filter == nil {
		return
	}
	h := handlers.NewFilterHandler(base, cfg.Filter)
	read := middleware.RequirePermission(contact.PermRead)

	contacts.POST("/filter", read, h.Filter)
	contacts.POST("/filter/validate", read, h.Validate)
	contacts.GET("/filter/fields", read, h.Fields)
	contacts.GET("/filter/presets", read, h.Presets)
}
