package v1

import (
	"github.com/gin-gonic/gin"

	"crmapi/internal/infrastructure/http/v1/middleware"
)

// CRUDRouteHandler defines the handlers of a standard resource.
type CRUDRouteHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// ListRouteHandler is an optional interface for resources with a list endpoint.
type ListRouteHandler interface {
	List(c *gin.Context)
}

// HistoryRouteHandler is an optional interface for audited resources.
type HistoryRouteHandler interface {
	History(c *gin.Context)
}

// RegisterCRUDRoutes registers create/get/update/delete routes guarded by
// "<resource>:<action>" permissions. Optional handler interfaces add the
// list and history routes.
//
// Usage:
//
//	handler := handlers.NewContactHandler(baseHandler, service)
//	RegisterCRUDRoutes(v1.Group("/contacts"), handler, "contacts")
func RegisterCRUDRoutes(group *gin.RouterGroup, handler CRUDRouteHandler, resource string) {
	if lister, ok := handler.(ListRouteHandler); ok {
		group.GET("", middleware.RequirePermission(resource+":read"), lister.List)
	}
	group.POST("", middleware.RequirePermission(resource+":create"), handler.Create)
	group.GET("/:id", middleware.RequirePermission(resource+":read"), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(resource+":update"), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(resource+":delete"), handler.Delete)

	if h, ok := handler.(HistoryRouteHandler); ok {
		group.GET("/:id/history", middleware.RequirePermission(resource+":read"), h.History)
	}
}
