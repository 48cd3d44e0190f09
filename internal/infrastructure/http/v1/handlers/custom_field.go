package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"crmapi/internal/core/id"
	"crmapi/internal/domain/customfield"
	"crmapi/internal/infrastructure/http/v1/dto"
)

// CustomFieldService is the registry surface used by the handler.
type CustomFieldService interface {
	Create(ctx context.Context, in customfield.CreateInput) (*customfield.Field, error)
	GetByID(ctx context.Context, fieldID id.ID) (*customfield.Field, error)
	Update(ctx context.Context, fieldID id.ID, in customfield.UpdateInput) (*customfield.Field, error)
	Delete(ctx context.Context, fieldID id.ID) error
	List(ctx context.Context, module string, includeInactive bool) ([]*customfield.Field, error)
}

// CustomFieldHandler handles the custom field registry endpoints.
type CustomFieldHandler struct {
	*BaseHandler
	service CustomFieldService
}

// NewCustomFieldHandler creates a new custom field handler.
func NewCustomFieldHandler(base *BaseHandler, service CustomFieldService) *CustomFieldHandler {
	return &CustomFieldHandler{BaseHandler: base, service: service}
}

// List handles GET /custom-fields
func (h *CustomFieldHandler) List(c *gin.Context) {
	var q dto.CustomFieldListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	fields, err := h.service.List(c.Request.Context(), q.Module, q.IncludeInactive)
	if err != nil {
		h.Error(c, err)
		return
	}
	if fields == nil {
		fields = []*customfield.Field{}
	}
	h.OK(c, dto.NewDataResponse(fields))
}

// Create handles POST /custom-fields
func (h *CustomFieldHandler) Create(c *gin.Context) {
	var req dto.CreateCustomFieldRequest
	if !h.BindJSON(c, &req) {
		return
	}

	f, err := h.service.Create(c.Request.Context(), req.ToInput(h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, f)
}

// Get handles GET /custom-fields/:id
func (h *CustomFieldHandler) Get(c *gin.Context) {
	fieldID, ok := h.ParamID(c)
	if !ok {
		return
	}

	f, err := h.service.GetByID(c.Request.Context(), fieldID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, f)
}

// Update handles PUT /custom-fields/:id
func (h *CustomFieldHandler) Update(c *gin.Context) {
	fieldID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateCustomFieldRequest
	if !h.BindJSON(c, &req) {
		return
	}

	f, err := h.service.Update(c.Request.Context(), fieldID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, f)
}

// Delete handles DELETE /custom-fields/:id. The field is deactivated; stored
// values are kept.
func (h *CustomFieldHandler) Delete(c *gin.Context) {
	fieldID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), fieldID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
