package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"crmapi/internal/domain/contact"
	"crmapi/internal/domain/filter"
	"crmapi/internal/infrastructure/http/v1/dto"
)

// ContactFilter is the filter surface used by the handler.
type ContactFilter interface {
	Filter(ctx context.Context, req *filter.Request) (*contact.FilterResult, error)
	ValidateOnly(ctx context.Context, req *filter.Request) (*contact.ValidationReport, error)
	Fields(ctx context.Context) (*contact.FieldList, error)
	Presets() ([]filter.Preset, error)
}

// FilterHandler handles the contact filter endpoints.
type FilterHandler struct {
	*BaseHandler
	service ContactFilter
}

// NewFilterHandler creates a new filter handler.
func NewFilterHandler(base *BaseHandler, service ContactFilter) *FilterHandler {
	return &FilterHandler{BaseHandler: base, service: service}
}

// Filter handles POST /contacts/filter
func (h *FilterHandler) Filter(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	result, err := h.service.Filter(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewFilterResponse(result))
}

// Validate handles POST /contacts/filter/validate
func (h *FilterHandler) Validate(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	report, err := h.service.ValidateOnly(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewValidateResponse(report))
}

// Fields handles GET /contacts/filter/fields
func (h *FilterHandler) Fields(c *gin.Context) {
	fields, err := h.service.Fields(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDataResponse(fields))
}

// Presets handles GET /contacts/filter/presets
func (h *FilterHandler) Presets(c *gin.Context) {
	presets, err := h.service.Presets()
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewDataResponse(presets))
}

func (h *FilterHandler) bindRequest(c *gin.Context) (*filter.Request, bool) {
	var req filter.Request
	if !h.BindJSON(c, &req) {
		return nil, false
	}
	return &req, true
}
