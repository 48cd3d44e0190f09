package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"crmapi/internal/core/id"
	"crmapi/internal/domain/audit"
	"crmapi/internal/domain/contact"
	"crmapi/internal/infrastructure/http/v1/dto"
)

// ContactService is the contact CRUD surface used by the handler.
type ContactService interface {
	Create(ctx context.Context, in contact.Fields) (*contact.Detail, error)
	Get(ctx context.Context, contactID id.ID) (*contact.Detail, error)
	Update(ctx context.Context, contactID id.ID, in contact.Fields) (*contact.Detail, error)
	Delete(ctx context.Context, contactID id.ID) error
	History(ctx context.Context, contactID id.ID, limit int) ([]audit.Entry, error)
}

// ContactHandler handles contact CRUD endpoints.
type ContactHandler struct {
	*BaseHandler
	service ContactService
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(base *BaseHandler, service ContactService) *ContactHandler {
	return &ContactHandler{BaseHandler: base, service: service}
}

// Create handles POST /contacts
func (h *ContactHandler) Create(c *gin.Context) {
	var req dto.ContactRequest
	if !h.BindJSON(c, &req) {
		return
	}
	fields, err := req.ToFields()
	if err != nil {
		h.Error(c, err)
		return
	}

	detail, err := h.service.Create(c.Request.Context(), fields)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, detail)
}

// Get handles GET /contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	contactID, ok := h.ParamID(c)
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), contactID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// Update handles PUT /contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	contactID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.ContactRequest
	if !h.BindJSON(c, &req) {
		return
	}
	fields, err := req.ToFields()
	if err != nil {
		h.Error(c, err)
		return
	}

	detail, err := h.service.Update(c.Request.Context(), contactID, fields)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// Delete handles DELETE /contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	contactID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), contactID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// History handles GET /contacts/:id/history
func (h *ContactHandler) History(c *gin.Context) {
	contactID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Defaults()

	entries, err := h.service.History(c.Request.Context(), contactID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	h.OK(c, dto.NewDataResponse(entries))
}
