package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"crmapi/internal/core/apperror"
	appctx "crmapi/internal/core/context"
	"crmapi/internal/domain/auth"
	"crmapi/internal/infrastructure/http/v1/dto"
)

// Authenticator issues tokens for credentials.
type Authenticator interface {
	Login(ctx context.Context, creds auth.Credentials) (*auth.Token, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service Authenticator
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service Authenticator) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromToken(token))
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}

	h.OK(c, dto.MeResponse{
		UserID:         user.UserID,
		Email:          user.Email,
		OrganizationID: user.OrgID,
		Organizations:  nonNil(user.OrgIDs),
		Roles:          nonNil(user.Roles),
		Permissions:    nonNil(user.Permissions),
		IsAdmin:        user.IsAdmin,
	})
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/login", h.Login)
	protected.GET("/me", h.Me)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
