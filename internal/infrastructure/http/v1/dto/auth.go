// Package dto provides data transfer objects for HTTP API.
package dto

import (
	"time"

	"crmapi/internal/domain/auth"
)

// LoginRequest for user login. OrganizationID picks the organization the
// token is issued for; the first membership is used when empty.
type LoginRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	OrganizationID string `json:"organization_id,omitempty" binding:"omitempty,uuid"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		Email:    r.Email,
		Password: r.Password,
		OrgID:    r.OrganizationID,
	}
}

// TokenResponse represents an issued access token.
type TokenResponse struct {
	AccessToken    string    `json:"access_token"`
	TokenType      string    `json:"token_type"`
	ExpiresAt      time.Time `json:"expires_at"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Permissions    []string  `json:"permissions"`
}

// FromToken creates response from domain token.
func FromToken(t *auth.Token) *TokenResponse {
	perms := t.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &TokenResponse{
		AccessToken:    t.AccessToken,
		TokenType:      t.TokenType,
		ExpiresAt:      t.ExpiresAt,
		OrganizationID: t.OrgID,
		Permissions:    perms,
	}
}

// MeResponse describes the caller as seen by the API.
type MeResponse struct {
	UserID         string   `json:"user_id"`
	Email          string   `json:"email"`
	OrganizationID string   `json:"organization_id,omitempty"`
	Organizations  []string `json:"organizations"`
	Roles          []string `json:"roles"`
	Permissions    []string `json:"permissions"`
	IsAdmin        bool     `json:"is_admin"`
}
