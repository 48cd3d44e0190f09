package auth

import (
	"time"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
)

// StatusActive is the status of users allowed to log in.
const StatusActive = "active"

// User represents a system user.
type User struct {
	ID           id.ID     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CanLogin checks if user can login.
func (u *User) CanLogin() error {
	if u.Status != StatusActive {
		return apperror.NewForbidden("account is disabled")
	}
	return nil
}

// Membership is an active user/organization link with the role's permissions.
type Membership struct {
	OrgID       id.ID     `db:"org_id" json:"org_id"`
	RoleName    string    `db:"role_name" json:"role"`
	Permissions []string  `db:"permissions" json:"permissions"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// Credentials for login. OrgID selects the organization to act in; the
// earliest membership is used when it is empty.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OrgID    string `json:"org_id,omitempty"`
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	OrgID       string    `json:"org_id,omitempty"`
	Permissions []string  `json:"permissions"`
}
