package auth

import (
	"context"

	"crmapi/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// GetByEmail retrieves user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Memberships lists the user's active organizations, oldest first.
	Memberships(ctx context.Context, userID id.ID) ([]Membership, error)
}
