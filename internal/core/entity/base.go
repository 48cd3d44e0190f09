// Package entity holds the fields and behaviour shared by persisted entities.
package entity

import (
	"context"
	"time"

	"crmapi/internal/core/id"
)

// Validatable is implemented by entities that check their own invariants.
// Validation never touches the database.
type Validatable interface {
	// Validate returns nil or an *apperror.AppError describing the first problem.
	Validate(ctx context.Context) error
}

// Identifiable exposes the primary key.
type Identifiable interface {
	GetID() id.ID
}

// Entity is what the generic service and repositories operate on.
type Entity interface {
	Validatable
	Identifiable
}

// Base carries the primary key, the soft-delete flag and timestamps.
type Base struct {
	ID        id.ID     `db:"id" json:"id"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewBase returns an active Base with a fresh UUIDv7 and current timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID implements Identifiable.
func (b *Base) GetID() id.ID {
	return b.ID
}

// Touch moves UpdatedAt to now.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// Deactivate soft-deletes the entity.
func (b *Base) Deactivate() {
	b.IsActive = false
	b.Touch()
}
