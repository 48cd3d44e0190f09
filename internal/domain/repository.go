// Package domain provides the generic entity service shared by contacts and
// custom fields.
package domain

import (
	"context"

	"crmapi/internal/core/entity"
	"crmapi/internal/core/id"
)

// Repository persists one entity type.
type Repository[T entity.Entity] interface {
	Create(ctx context.Context, e T) error

	// GetByID returns an apperror NOT_FOUND error when no row matches,
	// including soft-deleted rows.
	GetByID(ctx context.Context, id id.ID) (T, error)

	Update(ctx context.Context, e T) error

	// Deactivate performs the soft delete (is_active = false).
	Deactivate(ctx context.Context, id id.ID) error
}

// --- Hooks ---

// HookEvent is a lifecycle point.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook runs at a lifecycle point. Before-hooks abort the operation by
// returning an error; after-hook errors are only logged.
type Hook[T any] func(ctx context.Context, e T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{hooks: make(map[HookEvent][]Hook[T])}
}

// On registers a hook for event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the hooks for event in registration order and stops at the
// first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, e T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
