package customfield

import (
	"context"

	"crmapi/internal/core/id"
	"crmapi/internal/domain"
)

// Repository persists registry rows.
type Repository interface {
	domain.Repository[*Field]

	// List returns the fields of module ordered by display_order, label.
	List(ctx context.Context, module string, includeInactive bool) ([]*Field, error)

	// GetByName returns the active field with the given name.
	GetByName(ctx context.Context, module, fieldName string) (*Field, error)

	// ExistsByName checks for any field (active or not) with this name.
	ExistsByName(ctx context.Context, module, fieldName string) (bool, error)
}

// ValueRepository persists contact_custom_values rows.
type ValueRepository interface {
	// Upsert inserts or replaces the value for (contact_id, custom_field_id).
	Upsert(ctx context.Context, v *Value) error

	// ListByContact returns the values of one contact for active fields.
	ListByContact(ctx context.Context, contactID id.ID) ([]ContactValue, error)

	Delete(ctx context.Context, contactID, fieldID id.ID) error
}

// Source supplies the active registry fields of a module. The cached
// registry and the repository both satisfy it.
type Source interface {
	ActiveFields(ctx context.Context, module string) ([]*Field, error)
}
