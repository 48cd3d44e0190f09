package contact

import (
	"context"

	"crmapi/internal/core/id"
	"crmapi/internal/domain"
	"crmapi/internal/domain/filter"
)

// Repository persists contacts.
type Repository interface {
	domain.Repository[*Contact]

	// EmailExists reports whether an active contact other than exclude uses email.
	EmailExists(ctx context.Context, email string, exclude *id.ID) (bool, error)
}

// Page is the slice of a filter result to return.
type Page struct {
	Limit     int
	Offset    int
	SortBy    *string
	SortOrder filter.SortOrder
}

// PageOf extracts paging and ordering from a request.
func PageOf(req *filter.Request) Page {
	return Page{
		Limit:     req.Limit,
		Offset:    req.Offset(),
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
}

// Executor runs a compiled predicate: one page of rows plus the total
// number of matching contacts, both read from the same snapshot.
type Executor interface {
	Execute(ctx context.Context, q filter.CompiledQuery, page Page) ([]Summary, int64, error)
}

// CustomValues reads and writes the custom-field values of contacts.
type CustomValues interface {
	SetValues(ctx context.Context, contactID id.ID, raw map[string]string) error
	Values(ctx context.Context, contactID id.ID) (map[string]any, error)
}
