// Package customfield_repo provides PostgreSQL persistence for the custom
// field registry and the per-contact typed values.
package customfield_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"crmapi/internal/domain/customfield"
	"crmapi/internal/infrastructure/storage/postgres"
)

const fieldsTable = "custom_fields"

var (
	_ customfield.Repository = (*FieldRepo)(nil)
	_ customfield.Source     = (*FieldRepo)(nil)
)

// FieldRepo persists registry rows.
type FieldRepo struct {
	*postgres.BaseRepo[*customfield.Field]
}

// NewFieldRepo creates a new registry repository.
func NewFieldRepo(txManager *postgres.TxManager) *FieldRepo {
	return &FieldRepo{
		BaseRepo: postgres.NewBaseRepo(
			txManager,
			fieldsTable,
			postgres.ExtractDBColumns[customfield.Field](),
			func() *customfield.Field { return &customfield.Field{} },
		),
	}
}

func (r *FieldRepo) listQuery(module string, includeInactive bool) squirrel.SelectBuilder {
	q := r.BaseSelect().
		Where(squirrel.Eq{"module": module}).
		OrderBy("display_order", "label")
	if !includeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return q
}

// List implements customfield.Repository.
func (r *FieldRepo) List(ctx context.Context, module string, includeInactive bool) ([]*customfield.Field, error) {
	fields, err := r.FindAll(ctx, r.listQuery(module, includeInactive))
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = []*customfield.Field{}
	}
	return fields, nil
}

// ActiveFields implements customfield.Source.
func (r *FieldRepo) ActiveFields(ctx context.Context, module string) ([]*customfield.Field, error) {
	return r.List(ctx, module, false)
}

// GetByName implements customfield.Repository.
func (r *FieldRepo) GetByName(ctx context.Context, module, fieldName string) (*customfield.Field, error) {
	return r.FindOne(ctx, r.BaseSelect().
		Where(squirrel.Eq{"module": module, "field_name": fieldName, "is_active": true}).
		Limit(1))
}

// ExistsByName implements customfield.Repository.
func (r *FieldRepo) ExistsByName(ctx context.Context, module, fieldName string) (bool, error) {
	return r.Exists(ctx, squirrel.Eq{"module": module, "field_name": fieldName})
}
