package customfield_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"crmapi/internal/core/id"
	"crmapi/internal/domain/customfield"
	"crmapi/internal/infrastructure/storage/postgres"
)

const valuesTable = "contact_custom_values"

var _ customfield.ValueRepository = (*ValueRepo)(nil)

// valueColumns are written on insert; the typed ones are replaced on conflict.
var (
	valueColumns = postgres.ExtractDBColumns[customfield.Value]()
	typedColumns = []string{"value", "value_json", "value_number", "value_date", "value_boolean", "updated_at"}
)

// ValueRepo persists contact_custom_values rows.
type ValueRepo struct {
	txManager *postgres.TxManager
}

// NewValueRepo creates a new value repository.
func NewValueRepo(txManager *postgres.TxManager) *ValueRepo {
	return &ValueRepo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func upsertStatement(v *customfield.Value) (string, []any, error) {
	sets := make([]string, len(typedColumns))
	for i, col := range typedColumns {
		sets[i] = col + " = EXCLUDED." + col
	}
	return builder().
		Insert(valuesTable).
		SetMap(postgres.StructToMap(v)).
		Suffix("ON CONFLICT (contact_id, custom_field_id) DO UPDATE SET " + strings.Join(sets, ", ")).
		ToSql()
}

// Upsert implements customfield.ValueRepository.
func (r *ValueRepo) Upsert(ctx context.Context, v *customfield.Value) error {
	sql, args, err := upsertStatement(v)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert custom value: %w", err)
	}
	return nil
}

func listByContactQuery(contactID id.ID) squirrel.SelectBuilder {
	cols := append(postgres.QualifiedColumns[customfield.Value]("ccv"), "cf.field_name", "cf.field_type")
	return builder().
		Select(cols...).
		From(valuesTable + " ccv").
		Join(fieldsTable + " cf ON ccv.custom_field_id = cf.id").
		Where(squirrel.Eq{"ccv.contact_id": contactID, "cf.is_active": true}).
		OrderBy("cf.display_order", "cf.field_name")
}

// ListByContact implements customfield.ValueRepository.
func (r *ValueRepo) ListByContact(ctx context.Context, contactID id.ID) ([]customfield.ContactValue, error) {
	sql, args, err := listByContactQuery(contactID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []customfield.ContactValue
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list custom values: %w", err)
	}
	return rows, nil
}

// Delete implements customfield.ValueRepository.
func (r *ValueRepo) Delete(ctx context.Context, contactID, fieldID id.ID) error {
	sql, args, err := builder().
		Delete(valuesTable).
		Where(squirrel.Eq{"contact_id": contactID, "custom_field_id": fieldID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete custom value: %w", err)
	}
	return nil
}
