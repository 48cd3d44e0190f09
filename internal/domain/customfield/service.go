package customfield

import (
	"context"
	"fmt"
	"slices"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
	"crmapi/internal/core/tx"
	"crmapi/internal/domain"
	"crmapi/internal/domain/audit"
)

// EntityName is the audit/entity name of registry rows.
const EntityName = "custom_field"

// Permissions guarding the registry.
const (
	PermCreate = "custom_fields:create"
	PermRead   = "custom_fields:read"
	PermUpdate = "custom_fields:update"
	PermDelete = "custom_fields:delete"
)

// Service manages the registry and per-contact values.
type Service struct {
	*domain.EntityService[*Field]
	repo      Repository
	values    ValueRepository
	txManager tx.Manager
}

// NewService creates a new custom field service. rec may be nil.
func NewService(repo Repository, values ValueRepository, txManager tx.Manager, rec audit.Recorder) *Service {
	base := domain.NewEntityService(domain.EntityServiceConfig[*Field]{
		Repo:       repo,
		TxManager:  txManager,
		Audit:      rec,
		EntityName: EntityName,
	})
	svc := &Service{
		EntityService: base,
		repo:          repo,
		values:        values,
		txManager:     txManager,
	}
	base.Hooks().On(domain.BeforeCreate, svc.checkNameFree)
	return svc
}

func (s *Service) checkNameFree(ctx context.Context, f *Field) error {
	exists, err := s.repo.ExistsByName(ctx, f.Module, f.FieldName)
	if err != nil {
		return apperror.NewDatabase(err)
	}
	if exists {
		return apperror.NewDuplicate(EntityName, "field_name", f.FieldName)
	}
	return nil
}

// CreateInput describes a new registry field.
type CreateInput struct {
	Module       string
	Label        string
	FieldName    string
	FieldType    FieldType
	IsRequired   bool
	IsActive     *bool
	Options      []string
	DefaultValue *string
	HelpText     *string
	DisplayOrder int64
	CreatedBy    *id.ID
}

// Create registers a field.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Field, error) {
	module := in.Module
	if module == "" {
		module = ModuleContact
	}
	f := NewField(module, in.FieldName, in.Label, in.FieldType)
	f.IsRequired = in.IsRequired
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
	f.Options = in.Options
	f.DefaultValue = in.DefaultValue
	f.HelpText = in.HelpText
	f.DisplayOrder = in.DisplayOrder
	f.CreatedBy = in.CreatedBy

	if err := s.EntityService.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// UpdateInput changes the mutable attributes of a field. Nil means unchanged.
// The name and type are fixed once values may exist.
type UpdateInput struct {
	Label        *string
	IsRequired   *bool
	IsActive     *bool
	Options      []string
	DefaultValue *string
	HelpText     *string
	DisplayOrder *int64
}

// Update applies in to the field.
func (s *Service) Update(ctx context.Context, fieldID id.ID, in UpdateInput) (*Field, error) {
	f, err := s.GetByID(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if in.Label != nil {
		f.Label = *in.Label
	}
	if in.IsRequired != nil {
		f.IsRequired = *in.IsRequired
	}
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
	if in.Options != nil {
		f.Options = in.Options
	}
	if in.DefaultValue != nil {
		f.DefaultValue = in.DefaultValue
	}
	if in.HelpText != nil {
		f.HelpText = in.HelpText
	}
	if in.DisplayOrder != nil {
		f.DisplayOrder = *in.DisplayOrder
	}
	f.Touch()

	if err := s.EntityService.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// List returns the registry of module.
func (s *Service) List(ctx context.Context, module string, includeInactive bool) ([]*Field, error) {
	if module == "" {
		module = ModuleContact
	}
	fields, err := s.repo.List(ctx, module, includeInactive)
	if err != nil {
		return nil, apperror.NewDatabase(err)
	}
	return fields, nil
}

// ActiveFields implements Source.
func (s *Service) ActiveFields(ctx context.Context, module string) ([]*Field, error) {
	return s.List(ctx, module, false)
}

// SetValues stores raw values for a contact keyed by field name. An empty
// string removes the stored value. All values are checked before any is written.
func (s *Service) SetValues(ctx context.Context, contactID id.ID, raw map[string]string) error {
	if len(raw) == 0 {
		return nil
	}

	type pending struct {
		field *Field
		value *Value
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)
	writes := make([]pending, 0, len(names))

	for _, name := range names {
		f, err := s.repo.GetByName(ctx, ModuleContact, name)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation(fmt.Sprintf("Unknown custom field '%s'", name)).
					WithDetail("field", name)
			}
			return apperror.NewDatabase(err)
		}
		if raw[name] == "" {
			if f.IsRequired {
				return apperror.NewValidation(fmt.Sprintf("Custom field '%s' is required", name)).
					WithDetail("field", name)
			}
			writes = append(writes, pending{field: f})
			continue
		}
		v := NewValue(contactID, f.ID)
		if err := v.Set(f.FieldType, raw[name]); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				appErr.WithDetail("field", name)
			}
			return err
		}
		writes = append(writes, pending{field: f, value: v})
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, w := range writes {
			var err error
			if w.value == nil {
				err = s.values.Delete(ctx, contactID, w.field.ID)
			} else {
				err = s.values.Upsert(ctx, w.value)
			}
			if err != nil {
				return fmt.Errorf("store custom value %s: %w", w.field.FieldName, err)
			}
		}
		return nil
	})
}

// Values returns the typed values of a contact keyed by field name.
func (s *Service) Values(ctx context.Context, contactID id.ID) (map[string]any, error) {
	rows, err := s.values.ListByContact(ctx, contactID)
	if err != nil {
		return nil, apperror.NewDatabase(err)
	}
	out := make(map[string]any, len(rows))
	for i := range rows {
		out[rows[i].FieldName] = rows[i].Typed(rows[i].FieldType)
	}
	return out, nil
}
