package contact

import (
	"context"

	"crmapi/internal/core/apperror"
	appctx "crmapi/internal/core/context"
	"crmapi/internal/core/id"
	"crmapi/internal/core/security"
	"crmapi/internal/core/tx"
	"crmapi/internal/domain"
	"crmapi/internal/domain/audit"
)

// EntityName is the audit/entity name of contacts.
const EntityName = "contact"

// Permission strings checked by the contact endpoints.
const (
	PermCreate = "contacts:create"
	PermRead   = "contacts:read"
	PermUpdate = "contacts:update"
	PermDelete = "contacts:delete"
)

// Service implements contact CRUD. Callers holding only the ":own" variant
// of a permission see and change only the contacts they own.
type Service struct {
	*domain.EntityService[*Contact]
	repo      Repository
	custom    CustomValues
	txManager tx.Manager
}

// NewService creates a new contact service. rec may be nil.
func NewService(repo Repository, custom CustomValues, txManager tx.Manager, rec audit.Recorder) *Service {
	base := domain.NewEntityService(domain.EntityServiceConfig[*Contact]{
		Repo:       repo,
		TxManager:  txManager,
		Audit:      rec,
		EntityName: EntityName,
	})
	svc := &Service{
		EntityService: base,
		repo:          repo,
		custom:        custom,
		txManager:     txManager,
	}
	base.Hooks().On(domain.BeforeCreate, svc.checkEmailFree)
	base.Hooks().On(domain.BeforeUpdate, svc.checkEmailFree)
	return svc
}

func (s *Service) checkEmailFree(ctx context.Context, c *Contact) error {
	exists, err := s.repo.EmailExists(ctx, c.Email, &c.ID)
	if err != nil {
		return apperror.NewDatabase(err)
	}
	if exists {
		return apperror.NewDuplicate(EntityName, "email", c.Email)
	}
	return nil
}

// Fields holds the writable contact columns. Nil pointers are left unset.
type Fields struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Company    *string
	JobTitle   *string
	Address    *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
	Notes      *string
	LeadSource *string
	LeadStatus *string
	OwnerID    *id.ID

	// CustomFields maps custom field names to raw values.
	CustomFields map[string]string
}

func (f Fields) apply(c *Contact) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.FirstName, f.FirstName)
	set(&c.LastName, f.LastName)
	set(&c.Email, f.Email)
	set(&c.LeadStatus, f.LeadStatus)

	for _, p := range []struct{ dst, src **string }{
		{&c.Phone, &f.Phone}, {&c.Company, &f.Company}, {&c.JobTitle, &f.JobTitle},
		{&c.Address, &f.Address}, {&c.City, &f.City}, {&c.State, &f.State},
		{&c.PostalCode, &f.PostalCode}, {&c.Country, &f.Country},
		{&c.Notes, &f.Notes}, {&c.LeadSource, &f.LeadSource},
	} {
		if *p.src != nil {
			*p.dst = *p.src
		}
	}
	if f.OwnerID != nil {
		c.OwnerID = f.OwnerID
	}
}

// Create inserts a contact and its custom values in one transaction.
// The caller becomes the owner unless another owner is given and the
// caller may create contacts for everyone.
func (s *Service) Create(ctx context.Context, in Fields) (*Detail, error) {
	scope := security.UserScope(ctx, PermCreate)
	if scope == security.ScopeNone {
		return nil, apperror.NewForbidden("Permission denied: " + PermCreate)
	}

	c := NewContact("", "", "")
	in.apply(c)
	if c.OwnerID == nil || scope == security.ScopeOwn {
		c.OwnerID = audit.Actor(ctx)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.EntityService.Create(ctx, c); err != nil {
			return err
		}
		return s.custom.SetValues(ctx, c.ID, in.CustomFields)
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, c)
}

// Get returns one active contact with its custom values.
func (s *Service) Get(ctx context.Context, contactID id.ID) (*Detail, error) {
	c, err := s.load(ctx, contactID, PermRead)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, c)
}

// Update applies the non-nil fields of in.
func (s *Service) Update(ctx context.Context, contactID id.ID, in Fields) (*Detail, error) {
	c, err := s.load(ctx, contactID, PermUpdate)
	if err != nil {
		return nil, err
	}
	if security.UserScope(ctx, PermUpdate) == security.ScopeOwn {
		in.OwnerID = nil
	}
	in.apply(c)
	c.Touch()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.EntityService.Update(ctx, c); err != nil {
			return err
		}
		return s.custom.SetValues(ctx, c.ID, in.CustomFields)
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, c)
}

// Delete soft-deletes a contact.
func (s *Service) Delete(ctx context.Context, contactID id.ID) error {
	if _, err := s.load(ctx, contactID, PermDelete); err != nil {
		return err
	}
	return s.EntityService.Delete(ctx, contactID)
}

// History returns the audit trail of a contact.
func (s *Service) History(ctx context.Context, contactID id.ID, limit int) ([]audit.Entry, error) {
	if _, err := s.load(ctx, contactID, PermRead); err != nil {
		return nil, err
	}
	return s.EntityService.History(ctx, contactID, limit)
}

// load fetches a contact and applies the caller's scope for perm.
// Contacts outside an own-only scope are reported as not found.
func (s *Service) load(ctx context.Context, contactID id.ID, perm string) (*Contact, error) {
	scope := security.UserScope(ctx, perm)
	if scope == security.ScopeNone {
		return nil, apperror.NewForbidden("Permission denied: " + perm)
	}
	c, err := s.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if scope == security.ScopeOwn && !c.OwnedBy(appctx.GetUserID(ctx)) {
		return nil, apperror.NewNotFound(EntityName, contactID.String())
	}
	return c, nil
}

func (s *Service) detail(ctx context.Context, c *Contact) (*Detail, error) {
	values, err := s.custom.Values(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	d := &Detail{Contact: c, FullName: c.FullName()}
	if len(values) > 0 {
		d.CustomFields = values
	}
	return d, nil
}
