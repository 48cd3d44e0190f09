// Package contact_repo provides the PostgreSQL contact repository and the
// executor that runs compiled filters.
package contact_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"crmapi/internal/core/id"
	"crmapi/internal/domain/contact"
	"crmapi/internal/infrastructure/storage/postgres"
)

const tableName = "contacts"

var _ contact.Repository = (*Repo)(nil)

// Repo persists contacts.
type Repo struct {
	*postgres.BaseRepo[*contact.Contact]
}

// NewRepo creates a new contact repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo(
			txManager,
			tableName,
			postgres.ExtractDBColumns[contact.Contact](),
			func() *contact.Contact { return &contact.Contact{} },
		),
	}
}

// EmailExists implements contact.Repository.
func (r *Repo) EmailExists(ctx context.Context, email string, exclude *id.ID) (bool, error) {
	where := squirrel.And{
		squirrel.Expr("lower(email) = lower(?)", email),
		squirrel.Eq{"is_active": true},
	}
	if exclude != nil {
		where = append(where, squirrel.NotEq{"id": *exclude})
	}
	return r.Exists(ctx, where)
}
