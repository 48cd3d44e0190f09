// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
	"crmapi/internal/domain/auth"
	"crmapi/internal/infrastructure/storage/postgres"
)

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func userByEmailQuery(email string) squirrel.SelectBuilder {
	return builder().
		Select(postgres.ExtractDBColumns[auth.User]()...).
		From("users").
		Where("lower(email) = lower(?)", email).
		Limit(1)
}

// GetByEmail implements auth.UserRepository.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	sql, args, err := userByEmailQuery(email).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func membershipsQuery(userID id.ID) squirrel.SelectBuilder {
	return builder().
		Select("uo.org_id", "r.name AS role_name", "r.permissions", "COALESCE(uo.joined_at, uo.created_at) AS joined_at").
		From("user_organizations uo").
		Join("roles r ON uo.role_id = r.id").
		Where(squirrel.Eq{"uo.user_id": userID, "uo.status": "active"}).
		OrderBy("joined_at", "uo.org_id")
}

// Memberships implements auth.UserRepository.
func (r *UserRepo) Memberships(ctx context.Context, userID id.ID) ([]auth.Membership, error) {
	sql, args, err := membershipsQuery(userID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var memberships []auth.Membership
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &memberships, sql, args...); err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	return memberships, nil
}
