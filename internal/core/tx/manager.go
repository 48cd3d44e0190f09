// Package tx defines the transaction contract used by domain services.
//
// Services in internal/domain only see these interfaces; the pgx-backed
// implementation lives in infrastructure/storage/postgres and carries the
// active transaction in the context it passes to fn.
package tx

import (
	"context"
)

// Manager runs units of work inside a database transaction.
//
// Repositories called with the ctx handed to fn join the same transaction,
// so a service can combine an entity write, its custom values and its audit
// entry into one commit.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// A non-nil error from fn rolls the transaction back;
	// otherwise it is committed.
	//
	// Nested calls reuse the transaction already in ctx and neither commit
	// nor roll back on their own.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds snapshot reads on top of Manager.
//
// The contact filter executor uses it to run its data and count statements
// against one snapshot, so total_count always matches the page it was
// computed with.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only REPEATABLE READ transaction.
	// Every statement inside sees the same snapshot, and writes fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
