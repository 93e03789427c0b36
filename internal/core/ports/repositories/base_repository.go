package repositories

import (
	"context"
)

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// WithinTransaction runs fn inside one database transaction. Repository calls made
	// with the ctx handed to fn join that transaction. The transaction commits when fn
	// returns nil and rolls back otherwise. Nested calls reuse the outer transaction.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
