package allocation

import (
	"context"

	"github.com/dealerhub/inventory/internal/domain/allocation"
)

// TransactionScope provides atomic execution of multiple repository
// operations. Implementations must guarantee that all operations within
// the scope either succeed together or fail together.
//
// Every mutating path of the stock operations engine runs inside a scope:
// a transfer writes two allocations and two ledger entries, and none of
// the four may be observable without the others.
type TransactionScope interface {
	// Execute runs the given function within a transaction.
	// If the function returns an error, all changes are rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories bound to the
// current transaction
type TransactionalRepositories interface {
	AllocationRepo() allocation.AllocationRepository
	LedgerRepo() allocation.StockTransactionRepository
}

// NoOpTransactionScope executes the function without transaction semantics.
// Used in tests and in contexts where atomicity is provided externally.
type NoOpTransactionScope struct {
	Allocations allocation.AllocationRepository
	Ledger      allocation.StockTransactionRepository
}

// Execute runs the function directly against the configured repositories
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(&noOpRepositories{allocations: s.Allocations, ledger: s.Ledger})
}

type noOpRepositories struct {
	allocations allocation.AllocationRepository
	ledger      allocation.StockTransactionRepository
}

func (r *noOpRepositories) AllocationRepo() allocation.AllocationRepository {
	return r.allocations
}

func (r *noOpRepositories) LedgerRepo() allocation.StockTransactionRepository {
	return r.ledger
}

// Ensure NoOpTransactionScope implements TransactionScope
var _ TransactionScope = (*NoOpTransactionScope)(nil)

// Ensure noOpRepositories implements TransactionalRepositories
var _ TransactionalRepositories = (*noOpRepositories)(nil)
