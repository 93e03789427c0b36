package repositories

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByCode retrieves an account by its unique code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByCodes retrieves every account whose code is in codes, keyed by code.
	// Missing codes are simply absent from the map.
	FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. Used by setup flows only.
	SaveAccount(ctx context.Context, account domain.Account) (*domain.Account, error)
}

// AccountBalanceReader derives balances from posted journal lines.
type AccountBalanceReader interface {
	// SumPostedLines totals the debit and credit columns of every posted line on the account.
	SumPostedLines(ctx context.Context, accountID int64) (debits, credits money.Amount, err error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountBalanceReader
}
