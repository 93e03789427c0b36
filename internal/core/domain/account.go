package domain

import "github.com/SscSPs/course_billing_engine/internal/core/money"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset         AccountType = "ASSET"
	Liability     AccountType = "LIABILITY"
	Equity        AccountType = "EQUITY"
	Revenue       AccountType = "REVENUE"
	Expense       AccountType = "EXPENSE"
	ContraRevenue AccountType = "CONTRA_REVENUE"
)

// NormalBalance is the side on which an account's balance grows.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

// DefaultNormalBalance returns the conventional normal side for an account type.
// Contra-revenue accounts (discounts) carry debit balances.
func DefaultNormalBalance(t AccountType) NormalBalance {
	switch t {
	case Asset, Expense, ContraRevenue:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// Account is a node in the chart-of-accounts tree. Accounts are configuration: the
// ledger engine reads them but never mutates them.
type Account struct {
	AccountID     int64         `json:"accountID"`
	Code          string        `json:"code"` // Unique business key used by settings and postings
	Name          string        `json:"name"`
	AccountType   AccountType   `json:"accountType"`
	NormalBalance NormalBalance `json:"normalBalance"`
	ParentID      *int64        `json:"parentID,omitempty"` // Self-referencing tree, no cycles
	IsActive      bool          `json:"isActive"`
	AuditFields
}

// AccountBalance is the derived, read-only balance of an account over posted lines.
type AccountBalance struct {
	AccountCode   string        `json:"accountCode"`
	NormalBalance NormalBalance `json:"normalBalance"`
	Debits        money.Amount  `json:"debits"`
	Credits       money.Amount  `json:"credits"`
	Balance       money.Amount  `json:"balance"`
}
