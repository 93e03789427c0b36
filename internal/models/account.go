package models

// Account is a row of the chart of accounts.
type Account struct {
	AccountID     int64  `db:"account_id"`
	Code          string `db:"code"`
	Name          string `db:"name"`
	AccountType   string `db:"account_type"`
	NormalBalance string `db:"normal_balance"`
	ParentID      *int64 `db:"parent_id"` // Nullable
	IsActive      bool   `db:"is_active"`
	AuditFields
}
