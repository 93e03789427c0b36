package models

import (
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// Journal is the header row of a double-entry transaction.
type Journal struct {
	JournalID     int64     `db:"journal_id"`
	ReferenceType string    `db:"reference_type"`
	ReferenceID   *int64    `db:"reference_id"` // Nullable for manual entries
	JournalDate   time.Time `db:"journal_date"`
	Description   string    `db:"description"`
	Status        string    `db:"status"`
	BranchID      *int64    `db:"branch_id"`
	AuditFields
}

// JournalLine is one debit or credit row. AccountCode is joined from accounts.
type JournalLine struct {
	LineID       int64        `db:"line_id"`
	JournalID    int64        `db:"journal_id"`
	LineNo       int          `db:"line_no"`
	AccountID    int64        `db:"account_id"`
	AccountCode  string       `db:"account_code"`
	Debit        money.Amount `db:"debit"`
	Credit       money.Amount `db:"credit"`
	CostCenterID *int64       `db:"cost_center_id"`
	Memo         string       `db:"memo"`
}
