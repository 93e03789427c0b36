package models

import (
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// Invoice mirrors the invoices table. PaidTotal is not a column: queries compute it
// from the payments table.
type Invoice struct {
	InvoiceID    int64        `db:"invoice_id"`
	EnrollmentID *int64       `db:"enrollment_id"`
	BranchID     *int64       `db:"branch_id"`
	TotalAmount  money.Amount `db:"total_amount"`
	Notes        string       `db:"notes"`
	CanceledAt   *time.Time   `db:"canceled_at"`
	CancelReason string       `db:"cancel_reason"`
	PaidTotal    money.Amount `db:"paid_total"`
	AuditFields
}

// Payment mirrors the payments table.
type Payment struct {
	PaymentID    int64        `db:"payment_id"`
	InvoiceID    *int64       `db:"invoice_id"`
	EnrollmentID *int64       `db:"enrollment_id"`
	BranchID     *int64       `db:"branch_id"`
	Amount       money.Amount `db:"amount"`
	Method       string       `db:"method"`
	Status       string       `db:"status"`
	PaidAt       *time.Time   `db:"paid_at"`
	Reference    string       `db:"reference"`
	AuditFields
}
