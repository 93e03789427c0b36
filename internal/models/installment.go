package models

import (
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// Installment mirrors the installments table.
type Installment struct {
	InstallmentID int64        `db:"installment_id"`
	InvoiceID     int64        `db:"invoice_id"`
	InstallmentNo int          `db:"installment_no"`
	Amount        money.Amount `db:"amount"`
	DueDate       time.Time    `db:"due_date"`
	PaidAmount    money.Amount `db:"paid_amount"`
	Status        string       `db:"status"`
	IsDownPayment bool         `db:"is_down_payment"`
	AuditFields
}

// InstallmentAllocation mirrors the installment_allocations table.
type InstallmentAllocation struct {
	AllocationID  int64        `db:"allocation_id"`
	PaymentID     int64        `db:"payment_id"`
	InvoiceID     int64        `db:"invoice_id"`
	InstallmentID int64        `db:"installment_id"`
	AmountApplied money.Amount `db:"amount_applied"`
	CreatedAt     time.Time    `db:"created_at"`
	CreatedBy     string       `db:"created_by"`
}
