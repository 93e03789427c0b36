package domain

import (
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// PaymentStatus tracks whether money was actually received.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// PaymentMethod is how the money arrived.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodBank     PaymentMethod = "bank"
	MethodTransfer PaymentMethod = "transfer"
	MethodCheque   PaymentMethod = "cheque"
	MethodGateway  PaymentMethod = "gateway"
	MethodCard     PaymentMethod = "card"
	MethodOnline   PaymentMethod = "online"
)

// Payment is created by the payment workflow. Only paid payments count toward an
// invoice's due amount, installment allocation and ledger posting.
type Payment struct {
	PaymentID    int64         `json:"paymentID"`
	InvoiceID    *int64        `json:"invoiceID,omitempty"`
	EnrollmentID *int64        `json:"enrollmentID,omitempty"`
	BranchID     *int64        `json:"branchID,omitempty"`
	Amount       money.Amount  `json:"amount"`
	Method       PaymentMethod `json:"method"`
	Status       PaymentStatus `json:"status"`
	PaidAt       *time.Time    `json:"paidAt,omitempty"`
	Reference    string        `json:"reference,omitempty"`
	AuditFields
}

// IsPaid reports whether the payment counts financially.
func (p Payment) IsPaid() bool { return p.Status == PaymentPaid }

// IsLinked reports whether the payment belongs to an enrollment or invoice.
func (p Payment) IsLinked() bool { return p.InvoiceID != nil || p.EnrollmentID != nil }

// BelongsTo is the single rule matching payments to invoices: by invoice id, or by
// enrollment when the payment carries no invoice id. An unlinked payment belongs to
// no invoice.
func (p Payment) BelongsTo(inv Invoice) bool {
	if p.InvoiceID != nil {
		return *p.InvoiceID == inv.InvoiceID
	}
	return p.EnrollmentID != nil && inv.EnrollmentID != nil && *p.EnrollmentID == *inv.EnrollmentID
}
