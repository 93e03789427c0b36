package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// InvoiceStatus is derived from payments, except Canceled which is stored.
type InvoiceStatus string

const (
	InvoiceOpen     InvoiceStatus = "open"
	InvoicePartial  InvoiceStatus = "partial"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceCanceled InvoiceStatus = "canceled"
)

// ErrComputedField is returned for any attempt to write a derived invoice field.
var ErrComputedField = fmt.Errorf("%w: due amount is computed from payments and cannot be written", apperrors.ErrIntegrity)

// DeriveInvoiceStatus maps paid/due totals to a status: open while nothing has been
// paid, paid once nothing is due, partial in between.
func DeriveInvoiceStatus(paid, due money.Amount) InvoiceStatus {
	switch {
	case paid.IsZero():
		return InvoiceOpen
	case due.IsZero():
		return InvoicePaid
	default:
		return InvoicePartial
	}
}

// Invoice is the billing document for an enrollment. TotalAmount is fixed at creation;
// the paid total comes from the payments aggregation and the due amount is never stored.
type Invoice struct {
	InvoiceID    int64        `json:"invoiceID"`
	EnrollmentID *int64       `json:"enrollmentID,omitempty"`
	BranchID     *int64       `json:"branchID,omitempty"`
	TotalAmount  money.Amount `json:"totalAmount"`
	Notes        string       `json:"notes,omitempty"`
	CanceledAt   *time.Time   `json:"canceledAt,omitempty"`
	CancelReason string       `json:"cancelReason,omitempty"`
	AuditFields

	paidTotal money.Amount
}

// WithPaidTotal returns a copy carrying the sum of paid payments. Repositories call it
// when hydrating from storage.
func (i Invoice) WithPaidTotal(paid money.Amount) Invoice {
	i.paidTotal = paid
	return i
}

// PaidTotal is the sum of payments with status paid, capped at the total.
func (i Invoice) PaidTotal() money.Amount { return i.paidTotal.Min(i.TotalAmount).ClampZero() }

// DueAmount is TotalAmount minus paid payments, never negative.
func (i Invoice) DueAmount() money.Amount {
	return i.TotalAmount.Sub(i.paidTotal).ClampZero()
}

// SetDueAmount always fails: the due amount can only change through payments.
func (i *Invoice) SetDueAmount(money.Amount) error {
	return ErrComputedField
}

// IsCanceled reports whether the invoice was canceled.
func (i Invoice) IsCanceled() bool { return i.CanceledAt != nil }

// Status derives the invoice state.
func (i Invoice) Status() InvoiceStatus {
	if i.IsCanceled() {
		return InvoiceCanceled
	}
	return DeriveInvoiceStatus(i.PaidTotal(), i.DueAmount())
}

// MarshalJSON includes the derived fields.
func (i Invoice) MarshalJSON() ([]byte, error) {
	type plain Invoice
	return json.Marshal(struct {
		plain
		PaidTotal money.Amount  `json:"paidTotal"`
		DueAmount money.Amount  `json:"dueAmount"`
		Status    InvoiceStatus `json:"status"`
	}{plain(i), i.PaidTotal(), i.DueAmount(), i.Status()})
}
