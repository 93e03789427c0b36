package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// InstallmentStatus is the collection state of one scheduled obligation.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

// Interval is the spacing between installment due dates.
type Interval string

const (
	Monthly Interval = "monthly"
	Weekly  Interval = "weekly"
)

// ParseInterval validates an interval name.
func ParseInterval(s string) (Interval, error) {
	switch Interval(strings.ToLower(strings.TrimSpace(s))) {
	case Monthly:
		return Monthly, nil
	case Weekly:
		return Weekly, nil
	}
	return "", fmt.Errorf("%w: unknown installment interval %q", apperrors.ErrValidation, s)
}

// UnmarshalJSON accepts interval names in any case and rejects unknown ones.
func (i *Interval) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: installment interval must be a string", apperrors.ErrValidation)
	}
	parsed, err := ParseInterval(raw)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Installment is one scheduled partial payment of an invoice.
type Installment struct {
	InstallmentID int64             `json:"installmentID"`
	InvoiceID     int64             `json:"invoiceID"`
	InstallmentNo int               `json:"installmentNo"` // 1-based
	Amount        money.Amount      `json:"amount"`
	DueDate       time.Time         `json:"dueDate"`
	PaidAmount    money.Amount      `json:"paidAmount"`
	Status        InstallmentStatus `json:"status"`
	IsDownPayment bool              `json:"isDownPayment"`
	AuditFields
}

// Outstanding is what is still owed on the installment.
func (i Installment) Outstanding() money.Amount {
	return i.Amount.Sub(i.PaidAmount).ClampZero()
}

// IsOpen reports whether the installment can still receive allocations.
func (i Installment) IsOpen() bool {
	return i.Status == InstallmentPending || i.Status == InstallmentOverdue
}

// Apply allocates up to amount to the installment and returns what was applied.
// The installment flips to paid only when fully covered.
func (i *Installment) Apply(amount money.Amount) money.Amount {
	applied := amount.Min(i.Outstanding())
	if !applied.IsPositive() {
		return money.Zero
	}
	i.PaidAmount = i.PaidAmount.Add(applied)
	if i.PaidAmount.Equal(i.Amount) {
		i.Status = InstallmentPaid
	}
	return applied
}

// MarkOverdue moves a pending installment due before now to overdue.
func (i *Installment) MarkOverdue(now time.Time) bool {
	if i.Status != InstallmentPending || !i.DueDate.Before(now) {
		return false
	}
	i.Status = InstallmentOverdue
	return true
}

// InstallmentAllocation records how much of a payment went to an installment.
type InstallmentAllocation struct {
	AllocationID  int64        `json:"allocationID"`
	PaymentID     int64        `json:"paymentID"`
	InvoiceID     int64        `json:"invoiceID"`
	InstallmentID int64        `json:"installmentID"`
	Amount        money.Amount `json:"amountApplied"`
	CreatedAt     time.Time    `json:"createdAt"`
	CreatedBy     string       `json:"createdBy"`
}

// AllocationResult is the outcome of running one payment through the allocator.
// Unallocated is reported to the caller, never discarded.
type AllocationResult struct {
	PaymentID      int64                   `json:"paymentID"`
	InvoiceID      int64                   `json:"invoiceID"`
	TotalAllocated money.Amount            `json:"totalAllocated"`
	Unallocated    money.Amount            `json:"unallocated"`
	Allocations    []InstallmentAllocation `json:"allocations"`
}

// InstallmentSummary aggregates an invoice's schedule for display.
type InstallmentSummary struct {
	InvoiceID       int64        `json:"invoiceID"`
	Total           int          `json:"totalInstallments"`
	Paid            int          `json:"paidInstallments"`
	Pending         int          `json:"pendingInstallments"`
	Overdue         int          `json:"overdueInstallments"`
	TotalAmount     money.Amount `json:"totalAmount"`
	PaidAmount      money.Amount `json:"paidAmount"`
	RemainingAmount money.Amount `json:"remainingAmount"`
	NextDueDate     *time.Time   `json:"nextDueDate,omitempty"`
}

// Summarize aggregates installments. Pending counts every open installment,
// overdue ones included.
func Summarize(invoiceID int64, installments []Installment) InstallmentSummary {
	sum := InstallmentSummary{InvoiceID: invoiceID, Total: len(installments)}
	for _, inst := range installments {
		sum.TotalAmount = sum.TotalAmount.Add(inst.Amount)
		sum.PaidAmount = sum.PaidAmount.Add(inst.PaidAmount)
		switch inst.Status {
		case InstallmentPaid:
			sum.Paid++
		case InstallmentOverdue:
			sum.Overdue++
			sum.Pending++
		default:
			sum.Pending++
		}
		if inst.IsOpen() && (sum.NextDueDate == nil || inst.DueDate.Before(*sum.NextDueDate)) {
			due := inst.DueDate
			sum.NextDueDate = &due
		}
	}
	sum.RemainingAmount = sum.TotalAmount.Sub(sum.PaidAmount).ClampZero()
	return sum
}
