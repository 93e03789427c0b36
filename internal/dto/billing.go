package dto

import (
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	"github.com/SscSPs/course_billing_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// PromoCodeRequest describes a promo code to apply on top of the manual discount.
type PromoCodeRequest struct {
	Kind        accounting.PromoKind `json:"kind" validate:"required,oneof=percent fixed"`
	Value       decimal.Decimal      `json:"value"`
	MaxDiscount *money.Amount        `json:"maxDiscount"`
}

// CalculateInvoiceRequest is the input of the invoice calculator. When SessionPrice
// and Sessions are given the subtotal is computed per session.
type CalculateInvoiceRequest struct {
	Subtotal       money.Amount      `json:"subtotal" validate:"amount_gte=0"`
	SessionPrice   *money.Amount     `json:"sessionPrice"`
	Sessions       *int64            `json:"sessions" validate:"omitempty,gte=0"`
	ManualDiscount money.Amount      `json:"manualDiscount" validate:"amount_gte=0"`
	PromoDiscount  money.Amount      `json:"promoDiscount" validate:"amount_gte=0"`
	Promo          *PromoCodeRequest `json:"promo"`
	TaxRate        decimal.Decimal   `json:"taxRate"`
	PaidTotal      money.Amount      `json:"paidTotal" validate:"amount_gte=0"`
	// Strict rejects discounts that exceed the subtotal instead of capping them.
	Strict bool `json:"strict"`
}

// CalculateInvoiceResponse is the breakdown plus its derived status.
type CalculateInvoiceResponse struct {
	accounting.InvoiceBreakdown
	Status domain.InvoiceStatus `json:"status"`
}

// GenerateScheduleRequest commits an installment plan for an invoice.
type GenerateScheduleRequest struct {
	DownPayment  money.Amount    `json:"downPayment" validate:"amount_gte=0"`
	Installments int             `json:"installments" validate:"required,gte=1"`
	Interval     domain.Interval `json:"interval" validate:"required,oneof=monthly weekly"`
	StartDate    time.Time       `json:"startDate" validate:"required"`
}

// PreviewScheduleRequest is GenerateScheduleRequest for an arbitrary total.
type PreviewScheduleRequest struct {
	Total money.Amount `json:"total" validate:"amount_gt=0"`
	GenerateScheduleRequest
}

// ScheduleResponse lists schedule rows.
type ScheduleResponse struct {
	Total        money.Amount              `json:"total"`
	Installments []accounting.ScheduleLine `json:"installments"`
}

// AllocatePaymentRequest runs a paid payment through the allocator.
type AllocatePaymentRequest struct {
	PaymentID int64 `json:"paymentID" validate:"required,gt=0"`
}

// OverdueRequest optionally pins the reference time used for the overdue check.
type OverdueRequest struct {
	Now *time.Time `json:"now"`
}

// NowOrZero returns the pinned time, or the zero time meaning "use the clock".
func (r OverdueRequest) NowOrZero() time.Time {
	if r.Now == nil {
		return time.Time{}
	}
	return *r.Now
}

// OverdueResponse reports how many installments changed.
type OverdueResponse struct {
	Changed int64 `json:"changed"`
}

// ValidatePaymentRequest checks a prospective payment against an invoice.
type ValidatePaymentRequest struct {
	Amount       money.Amount `json:"amount"`
	AllowOverpay bool         `json:"allowOverpay"`
}

// UpdateInvoiceRequest is a partial update keyed by JSON field name
// (notes, branchID). Derived fields (dueAmount, paidTotal, status) are refused.
type UpdateInvoiceRequest map[string]any
