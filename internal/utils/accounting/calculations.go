package accounting

import (
	"fmt"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	"github.com/shopspring/decimal"
)

// SignedBalance applies the account's normal side to posted totals.
// This is used in both services and repositories to ensure consistent accounting logic.
//
// Debit-normal accounts (assets, expenses, contra-revenue) report debits - credits.
// Credit-normal accounts (liabilities, equity, revenue) report credits - debits.
func SignedBalance(normal domain.NormalBalance, debits, credits money.Amount) (money.Amount, error) {
	switch normal {
	case domain.DebitNormal:
		return debits.Sub(credits), nil
	case domain.CreditNormal:
		return credits.Sub(debits), nil
	default:
		return money.Zero, fmt.Errorf("%w: unknown normal balance '%s'", apperrors.ErrConfiguration, normal)
	}
}

// InvoiceInput is the raw material of an invoice breakdown.
type InvoiceInput struct {
	Subtotal       money.Amount
	ManualDiscount money.Amount
	PromoDiscount  money.Amount
	TaxRate        decimal.Decimal // percent, e.g. 5 for 5%
	PaidTotal      money.Amount
}

// InvoiceBreakdown is a fully resolved invoice.
type InvoiceBreakdown struct {
	Subtotal       money.Amount `json:"subtotal"`
	ManualDiscount money.Amount `json:"manualDiscount"`
	PromoDiscount  money.Amount `json:"promoDiscount"`
	TotalDiscount  money.Amount `json:"totalDiscount"`
	TaxableAmount  money.Amount `json:"taxableAmount"`
	TaxTotal       money.Amount `json:"taxTotal"`
	Total          money.Amount `json:"total"`
	PaidTotal      money.Amount `json:"paidTotal"`
	DueTotal       money.Amount `json:"dueTotal"`
}

// CalculateInvoice resolves discounts, tax and payments into a breakdown.
// The manual discount is applied first and capped at the subtotal; the promo discount
// is capped at whatever the manual discount left. Tax is charged on the discounted amount.
func CalculateInvoice(in InvoiceInput) InvoiceBreakdown {
	subtotal := in.Subtotal
	ceiling := subtotal.ClampZero()

	manual := in.ManualDiscount.ClampZero().Min(ceiling)
	promo := in.PromoDiscount.ClampZero().Min(ceiling.Sub(manual))
	totalDiscount := manual.Add(promo)

	taxable := subtotal.Sub(totalDiscount)
	tax := money.Zero
	if taxable.IsPositive() && in.TaxRate.IsPositive() {
		tax = taxable.MulRate(in.TaxRate)
	}

	total := taxable.Add(tax).ClampZero()
	paid := in.PaidTotal.ClampZero().Min(total)

	return InvoiceBreakdown{
		Subtotal:       subtotal,
		ManualDiscount: manual,
		PromoDiscount:  promo,
		TotalDiscount:  totalDiscount,
		TaxableAmount:  taxable,
		TaxTotal:       tax,
		Total:          total,
		PaidTotal:      paid,
		DueTotal:       total.Sub(paid).ClampZero(),
	}
}

// CalculatePerSession prices quantity sessions and runs the same pipeline.
// in.Subtotal is ignored.
func CalculatePerSession(sessionPrice money.Amount, quantity int64, in InvoiceInput) (InvoiceBreakdown, error) {
	if quantity < 0 {
		return InvoiceBreakdown{}, fmt.Errorf("%w: session quantity cannot be negative", apperrors.ErrValidation)
	}
	if sessionPrice.IsNegative() {
		return InvoiceBreakdown{}, fmt.Errorf("%w: session price cannot be negative", apperrors.ErrValidation)
	}
	in.Subtotal = sessionPrice.Mul(quantity)
	return CalculateInvoice(in), nil
}

// DetermineStatus derives the invoice status from a breakdown.
func DetermineStatus(b InvoiceBreakdown) domain.InvoiceStatus {
	return domain.DeriveInvoiceStatus(b.PaidTotal, b.DueTotal)
}

// ValidateDiscounts rejects negative discounts and discounts that exceed the subtotal.
func ValidateDiscounts(subtotal, manual, promo money.Amount) error {
	if manual.IsNegative() || promo.IsNegative() {
		return fmt.Errorf("%w: discounts cannot be negative", apperrors.ErrValidation)
	}
	if manual.GreaterThan(subtotal) {
		return fmt.Errorf("%w: manual discount %s exceeds subtotal %s", apperrors.ErrValidation, manual, subtotal)
	}
	if manual.Add(promo).GreaterThan(subtotal) {
		return fmt.Errorf("%w: combined discounts %s exceed subtotal %s", apperrors.ErrValidation, manual.Add(promo), subtotal)
	}
	return nil
}

// ValidatePayment checks an incoming amount against what is still due.
func ValidatePayment(amount, due money.Amount, allowOverpay bool) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	if !due.IsPositive() {
		return fmt.Errorf("%w: invoice is already settled", apperrors.ErrValidation)
	}
	if amount.GreaterThan(due) && !allowOverpay {
		return fmt.Errorf("%w: payment %s exceeds due amount %s", apperrors.ErrValidation, amount, due)
	}
	return nil
}

// PromoKind selects how a promo code value is interpreted.
type PromoKind string

const (
	PromoPercent PromoKind = "percent"
	PromoFixed   PromoKind = "fixed"
)

// ApplyPromoCode computes the discount a promo code grants on subtotal.
// The result is capped at maxDiscount (when given) and then at the subtotal.
func ApplyPromoCode(subtotal money.Amount, kind PromoKind, value decimal.Decimal, maxDiscount *money.Amount) (money.Amount, error) {
	if value.IsNegative() {
		return money.Zero, fmt.Errorf("%w: promo value cannot be negative", apperrors.ErrValidation)
	}

	var discount money.Amount
	switch kind {
	case PromoPercent:
		discount = subtotal.MulRate(value)
	case PromoFixed:
		discount = money.New(value)
	default:
		return money.Zero, fmt.Errorf("%w: unknown promo kind '%s'", apperrors.ErrValidation, kind)
	}

	if maxDiscount != nil {
		discount = discount.Min(*maxDiscount)
	}
	return discount.Min(subtotal.ClampZero()).ClampZero(), nil
}
