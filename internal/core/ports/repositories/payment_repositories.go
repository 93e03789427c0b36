package repositories

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
)

// PaymentReader defines read operations for payment data. Payments are written by
// the payment workflow; the engine only reads them.
type PaymentReader interface {
	FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error)

	// FindPaymentForUpdate locks the payment row until the surrounding transaction
	// ends. It fails outside a transaction.
	FindPaymentForUpdate(ctx context.Context, paymentID int64) (*domain.Payment, error)

	// HasPaidPayments reports whether any paid payment belongs to the invoice, per
	// domain.Payment.BelongsTo.
	HasPaidPayments(ctx context.Context, invoice domain.Invoice) (bool, error)
}

// PaymentWriter exists for setup and tests; production payments arrive from the
// payment workflow.
type PaymentWriter interface {
	SavePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error)
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
