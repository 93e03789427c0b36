package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
)

// InstallmentReader defines read operations for installment data
type InstallmentReader interface {
	// ListInstallmentsByInvoice returns every installment of the invoice ordered by installment number.
	ListInstallmentsByInvoice(ctx context.Context, invoiceID int64) ([]domain.Installment, error)

	// ListAllocationsByPayment returns the allocations previously recorded for a payment.
	ListAllocationsByPayment(ctx context.Context, paymentID int64) ([]domain.InstallmentAllocation, error)
}

// InstallmentWriter defines write operations for installment data
type InstallmentWriter interface {
	// InsertInstallments persists a full schedule and returns it with ids assigned.
	InsertInstallments(ctx context.Context, installments []domain.Installment) ([]domain.Installment, error)

	// UpdateInstallmentPayment stores paid_amount and status.
	UpdateInstallmentPayment(ctx context.Context, installment domain.Installment) error

	// InsertAllocations records how a payment was spread across installments.
	InsertAllocations(ctx context.Context, allocations []domain.InstallmentAllocation) error

	// MarkInstallmentsOverdue moves pending installments with due_date < now to overdue.
	// A nil invoiceID sweeps every invoice. Returns the number of rows changed.
	MarkInstallmentsOverdue(ctx context.Context, invoiceID *int64, now time.Time, userID string) (int64, error)
}

// InstallmentRepositoryFacade combines all installment-related repository interfaces
type InstallmentRepositoryFacade interface {
	InstallmentReader
	InstallmentWriter
}
