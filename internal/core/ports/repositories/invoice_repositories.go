package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
)

// Invoice columns that can be changed through UpdateInvoiceFields.
const (
	InvoiceFieldNotes    = "notes"
	InvoiceFieldBranchID = "branch_id"
)

// Computed invoice columns. Any write attempt fails with domain.ErrComputedField.
const (
	InvoiceFieldDueAmount = "due_amount"
	InvoiceFieldPaidTotal = "paid_total"
	InvoiceFieldStatus    = "status"
)

// InvoiceReader defines read operations for invoice data. Invoices are always
// returned hydrated with their paid total.
type InvoiceReader interface {
	FindInvoiceByID(ctx context.Context, invoiceID int64) (*domain.Invoice, error)

	// FindInvoiceForUpdate loads the invoice and row-locks it until the surrounding
	// transaction ends. Must be called inside TransactionManager.WithinTransaction.
	FindInvoiceForUpdate(ctx context.Context, invoiceID int64) (*domain.Invoice, error)
}

// InvoiceWriter defines write operations for invoice data
type InvoiceWriter interface {
	// SaveInvoice persists a new invoice. Enrollment logic owns invoice creation.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)

	// UpdateInvoiceFields applies column changes keyed by column name. Computed columns
	// are rejected with domain.ErrComputedField, unknown ones with apperrors.ErrValidation.
	UpdateInvoiceFields(ctx context.Context, invoiceID int64, changes map[string]any, userID string, now time.Time) error

	// MarkInvoiceCanceled stamps the cancellation.
	MarkInvoiceCanceled(ctx context.Context, invoiceID int64, reason string, userID string, now time.Time) error
}

// InvoiceRepositoryFacade combines all invoice-related repository interfaces
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}
