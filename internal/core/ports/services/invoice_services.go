package services

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/dto"
)

// InvoiceCalculatorSvc exposes the pure invoice calculator.
type InvoiceCalculatorSvc interface {
	Calculate(req dto.CalculateInvoiceRequest) (*dto.CalculateInvoiceResponse, error)
}

// InvoiceReaderSvc defines read operations for invoices.
type InvoiceReaderSvc interface {
	// GetInvoice returns the invoice with its derived paid total, due amount and status.
	GetInvoice(ctx context.Context, invoiceID int64) (*domain.Invoice, error)

	// ValidatePayment checks a prospective payment amount against what is still due.
	ValidatePayment(ctx context.Context, invoiceID int64, req dto.ValidatePaymentRequest) error
}

// InvoiceWriterSvc defines write operations for invoices.
type InvoiceWriterSvc interface {
	// UpdateInvoice applies field changes. Derived fields such as dueAmount are
	// rejected with domain.ErrComputedField.
	UpdateInvoice(ctx context.Context, invoiceID int64, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error)
}

// InvoiceSvcFacade combines all invoice service interfaces
type InvoiceSvcFacade interface {
	InvoiceCalculatorSvc
	InvoiceReaderSvc
	InvoiceWriterSvc
}
