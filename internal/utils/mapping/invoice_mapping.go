package mapping

import (
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/models"
)

// ToModelInvoice drops the derived fields; they are never stored.
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:    d.InvoiceID,
		EnrollmentID: d.EnrollmentID,
		BranchID:     d.BranchID,
		TotalAmount:  d.TotalAmount,
		Notes:        d.Notes,
		CanceledAt:   d.CanceledAt,
		CancelReason: d.CancelReason,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInvoice hydrates the invoice with the paid total computed by the query.
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	inv := domain.Invoice{
		InvoiceID:    m.InvoiceID,
		EnrollmentID: m.EnrollmentID,
		BranchID:     m.BranchID,
		TotalAmount:  m.TotalAmount,
		Notes:        m.Notes,
		CanceledAt:   m.CanceledAt,
		CancelReason: m.CancelReason,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
	return inv.WithPaidTotal(m.PaidTotal)
}

func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:    d.PaymentID,
		InvoiceID:    d.InvoiceID,
		EnrollmentID: d.EnrollmentID,
		BranchID:     d.BranchID,
		Amount:       d.Amount,
		Method:       string(d.Method),
		Status:       string(d.Status),
		PaidAt:       d.PaidAt,
		Reference:    d.Reference,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:    m.PaymentID,
		InvoiceID:    m.InvoiceID,
		EnrollmentID: m.EnrollmentID,
		BranchID:     m.BranchID,
		Amount:       m.Amount,
		Method:       domain.PaymentMethod(m.Method),
		Status:       domain.PaymentStatus(m.Status),
		PaidAt:       m.PaidAt,
		Reference:    m.Reference,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
