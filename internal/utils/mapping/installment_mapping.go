package mapping

import (
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/models"
)

func ToModelInstallment(d domain.Installment) models.Installment {
	return models.Installment{
		InstallmentID: d.InstallmentID,
		InvoiceID:     d.InvoiceID,
		InstallmentNo: d.InstallmentNo,
		Amount:        d.Amount,
		DueDate:       d.DueDate,
		PaidAmount:    d.PaidAmount,
		Status:        string(d.Status),
		IsDownPayment: d.IsDownPayment,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainInstallment(m models.Installment) domain.Installment {
	return domain.Installment{
		InstallmentID: m.InstallmentID,
		InvoiceID:     m.InvoiceID,
		InstallmentNo: m.InstallmentNo,
		Amount:        m.Amount,
		DueDate:       m.DueDate,
		PaidAmount:    m.PaidAmount,
		Status:        domain.InstallmentStatus(m.Status),
		IsDownPayment: m.IsDownPayment,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

func ToModelAllocation(d domain.InstallmentAllocation) models.InstallmentAllocation {
	return models.InstallmentAllocation{
		AllocationID:  d.AllocationID,
		PaymentID:     d.PaymentID,
		InvoiceID:     d.InvoiceID,
		InstallmentID: d.InstallmentID,
		AmountApplied: d.Amount,
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
	}
}

func ToDomainAllocation(m models.InstallmentAllocation) domain.InstallmentAllocation {
	return domain.InstallmentAllocation{
		AllocationID:  m.AllocationID,
		PaymentID:     m.PaymentID,
		InvoiceID:     m.InvoiceID,
		InstallmentID: m.InstallmentID,
		Amount:        m.AmountApplied,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}
