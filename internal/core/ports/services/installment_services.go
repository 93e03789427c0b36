package services

import (
	"context"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/utils/accounting"
)

// InstallmentSchedulerSvc builds and commits installment plans.
type InstallmentSchedulerSvc interface {
	// PreviewSchedule computes a plan without persisting anything.
	PreviewSchedule(ctx context.Context, req dto.PreviewScheduleRequest) ([]accounting.ScheduleLine, error)

	// GenerateSchedule persists the plan for an invoice.
	GenerateSchedule(ctx context.Context, invoiceID int64, req dto.GenerateScheduleRequest, userID string) ([]domain.Installment, error)
}

// InstallmentAllocatorSvc applies paid payments to installments.
type InstallmentAllocatorSvc interface {
	AllocatePayment(ctx context.Context, invoiceID int64, paymentID int64, userID string) (*domain.AllocationResult, error)
}

// InstallmentStatusSvc maintains and reports installment state.
type InstallmentStatusSvc interface {
	// UpdateOverdueStatus flips pending installments past due to overdue and returns the count changed.
	UpdateOverdueStatus(ctx context.Context, invoiceID int64, now time.Time) (int64, error)

	// UpdateAllOverdue runs the overdue transition across every invoice.
	UpdateAllOverdue(ctx context.Context, now time.Time) (int64, error)

	ListInstallments(ctx context.Context, invoiceID int64) ([]domain.Installment, error)

	GetInstallmentSummary(ctx context.Context, invoiceID int64) (*domain.InstallmentSummary, error)
}

// InstallmentSvcFacade combines all installment service interfaces
type InstallmentSvcFacade interface {
	InstallmentSchedulerSvc
	InstallmentAllocatorSvc
	InstallmentStatusSvc
}
