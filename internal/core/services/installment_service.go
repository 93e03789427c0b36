package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/utils/accounting"
	"github.com/samber/lo"
)

type installmentService struct {
	BaseService
	txManager       portsrepo.TransactionManager
	invoiceRepo     portsrepo.InvoiceReader
	paymentRepo     portsrepo.PaymentReader
	installmentRepo portsrepo.InstallmentRepositoryFacade
	maxInstallments int
}

// NewInstallmentService creates the scheduler and allocator. maxInstallments caps
// plan length; 0 disables the cap.
func NewInstallmentService(
	txManager portsrepo.TransactionManager,
	invoiceRepo portsrepo.InvoiceReader,
	paymentRepo portsrepo.PaymentReader,
	installmentRepo portsrepo.InstallmentRepositoryFacade,
	maxInstallments int,
	options ...ServiceOption,
) portssvc.InstallmentSvcFacade {
	svc := &installmentService{
		txManager:       txManager,
		invoiceRepo:     invoiceRepo,
		paymentRepo:     paymentRepo,
		installmentRepo: installmentRepo,
		maxInstallments: maxInstallments,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.InstallmentSvcFacade = (*installmentService)(nil)

func (s *installmentService) scheduleInput(total money.Amount, req dto.GenerateScheduleRequest) accounting.ScheduleInput {
	return accounting.ScheduleInput{
		Total:           total,
		DownPayment:     req.DownPayment,
		Installments:    req.Installments,
		Interval:        req.Interval,
		StartDate:       req.StartDate,
		MaxInstallments: s.maxInstallments,
	}
}

func (s *installmentService) PreviewSchedule(ctx context.Context, req dto.PreviewScheduleRequest) ([]accounting.ScheduleLine, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	return accounting.BuildSchedule(s.scheduleInput(req.Total, req.GenerateScheduleRequest), s.now())
}

func (s *installmentService) GenerateSchedule(ctx context.Context, invoiceID int64, req dto.GenerateScheduleRequest, userID string) ([]domain.Installment, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var saved []domain.Installment
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsCanceled() {
			return fmt.Errorf("%w: invoice %d is canceled", apperrors.ErrConflict, invoiceID)
		}

		existing, err := s.installmentRepo.ListInstallmentsByInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: invoice %d already has an installment schedule", apperrors.ErrConflict, invoiceID)
		}

		now := s.now()
		lines, err := accounting.BuildSchedule(s.scheduleInput(inv.TotalAmount, req), now)
		if err != nil {
			return err
		}

		rows := lo.Map(lines, func(l accounting.ScheduleLine, _ int) domain.Installment {
			return domain.Installment{
				InvoiceID:     invoiceID,
				InstallmentNo: l.InstallmentNo,
				Amount:        l.Amount,
				DueDate:       l.DueDate,
				PaidAmount:    money.Zero,
				Status:        domain.InstallmentPending,
				IsDownPayment: l.IsDownPayment,
				AuditFields:   domain.NewAuditFields(userID, now),
			}
		})
		saved, err = s.installmentRepo.InsertInstallments(ctx, rows)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to generate installment schedule", slog.Int64("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Installment schedule generated",
		slog.Int64("invoice_id", invoiceID),
		slog.Int("installments", len(saved)),
		slog.String("user_id", userID))
	return saved, nil
}

func allocationResult(payment domain.Payment, invoiceID int64, allocations []domain.InstallmentAllocation) *domain.AllocationResult {
	total := money.Sum(lo.Map(allocations, func(a domain.InstallmentAllocation, _ int) money.Amount { return a.Amount })...)
	return &domain.AllocationResult{
		PaymentID:      payment.PaymentID,
		InvoiceID:      invoiceID,
		TotalAllocated: total,
		Unallocated:    payment.Amount.Sub(total).ClampZero(),
		Allocations:    allocations,
	}
}

func (s *installmentService) AllocatePayment(ctx context.Context, invoiceID int64, paymentID int64, userID string) (*domain.AllocationResult, error) {
	var result *domain.AllocationResult
	replayed := false

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		// Row lock serializes allocators working on the same invoice.
		inv, err := s.invoiceRepo.FindInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsCanceled() {
			return fmt.Errorf("%w: invoice %d is canceled", apperrors.ErrConflict, invoiceID)
		}

		// Payment lock serializes allocators of the same payment across invoices;
		// always taken after the invoice lock.
		payment, err := s.paymentRepo.FindPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if !payment.IsPaid() {
			return fmt.Errorf("%w: payment %d is %s, only paid payments can be allocated", apperrors.ErrValidation, paymentID, payment.Status)
		}
		if !payment.IsLinked() {
			return fmt.Errorf("%w: payment %d is not linked to an invoice or enrollment", apperrors.ErrValidation, paymentID)
		}
		if !payment.BelongsTo(*inv) {
			return fmt.Errorf("%w: payment %d does not belong to invoice %d", apperrors.ErrValidation, paymentID, invoiceID)
		}

		previous, err := s.installmentRepo.ListAllocationsByPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if len(previous) > 0 {
			if previous[0].InvoiceID != invoiceID {
				return fmt.Errorf("%w: payment %d is already allocated to invoice %d", apperrors.ErrConflict, paymentID, previous[0].InvoiceID)
			}
			replayed = true
			result = allocationResult(*payment, invoiceID, previous)
			return nil
		}

		installments, err := s.installmentRepo.ListInstallmentsByInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}

		now := s.now()
		remaining := payment.Amount
		var allocations []domain.InstallmentAllocation
		for i := range installments {
			if !remaining.IsPositive() {
				break
			}
			inst := &installments[i]
			if !inst.IsOpen() {
				continue
			}
			applied := inst.Apply(remaining)
			if applied.IsZero() {
				continue
			}
			inst.Touch(userID, now)
			if err := s.installmentRepo.UpdateInstallmentPayment(ctx, *inst); err != nil {
				return err
			}
			allocations = append(allocations, domain.InstallmentAllocation{
				PaymentID:     paymentID,
				InvoiceID:     invoiceID,
				InstallmentID: inst.InstallmentID,
				Amount:        applied,
				CreatedAt:     now,
				CreatedBy:     userID,
			})
			remaining = remaining.Sub(applied)
		}

		if len(allocations) > 0 {
			if err := s.installmentRepo.InsertAllocations(ctx, allocations); err != nil {
				return err
			}
		}
		result = allocationResult(*payment, invoiceID, allocations)
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to allocate payment",
			slog.Int64("invoice_id", invoiceID),
			slog.Int64("payment_id", paymentID))
		return nil, err
	}

	if replayed {
		s.LogInfo(ctx, "Payment already allocated, returning recorded allocations",
			slog.Int64("invoice_id", invoiceID),
			slog.Int64("payment_id", paymentID))
		return result, nil
	}

	s.Metrics.Allocated(result.TotalAllocated.Decimal().InexactFloat64(), result.Unallocated.Decimal().InexactFloat64())
	if result.Unallocated.IsPositive() {
		s.LogWarn(ctx, "Payment exceeds open installments",
			slog.Int64("invoice_id", invoiceID),
			slog.Int64("payment_id", paymentID),
			slog.String("unallocated", result.Unallocated.String()))
	}
	s.LogInfo(ctx, "Payment allocated",
		slog.Int64("invoice_id", invoiceID),
		slog.Int64("payment_id", paymentID),
		slog.Int("installments", len(result.Allocations)),
		slog.String("allocated", result.TotalAllocated.String()))
	return result, nil
}

func (s *installmentService) UpdateOverdueStatus(ctx context.Context, invoiceID int64, now time.Time) (int64, error) {
	if _, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID); err != nil {
		return 0, err
	}
	if now.IsZero() {
		now = s.now()
	}
	n, err := s.installmentRepo.MarkInstallmentsOverdue(ctx, &invoiceID, now, systemUserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to update overdue installments", slog.Int64("invoice_id", invoiceID))
		return 0, err
	}
	s.Metrics.OverdueMarked(n)
	s.LogDebug(ctx, "Overdue status updated", slog.Int64("invoice_id", invoiceID), slog.Int64("changed", n))
	return n, nil
}

func (s *installmentService) UpdateAllOverdue(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		now = s.now()
	}
	n, err := s.installmentRepo.MarkInstallmentsOverdue(ctx, nil, now, systemUserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to sweep overdue installments")
		return 0, err
	}
	s.Metrics.OverdueMarked(n)
	if n > 0 {
		s.LogInfo(ctx, "Installments marked overdue", slog.Int64("changed", n))
	}
	return n, nil
}

func (s *installmentService) ListInstallments(ctx context.Context, invoiceID int64) ([]domain.Installment, error) {
	if _, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load invoice", slog.Int64("invoice_id", invoiceID))
		}
		return nil, err
	}
	return s.installmentRepo.ListInstallmentsByInvoice(ctx, invoiceID)
}

func (s *installmentService) GetInstallmentSummary(ctx context.Context, invoiceID int64) (*domain.InstallmentSummary, error) {
	installments, err := s.ListInstallments(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	summary := domain.Summarize(invoiceID, installments)
	return &summary, nil
}
