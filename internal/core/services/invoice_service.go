package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/utils/accounting"
)

// invoiceFieldColumns maps request field names to invoice columns. Derived fields are
// listed so the repository can refuse them loudly rather than ignore them.
var invoiceFieldColumns = map[string]string{
	"notes":     portsrepo.InvoiceFieldNotes,
	"branchID":  portsrepo.InvoiceFieldBranchID,
	"dueAmount": portsrepo.InvoiceFieldDueAmount,
	"paidTotal": portsrepo.InvoiceFieldPaidTotal,
	"status":    portsrepo.InvoiceFieldStatus,
}

type invoiceService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	invoiceRepo portsrepo.InvoiceRepositoryFacade
}

// NewInvoiceService creates the invoice calculator and invoice read/update service.
func NewInvoiceService(txManager portsrepo.TransactionManager, invoiceRepo portsrepo.InvoiceRepositoryFacade, options ...ServiceOption) portssvc.InvoiceSvcFacade {
	svc := &invoiceService{txManager: txManager, invoiceRepo: invoiceRepo}
	svc.apply(options)
	return svc
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

func (s *invoiceService) Calculate(req dto.CalculateInvoiceRequest) (*dto.CalculateInvoiceResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.TaxRate.IsNegative() {
		return nil, fmt.Errorf("%w: tax rate cannot be negative", apperrors.ErrValidation)
	}

	subtotal := req.Subtotal
	perSession := req.SessionPrice != nil && req.Sessions != nil
	if perSession {
		subtotal = req.SessionPrice.Mul(*req.Sessions)
	}

	promo := req.PromoDiscount
	if req.Promo != nil {
		var err error
		promo, err = accounting.ApplyPromoCode(subtotal, req.Promo.Kind, req.Promo.Value, req.Promo.MaxDiscount)
		if err != nil {
			return nil, err
		}
	}
	if req.Strict {
		if err := accounting.ValidateDiscounts(subtotal, req.ManualDiscount, promo); err != nil {
			return nil, err
		}
	}

	in := accounting.InvoiceInput{
		Subtotal:       req.Subtotal,
		ManualDiscount: req.ManualDiscount,
		PromoDiscount:  promo,
		TaxRate:        req.TaxRate,
		PaidTotal:      req.PaidTotal,
	}
	var breakdown accounting.InvoiceBreakdown
	if perSession {
		var err error
		breakdown, err = accounting.CalculatePerSession(*req.SessionPrice, *req.Sessions, in)
		if err != nil {
			return nil, err
		}
	} else {
		breakdown = accounting.CalculateInvoice(in)
	}

	return &dto.CalculateInvoiceResponse{
		InvoiceBreakdown: breakdown,
		Status:           accounting.DetermineStatus(breakdown),
	}, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	return s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
}

func (s *invoiceService) ValidatePayment(ctx context.Context, invoiceID int64, req dto.ValidatePaymentRequest) error {
	inv, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv.IsCanceled() {
		return fmt.Errorf("%w: invoice %d is canceled", apperrors.ErrConflict, invoiceID)
	}
	return accounting.ValidatePayment(req.Amount, inv.DueAmount(), req.AllowOverpay)
}

// toColumnChanges translates request fields to columns. JSON numbers decode as float64.
func toColumnChanges(req dto.UpdateInvoiceRequest) (map[string]any, error) {
	changes := make(map[string]any, len(req))
	for field, value := range req {
		column, ok := invoiceFieldColumns[field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown invoice field %q", apperrors.ErrValidation, field)
		}
		if column == portsrepo.InvoiceFieldBranchID {
			switch v := value.(type) {
			case nil:
			case float64:
				if v != math.Trunc(v) || v <= 0 {
					return nil, fmt.Errorf("%w: branchID must be a positive integer", apperrors.ErrValidation)
				}
				value = int64(v)
			case int64:
			default:
				return nil, fmt.Errorf("%w: branchID must be a number", apperrors.ErrValidation)
			}
		}
		if column == portsrepo.InvoiceFieldNotes {
			if _, ok := value.(string); !ok {
				return nil, fmt.Errorf("%w: notes must be a string", apperrors.ErrValidation)
			}
		}
		changes[column] = value
	}
	return changes, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, invoiceID int64, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error) {
	if len(req) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}
	changes, err := toColumnChanges(req)
	if err != nil {
		return nil, err
	}

	var updated *domain.Invoice
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsCanceled() {
			return fmt.Errorf("%w: invoice %d is canceled", apperrors.ErrConflict, invoiceID)
		}
		if err := s.invoiceRepo.UpdateInvoiceFields(ctx, invoiceID, changes, userID, s.now()); err != nil {
			return err
		}
		updated, err = s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to update invoice", slog.Int64("invoice_id", invoiceID))
		return nil, err
	}
	return updated, nil
}
