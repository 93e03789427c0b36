package services_test

import (
	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

func (s *BillingSuite) TestCalculate() {
	resp, err := s.invoice.Calculate(dto.CalculateInvoiceRequest{
		Subtotal: amt("100"), ManualDiscount: amt("80"), PromoDiscount: amt("50"),
	})
	s.Require().NoError(err)
	s.Equal("80.000", resp.ManualDiscount.String())
	s.Equal("20.000", resp.PromoDiscount.String())
	s.Equal("0.000", resp.Total.String())
	s.Equal(domain.InvoiceOpen, resp.Status)

	_, err = s.invoice.Calculate(dto.CalculateInvoiceRequest{
		Subtotal: amt("100"), ManualDiscount: amt("80"), PromoDiscount: amt("50"), Strict: true,
	})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BillingSuite) TestCalculate_PerSessionWithPromo() {
	sessions := int64(4)
	sessionPrice := amt("50")
	resp, err := s.invoice.Calculate(dto.CalculateInvoiceRequest{
		SessionPrice: &sessionPrice,
		Sessions:     &sessions,
		Promo:        &dto.PromoCodeRequest{Kind: accounting.PromoPercent, Value: decimal.NewFromInt(10)},
		TaxRate:      decimal.NewFromInt(5),
		PaidTotal:    amt("100"),
	})
	s.Require().NoError(err)
	s.Equal("200.000", resp.Subtotal.String())
	s.Equal("20.000", resp.PromoDiscount.String())
	s.Equal("9.000", resp.TaxTotal.String())
	s.Equal("189.000", resp.Total.String())
	s.Equal("89.000", resp.DueTotal.String())
	s.Equal(domain.InvoicePartial, resp.Status)

	_, err = s.invoice.Calculate(dto.CalculateInvoiceRequest{Subtotal: amt("10"), TaxRate: decimal.NewFromInt(-1)})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BillingSuite) TestInvoiceDueAmountIsDerived() {
	inv := s.createInvoice(7, "1000")

	s.createPayment(inv, "300", domain.MethodCash, domain.PaymentPaid)
	got, err := s.invoice.GetInvoice(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal("700.000", got.DueAmount().String())
	s.Equal(domain.InvoicePartial, got.Status())

	s.createPayment(inv, "700", domain.MethodBank, domain.PaymentPaid)
	got, err = s.invoice.GetInvoice(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal("0.000", got.DueAmount().String())
	s.Equal(domain.InvoicePaid, got.Status())
}

func (s *BillingSuite) TestUpdateInvoice_ComputedFieldsAreRefused() {
	inv := s.createInvoice(7, "1000")

	_, err := s.invoice.UpdateInvoice(s.ctx, inv.InvoiceID, dto.UpdateInvoiceRequest{"dueAmount": "0"}, testUser)
	s.ErrorIs(err, domain.ErrComputedField)
	s.True(apperrors.IsConfiguration(err))

	_, err = s.invoice.UpdateInvoice(s.ctx, inv.InvoiceID, dto.UpdateInvoiceRequest{"notes": "ok", "status": "paid"}, testUser)
	s.ErrorIs(err, domain.ErrComputedField)

	got, err := s.invoice.GetInvoice(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Empty(got.Notes, "a refused update must not apply partially")

	_, err = s.invoice.UpdateInvoice(s.ctx, inv.InvoiceID, dto.UpdateInvoiceRequest{"total": 5}, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	updated, err := s.invoice.UpdateInvoice(s.ctx, inv.InvoiceID, dto.UpdateInvoiceRequest{"notes": "pays monthly", "branchID": float64(3)}, testUser)
	s.Require().NoError(err)
	s.Equal("pays monthly", updated.Notes)
	s.Equal(int64(3), *updated.BranchID)
}

func (s *BillingSuite) TestValidatePayment() {
	inv := s.createInvoice(7, "1000")
	s.createPayment(inv, "900", domain.MethodCash, domain.PaymentPaid)

	s.NoError(s.invoice.ValidatePayment(s.ctx, inv.InvoiceID, dto.ValidatePaymentRequest{Amount: amt("100")}))
	s.ErrorIs(s.invoice.ValidatePayment(s.ctx, inv.InvoiceID, dto.ValidatePaymentRequest{Amount: amt("100.001")}), apperrors.ErrValidation)
	s.NoError(s.invoice.ValidatePayment(s.ctx, inv.InvoiceID, dto.ValidatePaymentRequest{Amount: amt("150"), AllowOverpay: true}))
	s.ErrorIs(s.invoice.ValidatePayment(s.ctx, 9999, dto.ValidatePaymentRequest{Amount: amt("1")}), apperrors.ErrNotFound)
}
