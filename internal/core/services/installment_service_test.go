package services_test

import (
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/dto"
)

var scheduleStart = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

func threeMonthly() dto.GenerateScheduleRequest {
	return dto.GenerateScheduleRequest{Installments: 3, Interval: domain.Monthly, StartDate: scheduleStart}
}

func (s *BillingSuite) TestGenerateSchedule_MatchesPreview() {
	inv := s.createInvoice(7, "1000")

	preview, err := s.installment.PreviewSchedule(s.ctx, dto.PreviewScheduleRequest{Total: amt("1000"), GenerateScheduleRequest: threeMonthly()})
	s.Require().NoError(err)

	saved, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)
	s.Require().Len(saved, 3)

	want := []string{"333.333", "333.333", "333.334"}
	for i, inst := range saved {
		s.Equal(want[i], inst.Amount.String())
		s.Equal(preview[i].Amount.String(), inst.Amount.String())
		s.Equal(preview[i].DueDate, inst.DueDate)
		s.Equal(i+1, inst.InstallmentNo)
		s.Equal(domain.InstallmentPending, inst.Status)
		s.NotZero(inst.InstallmentID)
	}
	s.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), saved[2].DueDate)
}

func (s *BillingSuite) TestGenerateSchedule_Rejections() {
	inv := s.createInvoice(7, "1000")

	over := threeMonthly()
	over.DownPayment = amt("1000.5")
	_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, over, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	tooMany := threeMonthly()
	tooMany.Installments = 13
	_, err = s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, tooMany, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)
	_, err = s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.ErrorIs(err, apperrors.ErrConflict)

	_, err = s.installment.GenerateSchedule(s.ctx, 9999, threeMonthly(), testUser)
	s.ErrorIs(err, apperrors.ErrNotFound)

	canceled := s.createInvoice(8, "500")
	_, err = s.ledger.CancelInvoice(s.ctx, canceled.InvoiceID, "withdrawn", testUser)
	s.Require().NoError(err)
	_, err = s.installment.GenerateSchedule(s.ctx, canceled.InvoiceID, threeMonthly(), testUser)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *BillingSuite) TestGenerateSchedule_WithDownPayment() {
	inv := s.createInvoice(7, "1000")
	req := threeMonthly()
	req.DownPayment = amt("250")

	saved, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, req, testUser)
	s.Require().NoError(err)
	s.Require().Len(saved, 4)
	s.True(saved[0].IsDownPayment)
	s.Equal(s.now, saved[0].DueDate)
	s.Equal("250.000", saved[0].Amount.String())
	s.Equal("250.000", saved[3].Amount.String())
}

func (s *BillingSuite) TestAllocatePayment_SequentialAndIdempotent() {
	inv := s.createInvoice(7, "1000")
	_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)
	p := s.createPayment(inv, "400", domain.MethodBank, domain.PaymentPaid)

	result, err := s.installment.AllocatePayment(s.ctx, inv.InvoiceID, p.PaymentID, testUser)
	s.Require().NoError(err)
	s.Equal("400.000", result.TotalAllocated.String())
	s.Equal("0.000", result.Unallocated.String())
	s.Require().Len(result.Allocations, 2)
	s.Equal("333.333", result.Allocations[0].Amount.String())
	s.Equal("66.667", result.Allocations[1].Amount.String())

	list, err := s.installment.ListInstallments(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal(domain.InstallmentPaid, list[0].Status)
	s.Equal(domain.InstallmentPending, list[1].Status)
	s.Equal("66.667", list[1].PaidAmount.String())

	again, err := s.installment.AllocatePayment(s.ctx, inv.InvoiceID, p.PaymentID, testUser)
	s.Require().NoError(err)
	s.Equal("400.000", again.TotalAllocated.String())
	s.Len(again.Allocations, 2)

	list, err = s.installment.ListInstallments(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal("66.667", list[1].PaidAmount.String(), "a replay must not apply the payment twice")
}

func (s *BillingSuite) TestAllocatePayment_OverflowIsReported() {
	inv := s.createInvoice(7, "1000")
	_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)

	first := s.createPayment(inv, "400", domain.MethodCash, domain.PaymentPaid)
	_, err = s.installment.AllocatePayment(s.ctx, inv.InvoiceID, first.PaymentID, testUser)
	s.Require().NoError(err)

	second := s.createPayment(inv, "700", domain.MethodCash, domain.PaymentPaid)
	result, err := s.installment.AllocatePayment(s.ctx, inv.InvoiceID, second.PaymentID, testUser)
	s.Require().NoError(err)
	s.Equal("600.000", result.TotalAllocated.String())
	s.Equal("100.000", result.Unallocated.String())

	summary, err := s.installment.GetInstallmentSummary(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal(3, summary.Paid)
	s.Equal(0, summary.Pending)
	s.Equal("0.000", summary.RemainingAmount.String())
	s.Nil(summary.NextDueDate)
}

func (s *BillingSuite) TestAllocatePayment_Rejections() {
	inv := s.createInvoice(7, "1000")
	other := s.createInvoice(8, "1000")
	_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)

	pending := s.createPayment(inv, "100", domain.MethodCash, domain.PaymentPending)
	_, err = s.installment.AllocatePayment(s.ctx, inv.InvoiceID, pending.PaymentID, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	foreign := s.createPayment(other, "100", domain.MethodCash, domain.PaymentPaid)
	_, err = s.installment.AllocatePayment(s.ctx, inv.InvoiceID, foreign.PaymentID, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.installment.AllocatePayment(s.ctx, inv.InvoiceID, 9999, testUser)
	s.ErrorIs(err, apperrors.ErrNotFound)

	list, err := s.installment.ListInstallments(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	for _, inst := range list {
		s.True(inst.PaidAmount.IsZero())
	}
}

func (s *BillingSuite) TestOverdueStatus() {
	inv := s.createInvoice(7, "1000")
	_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)

	march15 := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	n, err := s.installment.UpdateOverdueStatus(s.ctx, inv.InvoiceID, march15)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.installment.UpdateOverdueStatus(s.ctx, inv.InvoiceID, march15)
	s.Require().NoError(err)
	s.Zero(n, "already overdue installments stay as they are")

	summary, err := s.installment.GetInstallmentSummary(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal(3, summary.Total)
	s.Equal(2, summary.Overdue)
	s.Equal(3, summary.Pending)
	s.Equal(scheduleStart, *summary.NextDueDate)

	// An overdue installment still accepts allocations and becomes paid.
	p := s.createPayment(inv, "333.333", domain.MethodCash, domain.PaymentPaid)
	_, err = s.installment.AllocatePayment(s.ctx, inv.InvoiceID, p.PaymentID, testUser)
	s.Require().NoError(err)
	list, err := s.installment.ListInstallments(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal(domain.InstallmentPaid, list[0].Status)

	n, err = s.installment.UpdateAllOverdue(s.ctx, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(int64(1), n)
	s.Equal(3.0, s.counter("billing_installments_marked_overdue_total", nil))

	_, err = s.installment.UpdateOverdueStatus(s.ctx, 9999, march15)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *BillingSuite) TestAllocatePayment_FourEqualInstallments() {
	inv := s.createInvoice(7, "1000")
	_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, dto.GenerateScheduleRequest{
		Installments: 4, Interval: domain.Monthly, StartDate: scheduleStart,
	}, testUser)
	s.Require().NoError(err)
	p := s.createPayment(inv, "500", domain.MethodBank, domain.PaymentPaid)

	result, err := s.installment.AllocatePayment(s.ctx, inv.InvoiceID, p.PaymentID, testUser)
	s.Require().NoError(err)
	s.Equal("500.000", result.TotalAllocated.String())
	s.Equal("0.000", result.Unallocated.String())

	list, err := s.installment.ListInstallments(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Require().Len(list, 4)
	wantStatus := []domain.InstallmentStatus{domain.InstallmentPaid, domain.InstallmentPaid, domain.InstallmentPending, domain.InstallmentPending}
	for i, inst := range list {
		s.Equal("250.000", inst.Amount.String())
		s.Equal(wantStatus[i], inst.Status, "installment %d", inst.InstallmentNo)
	}
}

func (s *BillingSuite) TestAllocatePayment_UnlinkedPaymentIsRejected() {
	inv := s.createInvoice(7, "1000")
	_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)

	unlinked := s.paidPayment(nil, nil, "1000")

	_, err = s.installment.AllocatePayment(s.ctx, inv.InvoiceID, unlinked.PaymentID, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	list, err := s.installment.ListInstallments(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	for _, inst := range list {
		s.Equal(domain.InstallmentPending, inst.Status)
	}
	got, err := s.invoice.GetInvoice(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal("1000.000", got.DueAmount().String())
}

func (s *BillingSuite) TestAllocatePayment_EnrollmentPaymentOnInvoiceWithoutEnrollment() {
	inv, err := s.store.SaveInvoice(s.ctx, domain.Invoice{
		TotalAmount: amt("1000"),
		AuditFields: domain.NewAuditFields(testUser, s.now),
	})
	s.Require().NoError(err)
	_, err = s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)

	foreign := s.paidPayment(nil, domain.Int64Ptr(99), "500")

	_, err = s.installment.AllocatePayment(s.ctx, inv.InvoiceID, foreign.PaymentID, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BillingSuite) TestAllocatePayment_AllocatedDueMatchesInvoice() {
	inv := s.createInvoice(7, "1000")
	_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
	s.Require().NoError(err)

	// Linked through the enrollment only; counts toward the invoice and its installments alike.
	p := s.paidPayment(nil, inv.EnrollmentID, "1000")

	result, err := s.installment.AllocatePayment(s.ctx, inv.InvoiceID, p.PaymentID, testUser)
	s.Require().NoError(err)
	s.Equal("1000.000", result.TotalAllocated.String())

	got, err := s.invoice.GetInvoice(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.Equal(domain.InvoicePaid, got.Status())
	s.Equal("0.000", got.DueAmount().String())
}

func (s *BillingSuite) TestAllocatePayment_SecondInvoiceOfSameEnrollmentConflicts() {
	first := s.createInvoice(7, "500")
	second := s.createInvoice(7, "500")
	for _, inv := range []domain.Invoice{first, second} {
		_, err := s.installment.GenerateSchedule(s.ctx, inv.InvoiceID, threeMonthly(), testUser)
		s.Require().NoError(err)
	}

	p := s.paidPayment(nil, domain.Int64Ptr(7), "300")

	_, err := s.installment.AllocatePayment(s.ctx, first.InvoiceID, p.PaymentID, testUser)
	s.Require().NoError(err)
	_, err = s.installment.AllocatePayment(s.ctx, second.InvoiceID, p.PaymentID, testUser)
	s.ErrorIs(err, apperrors.ErrConflict)

	list, err := s.installment.ListInstallments(s.ctx, second.InvoiceID)
	s.Require().NoError(err)
	for _, inst := range list {
		s.True(inst.PaidAmount.IsZero())
	}
}
