package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/platform/config"
	"github.com/SscSPs/course_billing_engine/internal/repositories/database/memory"
)

func (s *BillingSuite) assertLine(l domain.JournalLine, code, debit, credit string) {
	s.Equal(code, l.AccountCode)
	s.Equal(debit, l.Debit.String(), "debit on %s", code)
	s.Equal(credit, l.Credit.String(), "credit on %s", code)
}

func (s *BillingSuite) TestPostEnrollmentCreated() {
	j, err := s.ledger.PostEnrollmentCreated(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 7, Amount: amt("1000")}, testUser)
	s.Require().NoError(err)

	s.Equal(domain.Posted, j.Status)
	s.Equal(domain.RefEnrollment, j.ReferenceType)
	s.Equal(int64(7), *j.ReferenceID)
	s.Require().Len(j.Lines, 2)
	s.assertLine(j.Lines[0], codeReceivable, "1000.000", "0.000")
	s.assertLine(j.Lines[1], codeDeferred, "0.000", "1000.000")

	s.Equal("1000.000", s.balance(codeReceivable))
	s.Equal("1000.000", s.balance(codeDeferred))
	s.Equal(1.0, s.counter("billing_journals_posted_total", map[string]string{"reference_type": "enrollment"}))
}

func (s *BillingSuite) TestPostEnrollmentWithDiscount() {
	j, err := s.ledger.PostEnrollmentWithDiscount(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 8, Amount: amt("1000"), Discount: amt("100")}, testUser)
	s.Require().NoError(err)

	s.Require().Len(j.Lines, 3)
	s.assertLine(j.Lines[0], codeReceivable, "900.000", "0.000")
	s.assertLine(j.Lines[1], codeDiscount, "100.000", "0.000")
	s.assertLine(j.Lines[2], codeDeferred, "0.000", "1000.000")
	debits, credits := j.Totals()
	s.True(debits.Equal(credits))

	full, err := s.ledger.PostEnrollmentWithDiscount(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 9, Amount: amt("500"), Discount: amt("500")}, testUser)
	s.Require().NoError(err)
	s.Require().Len(full.Lines, 2, "no receivable line for a fully discounted enrollment")
	s.assertLine(full.Lines[0], codeDiscount, "500.000", "0.000")

	_, err = s.ledger.PostEnrollmentWithDiscount(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 10, Amount: amt("100"), Discount: amt("100.001")}, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BillingSuite) TestPostEnrollment_RepeatedReferenceReturnsExisting() {
	first, err := s.ledger.PostEnrollmentCreated(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 7, Amount: amt("1000")}, testUser)
	s.Require().NoError(err)
	second, err := s.ledger.PostEnrollmentCreated(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 7, Amount: amt("1000")}, testUser)
	s.Require().NoError(err)

	s.Equal(first.JournalID, second.JournalID)
	s.Equal("1000.000", s.balance(codeReceivable))
}

func (s *BillingSuite) TestPostPaymentJournal_Idempotent() {
	inv := s.createInvoice(7, "1000")
	p := s.createPayment(inv, "300", domain.MethodCash, domain.PaymentPaid)

	first, err := s.ledger.PostPaymentJournal(s.ctx, p.PaymentID, testUser)
	s.Require().NoError(err)
	second, err := s.ledger.PostPaymentJournal(s.ctx, p.PaymentID, testUser)
	s.Require().NoError(err)

	s.Equal(first.JournalID, second.JournalID)
	s.Equal(domain.RefPayment, first.ReferenceType)
	s.assertLine(first.Lines[0], codeCash, "300.000", "0.000")
	s.assertLine(first.Lines[1], codeRevenue, "0.000", "300.000")
	s.Equal("300.000", s.balance(codeCash), "the payment must be posted exactly once")
	s.Equal(1.0, s.counter("billing_posting_idempotent_hits_total", map[string]string{"reference_type": "payment"}))
}

func (s *BillingSuite) TestPostPaymentJournal_Rejections() {
	inv := s.createInvoice(7, "1000")
	pending := s.createPayment(inv, "300", domain.MethodCash, domain.PaymentPending)

	_, err := s.ledger.PostPaymentJournal(s.ctx, pending.PaymentID, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.ledger.PostPaymentJournal(s.ctx, 9999, testUser)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *BillingSuite) TestPostPayment_MethodRouting() {
	tests := []struct {
		method domain.PaymentMethod
		code   string
	}{
		{domain.MethodCash, codeCash},
		{domain.MethodBank, codeBank},
		{domain.MethodTransfer, codeBank},
		{domain.MethodCheque, codeBank},
		{domain.MethodGateway, codeGateway},
		{domain.MethodCard, codeGateway},
		{domain.MethodOnline, codeGateway},
	}
	for _, tt := range tests {
		j, err := s.ledger.PostPayment(s.ctx, dto.PaymentPostingRequest{Amount: amt("10"), Method: tt.method, Linked: true}, testUser)
		s.Require().NoError(err, tt.method)
		s.Equal(tt.code, j.Lines[0].AccountCode, tt.method)
	}

	_, err := s.ledger.PostPayment(s.ctx, dto.PaymentPostingRequest{Amount: amt("10"), Method: "barter", Linked: true}, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BillingSuite) TestPostPayment_UnlinkedCreditsExpense() {
	p, err := s.store.SavePayment(s.ctx, domain.Payment{Amount: amt("45.5"), Method: domain.MethodCard, Status: domain.PaymentPaid})
	s.Require().NoError(err)

	j, err := s.ledger.PostPaymentJournal(s.ctx, p.PaymentID, testUser)
	s.Require().NoError(err)
	s.assertLine(j.Lines[0], codeGateway, "45.500", "0.000")
	s.assertLine(j.Lines[1], codeExpense, "0.000", "45.500")
}

func (s *BillingSuite) TestCompletionRefundAndTransfer() {
	_, err := s.ledger.PostEnrollmentCreated(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 7, Amount: amt("1000")}, testUser)
	s.Require().NoError(err)

	completion, err := s.ledger.PostCourseCompletion(s.ctx, dto.CompletionPostingRequest{EnrollmentID: 7, Amount: amt("600")}, testUser)
	s.Require().NoError(err)
	s.Equal(domain.RefCompletion, completion.ReferenceType)
	s.assertLine(completion.Lines[0], codeDeferred, "600.000", "0.000")
	s.assertLine(completion.Lines[1], codeTraining, "0.000", "600.000")

	refund, err := s.ledger.PostRefund(s.ctx, dto.RefundPostingRequest{
		PostingContext: dto.PostingContext{ReferenceID: domain.Int64Ptr(55)},
		Amount:         amt("150"),
		Method:         domain.MethodBank,
	}, testUser)
	s.Require().NoError(err)
	s.assertLine(refund.Lines[0], codeDeferred, "150.000", "0.000")
	s.assertLine(refund.Lines[1], codeBank, "0.000", "150.000")

	transfer, err := s.ledger.PostTransfer(s.ctx, dto.TransferPostingRequest{SourceCode: codeCash, DestinationCode: codeBank, Amount: amt("20")}, testUser)
	s.Require().NoError(err)
	s.assertLine(transfer.Lines[0], codeBank, "20.000", "0.000")
	s.assertLine(transfer.Lines[1], codeCash, "0.000", "20.000")

	s.Equal("250.000", s.balance(codeDeferred))
	s.Equal("600.000", s.balance(codeTraining))
	s.Equal("-130.000", s.balance(codeBank))
	s.Equal("-20.000", s.balance(codeCash))

	_, err = s.ledger.PostTransfer(s.ctx, dto.TransferPostingRequest{SourceCode: codeCash, DestinationCode: codeCash, Amount: amt("20")}, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BillingSuite) TestPostJournalEntry_Unbalanced() {
	_, err := s.ledger.PostJournalEntry(s.ctx, dto.PostJournalRequest{
		ReferenceType: domain.RefManual,
		Debits:        []dto.JournalLineRequest{{AccountCode: codeCash, Amount: amt("100")}},
		Credits:       []dto.JournalLineRequest{{AccountCode: codeRevenue, Amount: amt("90")}},
	}, testUser)
	s.ErrorIs(err, domain.ErrJournalUnbalanced)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Equal("0.000", s.balance(codeCash), "nothing may be persisted")
	s.Equal(1.0, s.counter("billing_posting_failures_total", map[string]string{"reference_type": "manual", "kind": "validation"}))
}

func (s *BillingSuite) TestPostJournalEntry_SplitLines() {
	j, err := s.ledger.PostJournalEntry(s.ctx, dto.PostJournalRequest{
		PostingContext: dto.PostingContext{Description: "Opening balance"},
		ReferenceType:  domain.RefManual,
		Debits: []dto.JournalLineRequest{
			{AccountCode: codeCash, Amount: amt("60")},
			{AccountCode: codeBank, Amount: amt("40"), CostCenterID: domain.Int64Ptr(3)},
		},
		Credits: []dto.JournalLineRequest{{AccountCode: codeRevenue, Amount: amt("100")}},
	}, testUser)
	s.Require().NoError(err)
	s.Equal("Opening balance", j.Description)
	s.Require().Len(j.Lines, 3)
	s.Equal(int64(3), *j.Lines[1].CostCenterID)

	_, err = s.ledger.PostJournalEntry(s.ctx, dto.PostJournalRequest{
		ReferenceType: domain.RefReversal,
		Debits:        []dto.JournalLineRequest{{AccountCode: codeCash, Amount: amt("1")}},
		Credits:       []dto.JournalLineRequest{{AccountCode: codeRevenue, Amount: amt("1")}},
	}, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BillingSuite) TestPosting_ConfigurationErrors() {
	_, err := s.ledger.PostTransfer(s.ctx, dto.TransferPostingRequest{SourceCode: codeCash, DestinationCode: "9999", Amount: amt("1")}, testUser)
	s.True(apperrors.IsConfiguration(err), "unknown account: %v", err)

	_, err = s.store.SaveAccount(s.ctx, domain.Account{Code: "1999", AccountType: domain.Asset, NormalBalance: domain.DebitNormal, IsActive: false})
	s.Require().NoError(err)
	_, err = s.ledger.PostTransfer(s.ctx, dto.TransferPostingRequest{SourceCode: codeCash, DestinationCode: "1999", Amount: amt("1")}, testUser)
	s.True(apperrors.IsConfiguration(err), "inactive account: %v", err)

	codes := defaultAccountCodes()
	delete(codes, config.SettingReceivableAccount)
	repos := memory.NewRepositoryProvider(s.store)
	ledger := services.NewLedgerService(repos.TxManager, repos.AccountRepo, repos.JournalRepo, repos.InvoiceRepo, repos.PaymentRepo, services.StaticSettings(codes))
	_, err = ledger.PostEnrollmentCreated(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 1, Amount: amt("10")}, testUser)
	s.ErrorIs(err, apperrors.ErrConfiguration)
	s.False(apperrors.IsBusiness(err))
}

func (s *BillingSuite) TestSettings_StoredValueWins() {
	_, err := s.store.SaveAccount(s.ctx, domain.Account{Code: "1011", AccountType: domain.Asset, NormalBalance: domain.DebitNormal, IsActive: true})
	s.Require().NoError(err)
	s.store.SetSetting(config.SettingCashAccount, "1011")

	j, err := s.ledger.PostPayment(s.ctx, dto.PaymentPostingRequest{Amount: amt("5"), Method: domain.MethodCash, Linked: true}, testUser)
	s.Require().NoError(err)
	s.Equal("1011", j.Lines[0].AccountCode)
}

func (s *BillingSuite) TestReverseJournal() {
	original, err := s.ledger.PostEnrollmentCreated(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 7, Amount: amt("1000")}, testUser)
	s.Require().NoError(err)

	rev, err := s.ledger.ReverseJournal(s.ctx, original.JournalID, "entered twice", testUser)
	s.Require().NoError(err)
	s.Equal(domain.RefReversal, rev.ReferenceType)
	s.Equal(original.JournalID, *rev.ReferenceID)
	s.Contains(rev.Description, "entered twice")
	s.assertLine(rev.Lines[0], codeReceivable, "0.000", "1000.000")
	s.assertLine(rev.Lines[1], codeDeferred, "1000.000", "0.000")
	s.Equal("0.000", s.balance(codeReceivable))

	stored, err := s.ledger.GetJournal(s.ctx, original.JournalID)
	s.Require().NoError(err)
	s.Equal(domain.Posted, stored.Status, "the original stays untouched")

	_, err = s.ledger.ReverseJournal(s.ctx, original.JournalID, "again", testUser)
	s.ErrorIs(err, apperrors.ErrConflict)

	_, err = s.ledger.ReverseJournal(s.ctx, rev.JournalID, "undo the undo", testUser)
	s.ErrorIs(err, apperrors.ErrConflict)

	_, err = s.ledger.ReverseJournal(s.ctx, 424242, "", testUser)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *BillingSuite) TestCancelInvoice() {
	inv := s.createInvoice(7, "1000")
	enrollment, err := s.ledger.PostEnrollmentCreated(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 7, Amount: amt("1000")}, testUser)
	s.Require().NoError(err)

	_, err = s.ledger.CancelInvoice(s.ctx, inv.InvoiceID, "", testUser)
	s.ErrorIs(err, apperrors.ErrValidation, "a reason is required")

	canceled, err := s.ledger.CancelInvoice(s.ctx, inv.InvoiceID, "student withdrew", testUser)
	s.Require().NoError(err)
	s.Equal(domain.InvoiceCanceled, canceled.Status())
	s.Equal("student withdrew", canceled.CancelReason)

	rev, err := s.store.FindJournalByReference(s.ctx, domain.RefReversal, enrollment.JournalID)
	s.Require().NoError(err)
	s.assertLine(rev.Lines[0], codeReceivable, "0.000", "1000.000")
	s.Equal("0.000", s.balance(codeReceivable))

	_, err = s.ledger.CancelInvoice(s.ctx, inv.InvoiceID, "again", testUser)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *BillingSuite) TestCancelInvoice_WithPaidPaymentsIsRejected() {
	inv := s.createInvoice(7, "1000")
	_, err := s.ledger.PostEnrollmentCreated(s.ctx, dto.EnrollmentPostingRequest{EnrollmentID: 7, Amount: amt("1000")}, testUser)
	s.Require().NoError(err)
	s.createPayment(inv, "300", domain.MethodCash, domain.PaymentPaid)

	_, err = s.ledger.CancelInvoice(s.ctx, inv.InvoiceID, "student withdrew", testUser)
	s.ErrorIs(err, apperrors.ErrConflict)

	stored, err := s.invoice.GetInvoice(s.ctx, inv.InvoiceID)
	s.Require().NoError(err)
	s.False(stored.IsCanceled())
	s.Equal("1000.000", s.balance(codeReceivable), "no reversal may survive the rollback")
}

func (s *BillingSuite) TestCancelInvoice_WithoutEnrollmentJournal() {
	inv := s.createInvoice(11, "200")
	canceled, err := s.ledger.CancelInvoice(s.ctx, inv.InvoiceID, "duplicate invoice", testUser)
	s.Require().NoError(err)
	s.True(canceled.IsCanceled())
}

func (s *BillingSuite) TestValidateAccountsExist() {
	_, err := s.store.SaveAccount(s.ctx, domain.Account{Code: "1999", AccountType: domain.Asset, NormalBalance: domain.DebitNormal, IsActive: false})
	s.Require().NoError(err)

	missing, err := s.ledger.ValidateAccountsExist(s.ctx, []string{codeCash, "1999", "8888", codeCash})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"1999", "8888"}, missing)
}

func (s *BillingSuite) TestCreateAccount() {
	parent := codeRevenue
	acc, err := s.ledger.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Code: "4110", Name: "Workshop Revenue", AccountType: domain.Revenue, ParentCode: &parent,
	}, testUser)
	s.Require().NoError(err)
	s.Equal(domain.CreditNormal, acc.NormalBalance)
	s.NotNil(acc.ParentID)
	s.True(acc.IsActive)

	_, err = s.ledger.CreateAccount(s.ctx, dto.CreateAccountRequest{Code: "4110", Name: "Again", AccountType: domain.Revenue}, testUser)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	missingParent := "0000"
	_, err = s.ledger.CreateAccount(s.ctx, dto.CreateAccountRequest{Code: "4120", Name: "Orphan", AccountType: domain.Revenue, ParentCode: &missingParent}, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *BillingSuite) TestJournalDateDefaultsToNow() {
	j, err := s.ledger.PostTransfer(s.ctx, dto.TransferPostingRequest{SourceCode: codeCash, DestinationCode: codeBank, Amount: amt("1")}, testUser)
	s.Require().NoError(err)
	s.Equal(s.now, j.JournalDate)

	date := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	j, err = s.ledger.PostTransfer(context.Background(), dto.TransferPostingRequest{
		PostingContext: dto.PostingContext{JournalDate: &date},
		SourceCode:     codeCash, DestinationCode: codeBank, Amount: amt("1"),
	}, testUser)
	s.Require().NoError(err)
	s.Equal(date, j.JournalDate)
}

func (s *BillingSuite) TestPostRefund_RepeatedReferenceMustMatch() {
	refund := func(amount string) (*domain.Journal, error) {
		return s.ledger.PostRefund(s.ctx, dto.RefundPostingRequest{
			PostingContext: dto.PostingContext{ReferenceID: domain.Int64Ptr(42)},
			Amount:         amt(amount),
			Method:         domain.MethodCash,
		}, testUser)
	}

	first, err := refund("50")
	s.Require().NoError(err)

	_, err = refund("80")
	s.ErrorIs(err, apperrors.ErrConflict)
	s.Equal("-50.000", s.balance(codeCash))
	s.Equal(1.0, s.counter("billing_posting_failures_total", map[string]string{"reference_type": string(domain.RefRefund), "kind": "conflict"}))

	replay, err := refund("50")
	s.Require().NoError(err)
	s.Equal(first.JournalID, replay.JournalID)
	s.Equal("-50.000", s.balance(codeCash))
}

func (s *BillingSuite) TestPostCompletion_RepeatedReferenceWithOtherAmountConflicts() {
	_, err := s.ledger.PostCourseCompletion(s.ctx, dto.CompletionPostingRequest{EnrollmentID: 7, Amount: amt("600")}, testUser)
	s.Require().NoError(err)
	_, err = s.ledger.PostCourseCompletion(s.ctx, dto.CompletionPostingRequest{EnrollmentID: 7, Amount: amt("400")}, testUser)
	s.ErrorIs(err, apperrors.ErrConflict)
	s.Equal("600.000", s.balance(codeTraining))
}
