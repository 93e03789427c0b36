package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/platform/config"
	"github.com/SscSPs/course_billing_engine/internal/utils/accounting"
	"github.com/samber/lo"
)

// postingLine is an account-code level line before account resolution.
type postingLine struct {
	code         string
	debit        bool
	amount       money.Amount
	costCenterID *int64
	memo         string
}

func debitLine(code string, amount money.Amount, memo string) postingLine {
	return postingLine{code: code, debit: true, amount: amount, memo: memo}
}

func creditLine(code string, amount money.Amount, memo string) postingLine {
	return postingLine{code: code, amount: amount, memo: memo}
}

// methodAccountSettings maps payment methods to the setting naming their debit account.
var methodAccountSettings = map[domain.PaymentMethod]string{
	domain.MethodCash:     config.SettingCashAccount,
	domain.MethodBank:     config.SettingBankAccount,
	domain.MethodTransfer: config.SettingBankAccount,
	domain.MethodCheque:   config.SettingBankAccount,
	domain.MethodGateway:  config.SettingGatewayAccount,
	domain.MethodCard:     config.SettingGatewayAccount,
	domain.MethodOnline:   config.SettingGatewayAccount,
}

type ledgerService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	accountRepo portsrepo.AccountRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	paymentRepo portsrepo.PaymentReader
	settings    portsrepo.SettingsReader
}

// NewLedgerService creates the posting service. settings supplies the default
// account codes; they are never hard-coded.
func NewLedgerService(
	txManager portsrepo.TransactionManager,
	accountRepo portsrepo.AccountRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	paymentRepo portsrepo.PaymentReader,
	settings portsrepo.SettingsReader,
	options ...ServiceOption,
) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		txManager:   txManager,
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		settings:    settings,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// accountCode returns explicit when set, otherwise the code configured under setting.
func (s *ledgerService) accountCode(ctx context.Context, explicit, setting string) (string, error) {
	if code := strings.TrimSpace(explicit); code != "" {
		return code, nil
	}
	return requireSetting(ctx, s.settings, setting)
}

func (s *ledgerService) methodAccountCode(ctx context.Context, explicit string, method domain.PaymentMethod) (string, error) {
	if code := strings.TrimSpace(explicit); code != "" {
		return code, nil
	}
	setting, ok := methodAccountSettings[domain.PaymentMethod(strings.ToLower(string(method)))]
	if !ok {
		return "", fmt.Errorf("%w: unknown payment method %q", apperrors.ErrValidation, method)
	}
	return requireSetting(ctx, s.settings, setting)
}

// resolveAccounts loads every referenced account. A code that is unknown or points at
// an inactive account is a configuration error.
func (s *ledgerService) resolveAccounts(ctx context.Context, lines []postingLine) (map[string]domain.Account, error) {
	codes := lo.Uniq(lo.Map(lines, func(l postingLine, _ int) string { return l.code }))
	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	for _, code := range codes {
		acc, ok := accounts[code]
		if !ok {
			return nil, fmt.Errorf("%w: account code %s not found", apperrors.ErrConfiguration, code)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrConfiguration, code)
		}
	}
	return accounts, nil
}

// post builds, validates and persists one journal. created is false when an existing
// journal for the same reference was returned instead; for references other than
// payments that only happens when the stored lines match the requested ones.
func (s *ledgerService) post(ctx context.Context, refType domain.ReferenceType, pc dto.PostingContext, description string, lines []postingLine, userID string) (*domain.Journal, bool, error) {
	logger := s.GetLogger(ctx).With(slog.String("reference_type", string(refType)))
	if pc.ReferenceID != nil {
		logger = logger.With(slog.Int64("reference_id", *pc.ReferenceID))
	}

	var saved *domain.Journal
	var created bool
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		accounts, err := s.resolveAccounts(ctx, lines)
		if err != nil {
			return err
		}

		now := s.now()
		date := now
		if pc.JournalDate != nil {
			date = pc.JournalDate.UTC()
		}
		if pc.Description != "" {
			description = pc.Description
		}

		journal := domain.NewDraftJournal(refType, pc.ReferenceID, date, description, pc.BranchID, userID, now)
		for _, l := range lines {
			acc := accounts[l.code]
			line := domain.JournalLine{AccountID: acc.AccountID, AccountCode: acc.Code, CostCenterID: l.costCenterID, Memo: l.memo}
			if l.debit {
				line.Debit = l.amount
			} else {
				line.Credit = l.amount
			}
			if err := journal.AddLine(line); err != nil {
				return err
			}
		}
		if err := journal.Post(userID, now); err != nil {
			return err
		}

		saved, created, err = s.journalRepo.InsertJournal(ctx, *journal)
		if err != nil {
			return err
		}
		// Payments are replayed by the payment workflow and always return the stored
		// journal. Any other reference must repeat the same entries to be a replay.
		if !created && refType != domain.RefPayment && !saved.SameEntries(*journal) {
			return fmt.Errorf("%w: %s reference is already posted as journal %d with different lines",
				apperrors.ErrConflict, refType, saved.JournalID)
		}
		return nil
	})
	if err != nil {
		s.Metrics.PostingFailed(string(refType), errorKind(err))
		if apperrors.IsBusiness(err) {
			logger.Warn("Journal posting rejected", slog.String("error", err.Error()))
		} else {
			logger.Error("Journal posting failed", slog.String("error", err.Error()))
		}
		return nil, false, err
	}

	if !created {
		s.Metrics.IdempotentHit(string(refType))
		logger.Info("Journal already posted for reference, returning existing", slog.Int64("journal_id", saved.JournalID))
		return saved, false, nil
	}

	s.Metrics.JournalPosted(string(refType))
	debits, _ := saved.Totals()
	logger.Info("Journal posted",
		slog.Int64("journal_id", saved.JournalID),
		slog.String("amount", debits.String()),
		slog.String("user_id", userID))
	return saved, true, nil
}

func (s *ledgerService) PostJournalEntry(ctx context.Context, req dto.PostJournalRequest, userID string) (*domain.Journal, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !req.ReferenceType.Valid() {
		return nil, fmt.Errorf("%w: unknown reference type %q", apperrors.ErrValidation, req.ReferenceType)
	}
	if req.ReferenceType == domain.RefReversal {
		return nil, fmt.Errorf("%w: reversals are created through journal reversal only", apperrors.ErrValidation)
	}

	lines := make([]postingLine, 0, len(req.Debits)+len(req.Credits))
	for _, d := range req.Debits {
		lines = append(lines, postingLine{code: d.AccountCode, debit: true, amount: d.Amount, costCenterID: d.CostCenterID, memo: d.Memo})
	}
	for _, c := range req.Credits {
		lines = append(lines, postingLine{code: c.AccountCode, amount: c.Amount, costCenterID: c.CostCenterID, memo: c.Memo})
	}

	journal, _, err := s.post(ctx, req.ReferenceType, req.PostingContext, fmt.Sprintf("%s journal entry", req.ReferenceType), lines, userID)
	return journal, err
}

func (s *ledgerService) PostEnrollmentCreated(ctx context.Context, req dto.EnrollmentPostingRequest, userID string) (*domain.Journal, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.Discount.IsPositive() {
		return s.PostEnrollmentWithDiscount(ctx, req, userID)
	}
	receivable, err := requireSetting(ctx, s.settings, config.SettingReceivableAccount)
	if err != nil {
		return nil, err
	}
	deferred, err := requireSetting(ctx, s.settings, config.SettingDeferredRevenueAccount)
	if err != nil {
		return nil, err
	}

	pc := req.PostingContext
	pc.ReferenceID = domain.Int64Ptr(req.EnrollmentID)
	journal, _, err := s.post(ctx, domain.RefEnrollment, pc, fmt.Sprintf("Enrollment #%d", req.EnrollmentID), []postingLine{
		debitLine(receivable, req.Amount, "Course fee receivable"),
		creditLine(deferred, req.Amount, "Deferred course revenue"),
	}, userID)
	return journal, err
}

// PostEnrollmentWithDiscount books Dr receivable (net) + Dr discount / Cr deferred
// revenue (gross). A discount equal to the gross amount leaves no receivable line.
func (s *ledgerService) PostEnrollmentWithDiscount(ctx context.Context, req dto.EnrollmentPostingRequest, userID string) (*domain.Journal, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.Discount.GreaterThan(req.Amount) {
		return nil, fmt.Errorf("%w: discount %s exceeds enrollment amount %s", apperrors.ErrValidation, req.Discount, req.Amount)
	}
	deferred, err := requireSetting(ctx, s.settings, config.SettingDeferredRevenueAccount)
	if err != nil {
		return nil, err
	}

	net := req.Amount.Sub(req.Discount)
	var lines []postingLine
	if net.IsPositive() {
		receivable, err := requireSetting(ctx, s.settings, config.SettingReceivableAccount)
		if err != nil {
			return nil, err
		}
		lines = append(lines, debitLine(receivable, net, "Course fee receivable"))
	}
	if req.Discount.IsPositive() {
		discount, err := requireSetting(ctx, s.settings, config.SettingDiscountAccount)
		if err != nil {
			return nil, err
		}
		lines = append(lines, debitLine(discount, req.Discount, "Enrollment discount"))
	}
	lines = append(lines, creditLine(deferred, req.Amount, "Deferred course revenue"))

	pc := req.PostingContext
	pc.ReferenceID = domain.Int64Ptr(req.EnrollmentID)
	journal, _, err := s.post(ctx, domain.RefEnrollment, pc, fmt.Sprintf("Enrollment #%d", req.EnrollmentID), lines, userID)
	return journal, err
}

func (s *ledgerService) PostPayment(ctx context.Context, req dto.PaymentPostingRequest, userID string) (*domain.Journal, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	debitCode, err := s.methodAccountCode(ctx, req.AccountCode, req.Method)
	if err != nil {
		return nil, err
	}

	creditSetting := config.SettingRevenueAccount
	creditMemo := "Payment received"
	if !req.Linked {
		creditSetting = config.SettingExpenseAccount
		creditMemo = "Unlinked payment"
		s.LogWarn(ctx, "unlinked_payment",
			slog.Any("reference_id", req.ReferenceID),
			slog.String("amount", req.Amount.String()))
	}
	creditCode, err := requireSetting(ctx, s.settings, creditSetting)
	if err != nil {
		return nil, err
	}

	description := "Payment"
	if req.ReferenceID != nil {
		description = fmt.Sprintf("Payment #%d", *req.ReferenceID)
	}
	journal, _, err := s.post(ctx, domain.RefPayment, req.PostingContext, description, []postingLine{
		debitLine(debitCode, req.Amount, fmt.Sprintf("Received via %s", req.Method)),
		creditLine(creditCode, req.Amount, creditMemo),
	}, userID)
	return journal, err
}

func (s *ledgerService) PostPaymentJournal(ctx context.Context, paymentID int64, userID string) (*domain.Journal, error) {
	existing, err := s.journalRepo.FindJournalByReference(ctx, domain.RefPayment, paymentID)
	if err == nil {
		s.Metrics.IdempotentHit(string(domain.RefPayment))
		s.LogDebug(ctx, "Payment journal already exists", slog.Int64("payment_id", paymentID), slog.Int64("journal_id", existing.JournalID))
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPaid() {
		return nil, fmt.Errorf("%w: payment %d is %s, only paid payments are posted", apperrors.ErrValidation, paymentID, payment.Status)
	}

	return s.PostPayment(ctx, dto.PaymentPostingRequest{
		PostingContext: dto.PostingContext{
			ReferenceID: domain.Int64Ptr(paymentID),
			BranchID:    payment.BranchID,
			Description: fmt.Sprintf("Payment #%d", paymentID),
			JournalDate: payment.PaidAt,
		},
		Amount: payment.Amount,
		Method: payment.Method,
		Linked: payment.IsLinked(),
	}, userID)
}

func (s *ledgerService) PostCourseCompletion(ctx context.Context, req dto.CompletionPostingRequest, userID string) (*domain.Journal, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	deferred, err := requireSetting(ctx, s.settings, config.SettingDeferredRevenueAccount)
	if err != nil {
		return nil, err
	}
	revenue, err := requireSetting(ctx, s.settings, config.SettingTrainingRevenueAccount)
	if err != nil {
		return nil, err
	}

	pc := req.PostingContext
	pc.ReferenceID = domain.Int64Ptr(req.EnrollmentID)
	journal, _, err := s.post(ctx, domain.RefCompletion, pc, fmt.Sprintf("Course completion for enrollment #%d", req.EnrollmentID), []postingLine{
		debitLine(deferred, req.Amount, "Release deferred revenue"),
		creditLine(revenue, req.Amount, "Training revenue earned"),
	}, userID)
	return journal, err
}

func (s *ledgerService) PostRefund(ctx context.Context, req dto.RefundPostingRequest, userID string) (*domain.Journal, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	deferred, err := requireSetting(ctx, s.settings, config.SettingDeferredRevenueAccount)
	if err != nil {
		return nil, err
	}
	cashCode, err := s.methodAccountCode(ctx, req.AccountCode, req.Method)
	if err != nil {
		return nil, err
	}

	journal, _, err := s.post(ctx, domain.RefRefund, req.PostingContext, "Refund", []postingLine{
		debitLine(deferred, req.Amount, "Refund of deferred revenue"),
		creditLine(cashCode, req.Amount, fmt.Sprintf("Refunded via %s", req.Method)),
	}, userID)
	return journal, err
}

func (s *ledgerService) PostTransfer(ctx context.Context, req dto.TransferPostingRequest, userID string) (*domain.Journal, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	journal, _, err := s.post(ctx, domain.RefTransfer, req.PostingContext,
		fmt.Sprintf("Transfer from %s to %s", req.SourceCode, req.DestinationCode), []postingLine{
			debitLine(req.DestinationCode, req.Amount, "Transfer in"),
			creditLine(req.SourceCode, req.Amount, "Transfer out"),
		}, userID)
	return journal, err
}

// reverse must run inside a transaction.
func (s *ledgerService) reverse(ctx context.Context, original *domain.Journal, reason, userID string) (*domain.Journal, error) {
	if _, err := s.journalRepo.FindJournalByReference(ctx, domain.RefReversal, original.JournalID); err == nil {
		return nil, fmt.Errorf("%w: journal %d has already been reversed", apperrors.ErrConflict, original.JournalID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	rev, err := original.Reversal(reason, userID, now)
	if err != nil {
		return nil, err
	}
	if err := rev.Post(userID, now); err != nil {
		return nil, err
	}
	saved, created, err := s.journalRepo.InsertJournal(ctx, *rev)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: journal %d has already been reversed", apperrors.ErrConflict, original.JournalID)
	}
	return saved, nil
}

func (s *ledgerService) ReverseJournal(ctx context.Context, journalID int64, reason string, userID string) (*domain.Journal, error) {
	var saved *domain.Journal
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		original, err := s.journalRepo.FindJournalByID(ctx, journalID)
		if err != nil {
			return err
		}
		saved, err = s.reverse(ctx, original, reason, userID)
		return err
	})
	if err != nil {
		s.Metrics.PostingFailed(string(domain.RefReversal), errorKind(err))
		s.logFailure(ctx, err, "Failed to reverse journal", slog.Int64("journal_id", journalID))
		return nil, err
	}

	s.Metrics.JournalPosted(string(domain.RefReversal))
	s.LogInfo(ctx, "Journal reversed",
		slog.Int64("journal_id", journalID),
		slog.Int64("reversal_journal_id", saved.JournalID),
		slog.String("user_id", userID))
	return saved, nil
}

// CancelInvoice voids an invoice that has no paid payments and reverses its
// enrollment journal. Invoices with paid payments go through the refund path.
func (s *ledgerService) CancelInvoice(ctx context.Context, invoiceID int64, reason string, userID string) (*domain.Invoice, error) {
	if err := dto.Validate(dto.CancelInvoiceRequest{Reason: reason}); err != nil {
		return nil, err
	}

	var canceled *domain.Invoice
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsCanceled() {
			return fmt.Errorf("%w: invoice %d is already canceled", apperrors.ErrConflict, invoiceID)
		}
		hasPaid, err := s.paymentRepo.HasPaidPayments(ctx, *inv)
		if err != nil {
			return err
		}
		if hasPaid {
			return fmt.Errorf("%w: invoice %d has paid payments, refund them instead of canceling", apperrors.ErrConflict, invoiceID)
		}

		if inv.EnrollmentID != nil {
			if err := s.reverseEnrollment(ctx, *inv.EnrollmentID, reason, userID); err != nil {
				return err
			}
		}

		if err := s.invoiceRepo.MarkInvoiceCanceled(ctx, invoiceID, reason, userID, s.now()); err != nil {
			return err
		}
		canceled, err = s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
		return err
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to cancel invoice", slog.Int64("invoice_id", invoiceID))
		return nil, err
	}

	s.LogInfo(ctx, "Invoice canceled", slog.Int64("invoice_id", invoiceID), slog.String("user_id", userID))
	return canceled, nil
}

func (s *ledgerService) reverseEnrollment(ctx context.Context, enrollmentID int64, reason, userID string) error {
	journal, err := s.journalRepo.FindJournalByReference(ctx, domain.RefEnrollment, enrollmentID)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.LogWarn(ctx, "No enrollment journal to reverse", slog.Int64("enrollment_id", enrollmentID))
		return nil
	}
	if err != nil {
		return err
	}

	rev, err := s.reverse(ctx, journal, "Invoice canceled: "+reason, userID)
	if errors.Is(err, apperrors.ErrConflict) {
		s.LogWarn(ctx, "Enrollment journal already reversed",
			slog.Int64("enrollment_id", enrollmentID),
			slog.Int64("journal_id", journal.JournalID))
		return nil
	}
	if err != nil {
		return err
	}
	s.Metrics.JournalPosted(string(domain.RefReversal))
	s.LogInfo(ctx, "Enrollment journal reversed",
		slog.Int64("journal_id", journal.JournalID),
		slog.Int64("reversal_journal_id", rev.JournalID))
	return nil
}

func (s *ledgerService) GetJournal(ctx context.Context, journalID int64) (*domain.Journal, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load journal", slog.Int64("journal_id", journalID))
		}
		return nil, err
	}
	return journal, nil
}

func (s *ledgerService) GetAccountBalance(ctx context.Context, code string) (*domain.AccountBalance, error) {
	acc, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	debits, credits, err := s.accountRepo.SumPostedLines(ctx, acc.AccountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum account lines", slog.String("account_code", code))
		return nil, err
	}
	balance, err := accounting.SignedBalance(acc.NormalBalance, debits, credits)
	if err != nil {
		return nil, err
	}
	return &domain.AccountBalance{
		AccountCode:   acc.Code,
		NormalBalance: acc.NormalBalance,
		Debits:        debits,
		Credits:       credits,
		Balance:       balance,
	}, nil
}

func (s *ledgerService) ValidateAccountsExist(ctx context.Context, codes []string) ([]string, error) {
	codes = lo.Uniq(codes)
	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	missing := lo.Filter(codes, func(code string, _ int) bool {
		acc, ok := accounts[code]
		return !ok || !acc.IsActive
	})
	if len(missing) > 0 {
		s.LogWarn(ctx, "Ledger accounts missing or inactive", slog.Any("codes", missing))
	}
	return missing, nil
}

func (s *ledgerService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	account := domain.Account{
		Code:          req.Code,
		Name:          req.Name,
		AccountType:   req.AccountType,
		NormalBalance: req.NormalBalance,
		IsActive:      true,
		AuditFields:   domain.NewAuditFields(userID, now),
	}
	if account.NormalBalance == "" {
		account.NormalBalance = domain.DefaultNormalBalance(account.AccountType)
	}
	if req.ParentCode != nil {
		parent, err := s.accountRepo.FindAccountByCode(ctx, *req.ParentCode)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: parent account %s not found", apperrors.ErrValidation, *req.ParentCode)
		}
		if err != nil {
			return nil, err
		}
		account.ParentID = &parent.AccountID
	}

	saved, err := s.accountRepo.SaveAccount(ctx, account)
	if err != nil {
		s.logFailure(ctx, err, "Failed to create account", slog.String("account_code", req.Code))
		return nil, err
	}
	s.LogInfo(ctx, "Account created", slog.String("account_code", saved.Code), slog.Int64("account_id", saved.AccountID))
	return saved, nil
}
