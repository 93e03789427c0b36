package services

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/dto"
)

// JournalPostingSvc turns business events into posted, balanced journals.
type JournalPostingSvc interface {
	// PostJournalEntry is the general-purpose primitive underlying every other posting.
	PostJournalEntry(ctx context.Context, req dto.PostJournalRequest, userID string) (*domain.Journal, error)

	PostEnrollmentCreated(ctx context.Context, req dto.EnrollmentPostingRequest, userID string) (*domain.Journal, error)
	PostEnrollmentWithDiscount(ctx context.Context, req dto.EnrollmentPostingRequest, userID string) (*domain.Journal, error)
	PostPayment(ctx context.Context, req dto.PaymentPostingRequest, userID string) (*domain.Journal, error)
	PostCourseCompletion(ctx context.Context, req dto.CompletionPostingRequest, userID string) (*domain.Journal, error)
	PostRefund(ctx context.Context, req dto.RefundPostingRequest, userID string) (*domain.Journal, error)
	PostTransfer(ctx context.Context, req dto.TransferPostingRequest, userID string) (*domain.Journal, error)

	// PostPaymentJournal reacts to a payment becoming paid. It creates the payment's
	// journal exactly once and returns the existing one on repeated calls.
	PostPaymentJournal(ctx context.Context, paymentID int64, userID string) (*domain.Journal, error)
}

// JournalReversalSvc undoes posted journals through new journals.
type JournalReversalSvc interface {
	ReverseJournal(ctx context.Context, journalID int64, reason string, userID string) (*domain.Journal, error)
	CancelInvoice(ctx context.Context, invoiceID int64, reason string, userID string) (*domain.Invoice, error)
}

// LedgerReaderSvc defines read operations over the ledger.
type LedgerReaderSvc interface {
	GetJournal(ctx context.Context, journalID int64) (*domain.Journal, error)
	GetAccountBalance(ctx context.Context, code string) (*domain.AccountBalance, error)

	// ValidateAccountsExist returns the codes that are missing or inactive.
	ValidateAccountsExist(ctx context.Context, codes []string) ([]string, error)
}

// AccountSetupSvc creates chart-of-accounts nodes.
type AccountSetupSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	JournalPostingSvc
	JournalReversalSvc
	LedgerReaderSvc
	AccountSetupSvc
}

