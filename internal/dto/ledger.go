package dto

import (
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// PostingContext carries the metadata shared by every posting request.
type PostingContext struct {
	ReferenceID *int64     `json:"referenceID"`
	BranchID    *int64     `json:"branchID"`
	Description string     `json:"description" validate:"max=500"`
	JournalDate *time.Time `json:"journalDate"` // Defaults to now
}

// JournalLineRequest is one side of a general journal entry.
type JournalLineRequest struct {
	AccountCode  string       `json:"accountCode" validate:"required"`
	Amount       money.Amount `json:"amount" validate:"amount_gt=0"`
	CostCenterID *int64       `json:"costCenterID"`
	Memo         string       `json:"memo" validate:"max=255"`
}

// PostJournalRequest is the general-purpose double-entry primitive.
type PostJournalRequest struct {
	PostingContext
	ReferenceType domain.ReferenceType `json:"referenceType" validate:"required"`
	Debits        []JournalLineRequest `json:"debits" validate:"required,min=1,dive"`
	Credits       []JournalLineRequest `json:"credits" validate:"required,min=1,dive"`
}

// EnrollmentPostingRequest recognizes a receivable against deferred revenue.
// A positive Discount books the net receivable plus a discount line.
type EnrollmentPostingRequest struct {
	PostingContext
	EnrollmentID int64        `json:"enrollmentID" validate:"required,gt=0"`
	Amount       money.Amount `json:"amount" validate:"amount_gt=0"` // Gross amount
	Discount     money.Amount `json:"discount" validate:"amount_gte=0"`
}

// PaymentPostingRequest posts money received. AccountCode overrides the
// method-based debit account.
type PaymentPostingRequest struct {
	PostingContext
	Amount      money.Amount         `json:"amount" validate:"amount_gt=0"`
	Method      domain.PaymentMethod `json:"method"`
	AccountCode string               `json:"accountCode"`
	Linked      bool                 `json:"linked"` // False credits the expense account
}

// CompletionPostingRequest releases deferred revenue into training revenue.
type CompletionPostingRequest struct {
	PostingContext
	EnrollmentID int64        `json:"enrollmentID" validate:"required,gt=0"`
	Amount       money.Amount `json:"amount" validate:"amount_gt=0"`
}

// RefundPostingRequest returns money to a student.
type RefundPostingRequest struct {
	PostingContext
	Amount      money.Amount         `json:"amount" validate:"amount_gt=0"`
	Method      domain.PaymentMethod `json:"method"`
	AccountCode string               `json:"accountCode"`
}

// TransferPostingRequest moves an amount between two accounts.
type TransferPostingRequest struct {
	PostingContext
	SourceCode      string       `json:"sourceCode" validate:"required"`
	DestinationCode string       `json:"destinationCode" validate:"required,nefield=SourceCode"`
	Amount          money.Amount `json:"amount" validate:"amount_gt=0"`
}

// ReverseJournalRequest carries the reversal reason.
type ReverseJournalRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CancelInvoiceRequest carries the cancellation reason.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineNo       int          `json:"lineNo"`
	AccountCode  string       `json:"accountCode"`
	Debit        money.Amount `json:"debit"`
	Credit       money.Amount `json:"credit"`
	CostCenterID *int64       `json:"costCenterID,omitempty"`
	Memo         string       `json:"memo,omitempty"`
}

// JournalResponse defines the data returned for a journal entry.
type JournalResponse struct {
	JournalID     int64                 `json:"journalID"`
	ReferenceType domain.ReferenceType  `json:"referenceType"`
	ReferenceID   *int64                `json:"referenceID,omitempty"`
	JournalDate   time.Time             `json:"journalDate"`
	Description   string                `json:"description"`
	Status        domain.JournalStatus  `json:"status"`
	BranchID      *int64                `json:"branchID,omitempty"`
	TotalDebit    money.Amount          `json:"totalDebit"`
	TotalCredit   money.Amount          `json:"totalCredit"`
	Lines         []JournalLineResponse `json:"lines"`
	CreatedAt     time.Time             `json:"createdAt"`
	CreatedBy     string                `json:"createdBy"`
}

// ToJournalResponse converts a domain.Journal to JournalResponse DTO.
func ToJournalResponse(j *domain.Journal) JournalResponse {
	debits, credits := j.Totals()
	lines := make([]JournalLineResponse, len(j.Lines))
	for i, l := range j.Lines {
		lines[i] = JournalLineResponse{
			LineNo:       l.LineNo,
			AccountCode:  l.AccountCode,
			Debit:        l.Debit,
			Credit:       l.Credit,
			CostCenterID: l.CostCenterID,
			Memo:         l.Memo,
		}
	}
	return JournalResponse{
		JournalID:     j.JournalID,
		ReferenceType: j.ReferenceType,
		ReferenceID:   j.ReferenceID,
		JournalDate:   j.JournalDate,
		Description:   j.Description,
		Status:        j.Status,
		BranchID:      j.BranchID,
		TotalDebit:    debits,
		TotalCredit:   credits,
		Lines:         lines,
		CreatedAt:     j.CreatedAt,
		CreatedBy:     j.CreatedBy,
	}
}
