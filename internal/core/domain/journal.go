package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft  JournalStatus = "DRAFT"
	Posted JournalStatus = "POSTED"
)

// ReferenceType names the kind of business event a journal originates from.
type ReferenceType string

const (
	RefEnrollment ReferenceType = "enrollment"
	RefPayment    ReferenceType = "payment"
	RefCompletion ReferenceType = "completion"
	RefRefund     ReferenceType = "refund"
	RefTransfer   ReferenceType = "transfer"
	RefReversal   ReferenceType = "reversal"
	RefManual     ReferenceType = "manual"
)

// Valid reports whether r is a known reference type.
func (r ReferenceType) Valid() bool {
	switch r {
	case RefEnrollment, RefPayment, RefCompletion, RefRefund, RefTransfer, RefReversal, RefManual:
		return true
	}
	return false
}

var (
	ErrJournalUnbalanced = fmt.Errorf("%w: journal debits and credits do not balance", apperrors.ErrValidation)
	ErrJournalMinEntries = fmt.Errorf("%w: journal must have at least two lines", apperrors.ErrValidation)
	ErrJournalEmpty      = fmt.Errorf("%w: journal total must be positive", apperrors.ErrValidation)
	ErrInvalidLine       = fmt.Errorf("%w: journal line must be a pure debit or a pure credit", apperrors.ErrValidation)
	// ErrJournalPosted is raised for any attempt to change the lines or status of a
	// posted journal. Reversal is the only way to undo one.
	ErrJournalPosted = fmt.Errorf("%w: posted journals are immutable", apperrors.ErrIntegrity)
)

// JournalLine is a single debit or credit entry against one account.
type JournalLine struct {
	LineID       int64        `json:"lineID"`
	JournalID    int64        `json:"journalID"`
	LineNo       int          `json:"lineNo"`
	AccountID    int64        `json:"accountID"`
	AccountCode  string       `json:"accountCode"`
	Debit        money.Amount `json:"debit"`
	Credit       money.Amount `json:"credit"`
	CostCenterID *int64       `json:"costCenterID,omitempty"`
	Memo         string       `json:"memo,omitempty"`
}

// IsDebit reports whether the line sits on the debit side.
func (l JournalLine) IsDebit() bool { return l.Debit.IsPositive() }

func (l JournalLine) validate() error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return fmt.Errorf("%w: negative amount on account %s", ErrInvalidLine, l.AccountCode)
	}
	if l.Debit.IsZero() == l.Credit.IsZero() {
		return fmt.Errorf("%w: account %s has debit %s and credit %s", ErrInvalidLine, l.AccountCode, l.Debit, l.Credit)
	}
	return nil
}

// Journal is one atomic double-entry transaction. It starts as a Draft, collects
// lines, and becomes immutable once Posted.
type Journal struct {
	JournalID     int64         `json:"journalID"`
	ReferenceType ReferenceType `json:"referenceType"`
	ReferenceID   *int64        `json:"referenceID,omitempty"`
	JournalDate   time.Time     `json:"journalDate"`
	Description   string        `json:"description"`
	Status        JournalStatus `json:"status"`
	BranchID      *int64        `json:"branchID,omitempty"`
	Lines         []JournalLine `json:"lines"`
	AuditFields
}

// NewDraftJournal starts a journal for the given business-event reference.
func NewDraftJournal(refType ReferenceType, refID *int64, date time.Time, description string, branchID *int64, userID string, now time.Time) *Journal {
	return &Journal{
		ReferenceType: refType,
		ReferenceID:   refID,
		JournalDate:   date,
		Description:   description,
		Status:        Draft,
		BranchID:      branchID,
		AuditFields:   NewAuditFields(userID, now),
	}
}

// AddLine appends a line to a draft journal.
func (j *Journal) AddLine(line JournalLine) error {
	if j.Status != Draft {
		return ErrJournalPosted
	}
	if err := line.validate(); err != nil {
		return err
	}
	line.LineNo = len(j.Lines) + 1
	j.Lines = append(j.Lines, line)
	return nil
}

// Totals sums both sides.
func (j *Journal) Totals() (debits, credits money.Amount) {
	for _, l := range j.Lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// SameEntries reports whether other posts the same lines: account, debit and
// credit in the same order. Memos and dates are ignored.
func (j *Journal) SameEntries(other Journal) bool {
	if len(j.Lines) != len(other.Lines) {
		return false
	}
	for i, l := range j.Lines {
		o := other.Lines[i]
		if l.AccountID != o.AccountID || !l.Debit.Equal(o.Debit) || !l.Credit.Equal(o.Credit) {
			return false
		}
	}
	return true
}

// Validate checks the double-entry invariants without changing state.
func (j *Journal) Validate() error {
	if len(j.Lines) < 2 {
		return ErrJournalMinEntries
	}
	for _, l := range j.Lines {
		if err := l.validate(); err != nil {
			return err
		}
	}
	debits, credits := j.Totals()
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s", ErrJournalUnbalanced, debits, credits)
	}
	if !debits.IsPositive() {
		return ErrJournalEmpty
	}
	return nil
}

// Post validates the journal and moves it Draft -> Posted.
func (j *Journal) Post(userID string, now time.Time) error {
	if j.Status != Draft {
		return ErrJournalPosted
	}
	if err := j.Validate(); err != nil {
		return err
	}
	j.Status = Posted
	j.Touch(userID, now)
	return nil
}

// Reversal builds a draft that swaps every line of a posted journal.
func (j *Journal) Reversal(reason, userID string, now time.Time) (*Journal, error) {
	if j.Status != Posted {
		return nil, fmt.Errorf("%w: only posted journals can be reversed, journal %d is %s", apperrors.ErrConflict, j.JournalID, j.Status)
	}
	if j.ReferenceType == RefReversal {
		return nil, fmt.Errorf("%w: journal %d is itself a reversal", apperrors.ErrConflict, j.JournalID)
	}
	description := fmt.Sprintf("Reversal of journal %d: %s", j.JournalID, j.Description)
	if reason != "" {
		description = fmt.Sprintf("%s (%s)", description, reason)
	}
	rev := NewDraftJournal(RefReversal, Int64Ptr(j.JournalID), now, description, j.BranchID, userID, now)
	for _, l := range j.Lines {
		err := rev.AddLine(JournalLine{
			AccountID:    l.AccountID,
			AccountCode:  l.AccountCode,
			Debit:        l.Credit,
			Credit:       l.Debit,
			CostCenterID: l.CostCenterID,
			Memo:         l.Memo,
		})
		if err != nil {
			return nil, err
		}
	}
	return rev, nil
}

// IsImmutable reports whether err signals an attempt to mutate a posted journal.
func IsImmutable(err error) bool { return errors.Is(err, ErrJournalPosted) }
