package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
)

// --- accounts ---

func (s *Store) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	defer s.lock(ctx)()
	for _, acc := range s.data.accounts {
		if acc.Code == code {
			return &acc, nil
		}
	}
	return nil, fmt.Errorf("%w: account code %s", apperrors.ErrNotFound, code)
}

func (s *Store) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	defer s.lock(ctx)()
	found := make(map[string]domain.Account, len(codes))
	for _, acc := range s.data.accounts {
		if slices.Contains(codes, acc.Code) {
			found[acc.Code] = acc
		}
	}
	return found, nil
}

func (s *Store) SaveAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	defer s.lock(ctx)()
	for _, acc := range s.data.accounts {
		if acc.Code == account.Code {
			return nil, fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, account.Code)
		}
	}
	if account.ParentID != nil {
		if _, ok := s.data.accounts[*account.ParentID]; !ok {
			return nil, fmt.Errorf("%w: parent account %d", apperrors.ErrNotFound, *account.ParentID)
		}
	}
	account.AccountID = s.id()
	s.data.accounts[account.AccountID] = account
	return &account, nil
}

func (s *Store) SumPostedLines(ctx context.Context, accountID int64) (money.Amount, money.Amount, error) {
	defer s.lock(ctx)()
	debits, credits := money.Zero, money.Zero
	for _, j := range s.data.journals {
		if j.Status != domain.Posted {
			continue
		}
		for _, l := range j.Lines {
			if l.AccountID == accountID {
				debits = debits.Add(l.Debit)
				credits = credits.Add(l.Credit)
			}
		}
	}
	return debits, credits, nil
}

// --- journals ---

func (s *Store) FindJournalByID(ctx context.Context, journalID int64) (*domain.Journal, error) {
	defer s.lock(ctx)()
	j, ok := s.data.journals[journalID]
	if !ok {
		return nil, fmt.Errorf("%w: journal %d", apperrors.ErrNotFound, journalID)
	}
	return &j, nil
}

func (s *Store) findByReference(refType domain.ReferenceType, refID int64) (*domain.Journal, bool) {
	for _, j := range s.data.journals {
		if j.ReferenceType == refType && j.ReferenceID != nil && *j.ReferenceID == refID {
			return &j, true
		}
	}
	return nil, false
}

func (s *Store) FindJournalByReference(ctx context.Context, refType domain.ReferenceType, refID int64) (*domain.Journal, error) {
	defer s.lock(ctx)()
	if j, ok := s.findByReference(refType, refID); ok {
		return j, nil
	}
	return nil, fmt.Errorf("%w: no %s journal for reference %d", apperrors.ErrNotFound, refType, refID)
}

func (s *Store) InsertJournal(ctx context.Context, journal domain.Journal) (*domain.Journal, bool, error) {
	defer s.lock(ctx)()
	if journal.Status != domain.Posted {
		return nil, false, fmt.Errorf("%w: only posted journals are stored, got %s", apperrors.ErrIntegrity, journal.Status)
	}
	if journal.ReferenceID != nil {
		if existing, ok := s.findByReference(journal.ReferenceType, *journal.ReferenceID); ok {
			return existing, false, nil
		}
	}

	journal.JournalID = s.id()
	lines := make([]domain.JournalLine, len(journal.Lines))
	for i, l := range journal.Lines {
		l.LineID = s.id()
		l.JournalID = journal.JournalID
		lines[i] = l
	}
	journal.Lines = lines
	s.data.journals[journal.JournalID] = journal
	return &journal, true, nil
}

// --- invoices ---

func (s *Store) paidTotal(inv domain.Invoice) money.Amount {
	total := money.Zero
	for _, p := range s.data.payments {
		if p.IsPaid() && p.BelongsTo(inv) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

func (s *Store) findInvoice(invoiceID int64) (*domain.Invoice, error) {
	inv, ok := s.data.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %d", apperrors.ErrNotFound, invoiceID)
	}
	hydrated := inv.WithPaidTotal(s.paidTotal(inv))
	return &hydrated, nil
}

func (s *Store) FindInvoiceByID(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	defer s.lock(ctx)()
	return s.findInvoice(invoiceID)
}

func (s *Store) FindInvoiceForUpdate(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	if !s.inTx(ctx) {
		return nil, fmt.Errorf("%w: FindInvoiceForUpdate outside a transaction", apperrors.ErrInternal)
	}
	return s.findInvoice(invoiceID)
}

func (s *Store) SaveInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	defer s.lock(ctx)()
	invoice.InvoiceID = s.id()
	s.data.invoices[invoice.InvoiceID] = invoice
	return s.findInvoice(invoice.InvoiceID)
}

func (s *Store) UpdateInvoiceFields(ctx context.Context, invoiceID int64, changes map[string]any, userID string, now time.Time) error {
	defer s.lock(ctx)()
	inv, ok := s.data.invoices[invoiceID]
	if !ok {
		return fmt.Errorf("%w: invoice %d", apperrors.ErrNotFound, invoiceID)
	}
	for column, value := range changes {
		switch column {
		case portsrepo.InvoiceFieldDueAmount, portsrepo.InvoiceFieldPaidTotal, portsrepo.InvoiceFieldStatus:
			return fmt.Errorf("%w: column %s", domain.ErrComputedField, column)
		case portsrepo.InvoiceFieldNotes:
			notes, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: notes must be a string", apperrors.ErrValidation)
			}
			inv.Notes = notes
		case portsrepo.InvoiceFieldBranchID:
			switch v := value.(type) {
			case nil:
				inv.BranchID = nil
			case int64:
				inv.BranchID = &v
			default:
				return fmt.Errorf("%w: branch_id must be an integer", apperrors.ErrValidation)
			}
		default:
			return fmt.Errorf("%w: unknown invoice column %s", apperrors.ErrValidation, column)
		}
	}
	inv.Touch(userID, now)
	s.data.invoices[invoiceID] = inv
	return nil
}

func (s *Store) MarkInvoiceCanceled(ctx context.Context, invoiceID int64, reason string, userID string, now time.Time) error {
	defer s.lock(ctx)()
	inv, ok := s.data.invoices[invoiceID]
	if !ok {
		return fmt.Errorf("%w: invoice %d", apperrors.ErrNotFound, invoiceID)
	}
	inv.CanceledAt = &now
	inv.CancelReason = reason
	inv.Touch(userID, now)
	s.data.invoices[invoiceID] = inv
	return nil
}

// --- payments ---

func (s *Store) findPayment(paymentID int64) (*domain.Payment, error) {
	p, ok := s.data.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment %d", apperrors.ErrNotFound, paymentID)
	}
	return &p, nil
}

func (s *Store) FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	defer s.lock(ctx)()
	return s.findPayment(paymentID)
}

func (s *Store) FindPaymentForUpdate(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	if !s.inTx(ctx) {
		return nil, fmt.Errorf("%w: FindPaymentForUpdate outside a transaction", apperrors.ErrInternal)
	}
	return s.findPayment(paymentID)
}

func (s *Store) HasPaidPayments(ctx context.Context, invoice domain.Invoice) (bool, error) {
	defer s.lock(ctx)()
	for _, p := range s.data.payments {
		if p.IsPaid() && p.BelongsTo(invoice) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SavePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	defer s.lock(ctx)()
	if payment.PaymentID == 0 {
		payment.PaymentID = s.id()
	}
	s.data.payments[payment.PaymentID] = payment
	return &payment, nil
}

// --- installments ---

func (s *Store) ListInstallmentsByInvoice(ctx context.Context, invoiceID int64) ([]domain.Installment, error) {
	defer s.lock(ctx)()
	var out []domain.Installment
	for _, inst := range s.data.installments {
		if inst.InvoiceID == invoiceID {
			out = append(out, inst)
		}
	}
	slices.SortFunc(out, func(a, b domain.Installment) int { return cmp.Compare(a.InstallmentNo, b.InstallmentNo) })
	return out, nil
}

func (s *Store) ListAllocationsByPayment(ctx context.Context, paymentID int64) ([]domain.InstallmentAllocation, error) {
	defer s.lock(ctx)()
	var out []domain.InstallmentAllocation
	for _, a := range s.data.allocations {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) InsertInstallments(ctx context.Context, installments []domain.Installment) ([]domain.Installment, error) {
	defer s.lock(ctx)()
	saved := make([]domain.Installment, len(installments))
	for i, inst := range installments {
		for _, existing := range s.data.installments {
			if existing.InvoiceID == inst.InvoiceID && existing.InstallmentNo == inst.InstallmentNo {
				return nil, fmt.Errorf("%w: installment %d of invoice %d", apperrors.ErrDuplicate, inst.InstallmentNo, inst.InvoiceID)
			}
		}
		inst.InstallmentID = s.id()
		s.data.installments[inst.InstallmentID] = inst
		saved[i] = inst
	}
	return saved, nil
}

func (s *Store) UpdateInstallmentPayment(ctx context.Context, installment domain.Installment) error {
	defer s.lock(ctx)()
	current, ok := s.data.installments[installment.InstallmentID]
	if !ok {
		return fmt.Errorf("%w: installment %d", apperrors.ErrNotFound, installment.InstallmentID)
	}
	if installment.PaidAmount.GreaterThan(current.Amount) {
		return fmt.Errorf("%w: installment %d paid amount exceeds its amount", apperrors.ErrIntegrity, installment.InstallmentID)
	}
	current.PaidAmount = installment.PaidAmount
	current.Status = installment.Status
	current.LastUpdatedAt = installment.LastUpdatedAt
	current.LastUpdatedBy = installment.LastUpdatedBy
	s.data.installments[current.InstallmentID] = current
	return nil
}

func (s *Store) InsertAllocations(ctx context.Context, allocations []domain.InstallmentAllocation) error {
	defer s.lock(ctx)()
	for _, a := range allocations {
		a.AllocationID = s.id()
		s.data.allocations = append(s.data.allocations, a)
	}
	return nil
}

func (s *Store) MarkInstallmentsOverdue(ctx context.Context, invoiceID *int64, now time.Time, userID string) (int64, error) {
	defer s.lock(ctx)()
	var changed int64
	for id, inst := range s.data.installments {
		if invoiceID != nil && inst.InvoiceID != *invoiceID {
			continue
		}
		if inst.MarkOverdue(now) {
			inst.Touch(userID, now)
			s.data.installments[id] = inst
			changed++
		}
	}
	return changed, nil
}

// --- course prices and settings ---

func (s *Store) ListActiveCoursePrices(ctx context.Context, courseID int64) ([]domain.CoursePrice, error) {
	defer s.lock(ctx)()
	var out []domain.CoursePrice
	for _, p := range s.data.prices {
		if p.CourseID == courseID && p.IsActive {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.CoursePrice) int { return cmp.Compare(a.CoursePriceID, b.CoursePriceID) })
	return out, nil
}

func (s *Store) SaveCoursePrice(ctx context.Context, price domain.CoursePrice) (*domain.CoursePrice, error) {
	defer s.lock(ctx)()
	price.CoursePriceID = s.id()
	s.data.prices[price.CoursePriceID] = price
	return &price, nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	defer s.lock(ctx)()
	v, ok := s.data.settings[key]
	return v, ok && v != "", nil
}
