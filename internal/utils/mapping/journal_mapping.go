package mapping

import (
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/models"
)

// ToModelJournal converts the journal header. Lines are mapped separately.
func ToModelJournal(d domain.Journal) models.Journal {
	return models.Journal{
		JournalID:     d.JournalID,
		ReferenceType: string(d.ReferenceType),
		ReferenceID:   d.ReferenceID,
		JournalDate:   d.JournalDate,
		Description:   d.Description,
		Status:        string(d.Status),
		BranchID:      d.BranchID,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainJournal(m models.Journal, lines []models.JournalLine) domain.Journal {
	j := domain.Journal{
		JournalID:     m.JournalID,
		ReferenceType: domain.ReferenceType(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		JournalDate:   m.JournalDate,
		Description:   m.Description,
		Status:        domain.JournalStatus(m.Status),
		BranchID:      m.BranchID,
		Lines:         make([]domain.JournalLine, 0, len(lines)),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
	for _, l := range lines {
		j.Lines = append(j.Lines, ToDomainJournalLine(l))
	}
	return j
}

func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:       d.LineID,
		JournalID:    d.JournalID,
		LineNo:       d.LineNo,
		AccountID:    d.AccountID,
		AccountCode:  d.AccountCode,
		Debit:        d.Debit,
		Credit:       d.Credit,
		CostCenterID: d.CostCenterID,
		Memo:         d.Memo,
	}
}

func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:       m.LineID,
		JournalID:    m.JournalID,
		LineNo:       m.LineNo,
		AccountID:    m.AccountID,
		AccountCode:  m.AccountCode,
		Debit:        m.Debit,
		Credit:       m.Credit,
		CostCenterID: m.CostCenterID,
		Memo:         m.Memo,
	}
}
