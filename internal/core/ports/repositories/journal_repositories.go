package repositories

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindJournalByID retrieves a journal and its lines.
	FindJournalByID(ctx context.Context, journalID int64) (*domain.Journal, error)

	// FindJournalByReference retrieves the journal linked to a business event, with lines.
	// Returns apperrors.ErrNotFound when no journal references it.
	FindJournalByReference(ctx context.Context, refType domain.ReferenceType, refID int64) (*domain.Journal, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// InsertJournal persists a posted journal with all of its lines atomically.
	// When another journal already holds the same (reference type, reference id) pair
	// nothing is written and that journal is returned with created == false.
	InsertJournal(ctx context.Context, journal domain.Journal) (saved *domain.Journal, created bool, err error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
