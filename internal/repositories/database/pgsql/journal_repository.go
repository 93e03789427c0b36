package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/SscSPs/course_billing_engine/internal/models"
	"github.com/SscSPs/course_billing_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const journalColumns = `journal_id, reference_type, reference_id, journal_date, description, status, branch_id,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journals and their lines.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// InsertJournal writes the header and every line in one transaction. The partial
// unique index on (reference_type, reference_id) makes a second insert for the same
// business event a no-op; the stored journal is returned instead.
func (r *PgxJournalRepository) InsertJournal(ctx context.Context, journal domain.Journal) (*domain.Journal, bool, error) {
	if journal.Status != domain.Posted {
		return nil, false, fmt.Errorf("%w: only posted journals are stored, got %s", apperrors.ErrIntegrity, journal.Status)
	}

	var (
		saved   *domain.Journal
		created bool
	)
	err := newPgxTxManager(r.Pool).WithinTransaction(ctx, func(ctx context.Context) error {
		m := mapping.ToModelJournal(journal)
		journalQuery := `
			INSERT INTO journals (reference_type, reference_id, journal_date, description, status, branch_id,
				created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (reference_type, reference_id) WHERE reference_id IS NOT NULL DO NOTHING
			RETURNING journal_id;
		`
		var journalID int64
		err := r.db(ctx).QueryRow(ctx, journalQuery,
			m.ReferenceType, m.ReferenceID, m.JournalDate, m.Description, m.Status, m.BranchID,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		).Scan(&journalID)
		if errors.Is(err, pgx.ErrNoRows) && journal.ReferenceID != nil {
			existing, findErr := r.FindJournalByReference(ctx, journal.ReferenceType, *journal.ReferenceID)
			if findErr != nil {
				return findErr
			}
			saved = existing
			return nil
		}
		if err != nil {
			return mapError(err, "failed to insert journal")
		}

		batch := &pgx.Batch{}
		lineQuery := `
			INSERT INTO journal_lines (journal_id, line_no, account_id, debit, credit, cost_center_id, memo)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING line_id;
		`
		for _, line := range journal.Lines {
			ml := mapping.ToModelJournalLine(line)
			batch.Queue(lineQuery, journalID, ml.LineNo, ml.AccountID, ml.Debit, ml.Credit, ml.CostCenterID, ml.Memo)
		}
		br := r.db(ctx).SendBatch(ctx, batch)
		lines := make([]domain.JournalLine, len(journal.Lines))
		for i, line := range journal.Lines {
			line.JournalID = journalID
			if err := br.QueryRow().Scan(&line.LineID); err != nil {
				br.Close()
				return mapError(err, fmt.Sprintf("failed to insert line %d of journal", line.LineNo))
			}
			lines[i] = line
		}
		// Close the batch results to surface any deferred error
		if err := br.Close(); err != nil {
			return mapError(err, "failed to execute journal line batch")
		}

		journal.JournalID = journalID
		journal.Lines = lines
		saved = &journal
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return saved, created, nil
}

// FindJournalByID retrieves a journal and its lines.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, journalID int64) (*domain.Journal, error) {
	return r.findOne(ctx, `SELECT `+journalColumns+` FROM journals WHERE journal_id = $1;`,
		fmt.Sprintf("journal %d", journalID), journalID)
}

// FindJournalByReference retrieves the journal created for a business event.
func (r *PgxJournalRepository) FindJournalByReference(ctx context.Context, refType domain.ReferenceType, refID int64) (*domain.Journal, error) {
	return r.findOne(ctx, `SELECT `+journalColumns+` FROM journals WHERE reference_type = $1 AND reference_id = $2;`,
		fmt.Sprintf("journal for %s %d", refType, refID), string(refType), refID)
}

func (r *PgxJournalRepository) findOne(ctx context.Context, query, what string, args ...any) (*domain.Journal, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "failed to query "+what)
	}
	header, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Journal])
	if err != nil {
		return nil, mapError(err, what)
	}

	lineQuery := `
		SELECT l.line_id, l.journal_id, l.line_no, l.account_id, a.code AS account_code,
		       l.debit, l.credit, l.cost_center_id, l.memo
		FROM journal_lines l
		JOIN accounts a ON a.account_id = l.account_id
		WHERE l.journal_id = $1
		ORDER BY l.line_no;
	`
	lineRows, err := r.db(ctx).Query(ctx, lineQuery, header.JournalID)
	if err != nil {
		return nil, mapError(err, "failed to query lines of "+what)
	}
	lines, err := pgx.CollectRows(lineRows, pgx.RowToStructByName[models.JournalLine])
	if err != nil {
		return nil, mapError(err, "failed to scan lines of "+what)
	}

	journal := mapping.ToDomainJournal(header, lines)
	return &journal, nil
}
