package pgsql

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/SscSPs/course_billing_engine/internal/models"
	"github.com/SscSPs/course_billing_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// paidTotalExpr sums the paid payments of invoice i. The WHERE clause is
// domain.Payment.BelongsTo: invoice_id, or the enrollment for payments without an
// invoice. Unlinked payments never count.
const paidTotalExpr = `(
	SELECT COALESCE(SUM(p.amount), 0) FROM payments p
	WHERE p.status = 'paid'
	  AND (p.invoice_id = i.invoice_id
	       OR (p.invoice_id IS NULL AND i.enrollment_id IS NOT NULL AND p.enrollment_id = i.enrollment_id))
)`

const invoiceSelect = `SELECT i.invoice_id, i.enrollment_id, i.branch_id, i.total_amount, i.notes,
	i.canceled_at, i.cancel_reason, ` + paidTotalExpr + ` AS paid_total,
	i.created_at, i.created_by, i.last_updated_at, i.last_updated_by
FROM invoices i`

var writableInvoiceColumns = map[string]bool{
	portsrepo.InvoiceFieldNotes:    true,
	portsrepo.InvoiceFieldBranchID: true,
}

var computedInvoiceColumns = map[string]bool{
	portsrepo.InvoiceFieldDueAmount: true,
	portsrepo.InvoiceFieldPaidTotal: true,
	portsrepo.InvoiceFieldStatus:    true,
}

type PgxInvoiceRepository struct {
	BaseRepository
}

func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	m := mapping.ToModelInvoice(invoice)
	query := `
		INSERT INTO invoices (enrollment_id, branch_id, total_amount, notes, canceled_at, cancel_reason,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING invoice_id;
	`
	var invoiceID int64
	err := r.db(ctx).QueryRow(ctx, query,
		m.EnrollmentID, m.BranchID, m.TotalAmount, m.Notes, m.CanceledAt, m.CancelReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(&invoiceID)
	if err != nil {
		return nil, mapError(err, "failed to insert invoice")
	}
	return r.FindInvoiceByID(ctx, invoiceID)
}

// FindInvoiceByID returns the invoice hydrated with its paid total.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	rows, err := r.db(ctx).Query(ctx, invoiceSelect+` WHERE i.invoice_id = $1;`, invoiceID)
	if err != nil {
		return nil, mapError(err, "failed to query invoice")
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Invoice])
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("invoice %d", invoiceID))
	}
	inv := mapping.ToDomainInvoice(m)
	return &inv, nil
}

// FindInvoiceForUpdate takes the row lock first so the paid total read afterwards
// cannot race with a concurrent allocation or cancellation.
func (r *PgxInvoiceRepository) FindInvoiceForUpdate(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	if !inTx(ctx) {
		return nil, apperrors.NewAppError(500, "FindInvoiceForUpdate called outside a transaction", nil)
	}
	var locked int64
	err := r.db(ctx).QueryRow(ctx, `SELECT invoice_id FROM invoices WHERE invoice_id = $1 FOR UPDATE;`, invoiceID).Scan(&locked)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("invoice %d", invoiceID))
	}
	return r.FindInvoiceByID(ctx, invoiceID)
}

// UpdateInvoiceFields validates every column before writing so a refused change
// leaves the row untouched.
func (r *PgxInvoiceRepository) UpdateInvoiceFields(ctx context.Context, invoiceID int64, changes map[string]any, userID string, now time.Time) error {
	columns := make([]string, 0, len(changes))
	for col := range changes {
		if computedInvoiceColumns[col] {
			return fmt.Errorf("%w: column %s", domain.ErrComputedField, col)
		}
		if !writableInvoiceColumns[col] {
			return fmt.Errorf("%w: unknown invoice field %q", apperrors.ErrValidation, col)
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		return nil
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+2)
	args := make([]any, 0, len(columns)+3)
	for _, col := range columns {
		args = append(args, changes[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, now, userID, invoiceID)
	sets = append(sets, fmt.Sprintf("last_updated_at = $%d", len(args)-2), fmt.Sprintf("last_updated_by = $%d", len(args)-1))

	query := fmt.Sprintf("UPDATE invoices SET %s WHERE invoice_id = $%d;", strings.Join(sets, ", "), len(args))
	tag, err := r.db(ctx).Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "failed to update invoice")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %d", apperrors.ErrNotFound, invoiceID)
	}
	return nil
}

func (r *PgxInvoiceRepository) MarkInvoiceCanceled(ctx context.Context, invoiceID int64, reason string, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET canceled_at = $1, cancel_reason = $2, last_updated_at = $1, last_updated_by = $3
		WHERE invoice_id = $4 AND canceled_at IS NULL;
	`
	tag, err := r.db(ctx).Exec(ctx, query, now, reason, userID, invoiceID)
	if err != nil {
		return mapError(err, "failed to cancel invoice")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %d is missing or already canceled", apperrors.ErrConflict, invoiceID)
	}
	return nil
}
