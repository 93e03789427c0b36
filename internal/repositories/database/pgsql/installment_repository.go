package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/SscSPs/course_billing_engine/internal/models"
	"github.com/SscSPs/course_billing_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

const installmentColumns = `installment_id, invoice_id, installment_no, amount, due_date, paid_amount, status, is_down_payment,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxInstallmentRepository struct {
	BaseRepository
}

func newPgxInstallmentRepository(pool *pgxpool.Pool) portsrepo.InstallmentRepositoryFacade {
	return &PgxInstallmentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InstallmentRepositoryFacade = (*PgxInstallmentRepository)(nil)

func (r *PgxInstallmentRepository) ListInstallmentsByInvoice(ctx context.Context, invoiceID int64) ([]domain.Installment, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+installmentColumns+` FROM installments WHERE invoice_id = $1 ORDER BY installment_no;`, invoiceID)
	if err != nil {
		return nil, mapError(err, "failed to query installments")
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Installment])
	if err != nil {
		return nil, mapError(err, "failed to scan installments")
	}
	return lo.Map(list, func(m models.Installment, _ int) domain.Installment { return mapping.ToDomainInstallment(m) }), nil
}

func (r *PgxInstallmentRepository) ListAllocationsByPayment(ctx context.Context, paymentID int64) ([]domain.InstallmentAllocation, error) {
	query := `
		SELECT allocation_id, payment_id, invoice_id, installment_id, amount_applied, created_at, created_by
		FROM installment_allocations
		WHERE payment_id = $1
		ORDER BY allocation_id;
	`
	rows, err := r.db(ctx).Query(ctx, query, paymentID)
	if err != nil {
		return nil, mapError(err, "failed to query allocations")
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.InstallmentAllocation])
	if err != nil {
		return nil, mapError(err, "failed to scan allocations")
	}
	return lo.Map(list, func(m models.InstallmentAllocation, _ int) domain.InstallmentAllocation { return mapping.ToDomainAllocation(m) }), nil
}

// InsertInstallments writes the schedule with one batch. The unique
// (invoice_id, installment_no) index rejects a second schedule with ErrDuplicate.
func (r *PgxInstallmentRepository) InsertInstallments(ctx context.Context, installments []domain.Installment) ([]domain.Installment, error) {
	saved := make([]domain.Installment, len(installments))
	err := newPgxTxManager(r.Pool).WithinTransaction(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO installments (invoice_id, installment_no, amount, due_date, paid_amount, status, is_down_payment,
				created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING installment_id;
		`
		batch := &pgx.Batch{}
		for _, inst := range installments {
			m := mapping.ToModelInstallment(inst)
			batch.Queue(query, m.InvoiceID, m.InstallmentNo, m.Amount, m.DueDate, m.PaidAmount, m.Status, m.IsDownPayment,
				m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
		}
		br := r.db(ctx).SendBatch(ctx, batch)
		defer br.Close()
		for i, inst := range installments {
			if err := br.QueryRow().Scan(&inst.InstallmentID); err != nil {
				return mapError(err, fmt.Sprintf("failed to insert installment %d", inst.InstallmentNo))
			}
			saved[i] = inst
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// UpdateInstallmentPayment relies on the paid_amount <= amount check constraint,
// which surfaces as ErrIntegrity.
func (r *PgxInstallmentRepository) UpdateInstallmentPayment(ctx context.Context, installment domain.Installment) error {
	query := `
		UPDATE installments
		SET paid_amount = $1, status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE installment_id = $5;
	`
	tag, err := r.db(ctx).Exec(ctx, query, installment.PaidAmount, string(installment.Status),
		installment.LastUpdatedAt, installment.LastUpdatedBy, installment.InstallmentID)
	if err != nil {
		return mapError(err, "failed to update installment")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: installment %d", apperrors.ErrNotFound, installment.InstallmentID)
	}
	return nil
}

func (r *PgxInstallmentRepository) InsertAllocations(ctx context.Context, allocations []domain.InstallmentAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	query := `
		INSERT INTO installment_allocations (payment_id, invoice_id, installment_id, amount_applied, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	batch := &pgx.Batch{}
	for _, a := range allocations {
		m := mapping.ToModelAllocation(a)
		batch.Queue(query, m.PaymentID, m.InvoiceID, m.InstallmentID, m.AmountApplied, m.CreatedAt, m.CreatedBy)
	}
	if err := r.db(ctx).SendBatch(ctx, batch).Close(); err != nil {
		return mapError(err, "failed to insert allocations")
	}
	return nil
}

func (r *PgxInstallmentRepository) MarkInstallmentsOverdue(ctx context.Context, invoiceID *int64, now time.Time, userID string) (int64, error) {
	query := `
		UPDATE installments
		SET status = 'overdue', last_updated_at = $1, last_updated_by = $2
		WHERE status = 'pending' AND due_date < $1 AND ($3::bigint IS NULL OR invoice_id = $3);
	`
	tag, err := r.db(ctx).Exec(ctx, query, now, userID, invoiceID)
	if err != nil {
		return 0, mapError(err, "failed to mark installments overdue")
	}
	return tag.RowsAffected(), nil
}
