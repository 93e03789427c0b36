package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/SscSPs/course_billing_engine/internal/models"
	"github.com/SscSPs/course_billing_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `payment_id, invoice_id, enrollment_id, branch_id, amount, method, status, paid_at, reference,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	m := mapping.ToModelPayment(payment)
	query := `
		INSERT INTO payments (invoice_id, enrollment_id, branch_id, amount, method, status, paid_at, reference,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING payment_id;
	`
	err := r.db(ctx).QueryRow(ctx, query,
		m.InvoiceID, m.EnrollmentID, m.BranchID, m.Amount, m.Method, m.Status, m.PaidAt, m.Reference,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(&payment.PaymentID)
	if err != nil {
		return nil, mapError(err, "failed to insert payment")
	}
	return &payment, nil
}

func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1;`, paymentID)
	if err != nil {
		return nil, mapError(err, "failed to query payment")
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Payment])
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("payment %d", paymentID))
	}
	p := mapping.ToDomainPayment(m)
	return &p, nil
}

// FindPaymentForUpdate locks the payment row so two allocations of one payment
// against different invoices cannot both pass the replay check.
func (r *PgxPaymentRepository) FindPaymentForUpdate(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	if !inTx(ctx) {
		return nil, apperrors.NewAppError(500, "FindPaymentForUpdate called outside a transaction", nil)
	}
	var locked int64
	err := r.db(ctx).QueryRow(ctx, `SELECT payment_id FROM payments WHERE payment_id = $1 FOR UPDATE;`, paymentID).Scan(&locked)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("payment %d", paymentID))
	}
	return r.FindPaymentByID(ctx, paymentID)
}

// HasPaidPayments applies domain.Payment.BelongsTo in SQL, like paidTotalExpr.
func (r *PgxPaymentRepository) HasPaidPayments(ctx context.Context, invoice domain.Invoice) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE status = 'paid'
			  AND (invoice_id = $1 OR (invoice_id IS NULL AND $2::bigint IS NOT NULL AND enrollment_id = $2))
		);
	`
	var exists bool
	if err := r.db(ctx).QueryRow(ctx, query, invoice.InvoiceID, invoice.EnrollmentID).Scan(&exists); err != nil {
		return false, mapError(err, "failed to check invoice payments")
	}
	return exists, nil
}
