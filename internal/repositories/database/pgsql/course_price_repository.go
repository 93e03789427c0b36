package pgsql

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/SscSPs/course_billing_engine/internal/models"
	"github.com/SscSPs/course_billing_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

type PgxCoursePriceRepository struct {
	BaseRepository
}

func newPgxCoursePriceRepository(pool *pgxpool.Pool) *PgxCoursePriceRepository {
	return &PgxCoursePriceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CoursePriceRepositoryFacade = (*PgxCoursePriceRepository)(nil)

// ListActiveCoursePrices returns candidates ordered by id; tier selection happens in the resolver.
func (r *PgxCoursePriceRepository) ListActiveCoursePrices(ctx context.Context, courseID int64) ([]domain.CoursePrice, error) {
	query := `
		SELECT course_price_id, course_id, branch_id, delivery_type, pricing_mode, price, session_price,
		       sessions_count, allow_installments, min_down_payment, max_installments, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM course_prices
		WHERE course_id = $1 AND is_active
		ORDER BY course_price_id;
	`
	rows, err := r.db(ctx).Query(ctx, query, courseID)
	if err != nil {
		return nil, mapError(err, "failed to query course prices")
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.CoursePrice])
	if err != nil {
		return nil, mapError(err, "failed to scan course prices")
	}
	return lo.Map(list, func(m models.CoursePrice, _ int) domain.CoursePrice { return mapping.ToDomainCoursePrice(m) }), nil
}

func (r *PgxCoursePriceRepository) SaveCoursePrice(ctx context.Context, price domain.CoursePrice) (*domain.CoursePrice, error) {
	m := mapping.ToModelCoursePrice(price)
	query := `
		INSERT INTO course_prices (course_id, branch_id, delivery_type, pricing_mode, price, session_price,
			sessions_count, allow_installments, min_down_payment, max_installments, is_active,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING course_price_id;
	`
	err := r.db(ctx).QueryRow(ctx, query,
		m.CourseID, m.BranchID, m.DeliveryType, m.PricingMode, m.Price, m.SessionPrice,
		m.SessionsCount, m.AllowInstallments, m.MinDownPayment, m.MaxInstallments, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(&price.CoursePriceID)
	if err != nil {
		return nil, mapError(err, "failed to insert course price")
	}
	return &price, nil
}
