package pgsql

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/SscSPs/course_billing_engine/internal/models"
	"github.com/SscSPs/course_billing_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, code, name, account_type, normal_balance, parent_id, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// SaveAccount inserts a new account. A duplicate code surfaces as apperrors.ErrDuplicate.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (code, name, account_type, normal_balance, parent_id, is_active,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING account_id;
	`
	err := r.db(ctx).QueryRow(ctx, query,
		m.Code, m.Name, m.AccountType, m.NormalBalance, m.ParentID, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(&account.AccountID)
	if err != nil {
		return nil, mapError(err, "failed to insert account "+account.Code)
	}
	return &account, nil
}

// FindAccountByCode retrieves an account by its unique code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = $1;`, code)
	if err != nil {
		return nil, mapError(err, "failed to query account "+code)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, mapError(err, "account "+code)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountsByCodes retrieves the accounts for codes in one round trip.
func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	result := make(map[string]domain.Account, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	rows, err := r.db(ctx).Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = ANY($1);`, codes)
	if err != nil {
		return nil, mapError(err, "failed to query accounts by code")
	}
	accounts, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, mapError(err, "failed to scan accounts")
	}
	for _, m := range accounts {
		result[m.Code] = mapping.ToDomainAccount(m)
	}
	return result, nil
}

// SumPostedLines totals debits and credits of posted lines only.
func (r *PgxAccountRepository) SumPostedLines(ctx context.Context, accountID int64) (money.Amount, money.Amount, error) {
	query := `
		SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_lines l
		JOIN journals j ON j.journal_id = l.journal_id
		WHERE l.account_id = $1 AND j.status = 'POSTED';
	`
	var debits, credits money.Amount
	if err := r.db(ctx).QueryRow(ctx, query, accountID).Scan(&debits, &credits); err != nil {
		return money.Zero, money.Zero, mapError(err, "failed to sum account lines")
	}
	return debits, credits, nil
}
