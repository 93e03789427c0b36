package pgsql

import (
	"context"
	"errors"

	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSettingsRepository reads the key/value settings table.
type PgxSettingsRepository struct {
	BaseRepository
}

func newPgxSettingsRepository(pool *pgxpool.Pool) portsrepo.SettingsReader {
	return &PgxSettingsRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SettingsReader = (*PgxSettingsRepository)(nil)

func (r *PgxSettingsRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db(ctx).QueryRow(ctx, `SELECT value FROM settings WHERE key = $1;`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapError(err, "failed to read setting "+key)
	}
	return value, true, nil
}
