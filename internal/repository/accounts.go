package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
)

// AccountRepository upserts chart-of-accounts rows by code. Satisfies
// ledger.AccountStore.
type AccountRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAccountRepository(pool *pgxpool.Pool, logger *slog.Logger) *AccountRepository {
	return &AccountRepository{pool: pool, logger: logger}
}

func (r *AccountRepository) UpsertAccount(ctx context.Context, code, name string, typ entity.AccountType) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, code, name, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, code, name, type, created_at`,
		uuid.New(), code, name, typ,
	)
	var a entity.Account
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.CreatedAt); err != nil {
		r.logger.Error("failed to upsert account", "account_code", code, "error", err)
		return nil, common.WrapError(err, "upsert account")
	}
	return &a, nil
}
