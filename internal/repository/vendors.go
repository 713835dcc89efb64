package repository

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
)

// VendorRepository resolves vendors by name so repeated bills from the same
// supplier share one vendor row.
type VendorRepository interface {
	GetOrCreateByName(ctx context.Context, name string) (*entity.Vendor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Vendor, error)
}

type vendorRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewVendorRepository(pool *pgxpool.Pool, logger *slog.Logger) VendorRepository {
	return &vendorRepository{pool: pool, logger: logger}
}

var vendorCodeRe = regexp.MustCompile(`[^A-Z0-9]+`)

// vendorUpsertSQL refreshes the display name on conflict: the derived code is
// stable but the latest extracted spelling of the name wins.
const vendorUpsertSQL = `
	INSERT INTO vendors (id, code, name)
	VALUES ($1, $2, $3)
	ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
	RETURNING id, code, name, created_at, updated_at`

// VendorCode derives the stable lookup code from a display name:
// uppercase, non-alphanumerics collapsed to underscores.
func VendorCode(name string) string {
	code := vendorCodeRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(name)), "_")
	return strings.Trim(code, "_")
}

func (r *vendorRepository) GetOrCreateByName(ctx context.Context, name string) (*entity.Vendor, error) {
	name = strings.TrimSpace(name)
	code := VendorCode(name)
	if code == "" {
		return nil, common.NewAppError("VENDOR_NAME_EMPTY", "vendor name is required", common.ErrValidation)
	}

	row := r.pool.QueryRow(ctx, vendorUpsertSQL, uuid.New(), code, name)
	var v entity.Vendor
	if err := row.Scan(&v.ID, &v.Code, &v.Name, &v.CreatedAt, &v.UpdatedAt); err != nil {
		r.logger.Error("failed to upsert vendor", "vendor_code", code, "error", err)
		return nil, common.WrapError(err, "upsert vendor")
	}
	return &v, nil
}

func (r *vendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Vendor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, code, name, created_at, updated_at FROM vendors WHERE id = $1`, id)
	var v entity.Vendor
	if err := row.Scan(&v.ID, &v.Code, &v.Name, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, common.NewAppError("VENDOR_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return &v, nil
}
