package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
)

// AuditRepository records manual-correction writes so every user override is
// traceable.
type AuditRepository interface {
	Record(ctx context.Context, logs ...*entity.AuditLog) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.AuditLog, error)
}

type auditRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAuditRepository(pool *pgxpool.Pool, logger *slog.Logger) AuditRepository {
	return &auditRepository{pool: pool, logger: logger}
}

func (r *auditRepository) Record(ctx context.Context, logs ...*entity.AuditLog) error {
	for _, l := range logs {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO audit_logs (id, document_id, field, old_value, new_value, actor, reason)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			l.ID, l.DocumentID, l.Field, l.OldValue, l.NewValue, l.Actor, l.Reason,
		); err != nil {
			r.logger.Error("failed to record audit log", "document_id", l.DocumentID, "field", l.Field, "error", err)
			return common.WrapError(err, "record audit log")
		}
	}
	return nil
}

func (r *auditRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, field, old_value, new_value, actor, reason, created_at
		FROM audit_logs WHERE document_id = $1 ORDER BY created_at`, documentID)
	if err != nil {
		return nil, common.WrapError(err, "list audit logs")
	}
	defer rows.Close()

	var logs []*entity.AuditLog
	for rows.Next() {
		var l entity.AuditLog
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.Field, &l.OldValue, &l.NewValue, &l.Actor, &l.Reason, &l.CreatedAt); err != nil {
			return nil, common.WrapError(err, "scan audit log")
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
