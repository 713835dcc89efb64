package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
)

// DocumentRepository persists uploaded documents and their lifecycle state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkProcessing transitions a document into processing and stamps the lease.
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	// Finish records a terminal pipeline outcome. reason, when non-empty, is
	// appended to the document notes so the user can see why.
	Finish(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, reason string) error

	SetExtraction(ctx context.Context, id uuid.UUID, blob json.RawMessage, quality float64) error
	SetVerification(ctx context.Context, id uuid.UUID, v constants.VerificationStatus) error
	SetLocks(ctx context.Context, id uuid.UUID, billDateLocked, totalLocked bool) error

	// ListNeedingReview returns documents whose bills are missing a date or
	// total, or which are flagged needs_review.
	ListNeedingReview(ctx context.Context, limit int) ([]*entity.Document, error)
	// SweepStale resets documents stuck in processing longer than lease back
	// to uploaded and returns their ids for re-enqueueing.
	SweepStale(ctx context.Context, lease time.Duration) ([]uuid.UUID, error)
}

type documentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentRepository {
	return &documentRepository{pool: pool, logger: logger}
}

const documentColumns = `id, file_name, file_size, media_type, storage_path, category,
	payment_method, drop_name, notes, status, extraction, quality_score,
	verification_status, bill_date_locked, total_locked, processing_at, created_at, updated_at`

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.DocStatusUploaded
	}
	if doc.Verification == "" {
		doc.Verification = constants.VerifyUnverified
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, file_name, file_size, media_type, storage_path,
			category, payment_method, drop_name, notes, status, verification_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		doc.ID, doc.FileName, doc.FileSize, doc.MediaType, doc.StoragePath,
		doc.Category, doc.PaymentMethod, doc.DropName, doc.Notes, doc.Status, doc.Verification,
	)
	if err != nil {
		r.logger.Error("failed to create document", "document_id", doc.ID, "error", err)
		return common.WrapError(err, "create document")
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("DOCUMENT_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to load document", "document_id", id, "error", err)
		return nil, common.WrapError(err, "get document")
	}
	return doc, nil
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// bills and everything under them cascade
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return common.WrapError(err, "delete document")
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("DOCUMENT_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return nil
}

func (r *documentRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $2, processing_at = now(), updated_at = now()
		WHERE id = $1`,
		id, constants.DocStatusProcessing,
	)
	return common.WrapError(err, "mark processing")
}

func (r *documentRepository) Finish(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, reason string) error {
	var err error
	if strings.TrimSpace(reason) != "" {
		_, err = r.pool.Exec(ctx, `
			UPDATE documents
			SET status = $2,
			    notes = CASE WHEN notes = '' THEN $3 ELSE notes || E'\n' || $3 END,
			    processing_at = NULL,
			    updated_at = now()
			WHERE id = $1`,
			id, status, reason,
		)
	} else {
		_, err = r.pool.Exec(ctx, `
			UPDATE documents
			SET status = $2, processing_at = NULL, updated_at = now()
			WHERE id = $1`,
			id, status,
		)
	}
	if err != nil {
		r.logger.Error("failed to finish document", "document_id", id, "status", status, "error", err)
	}
	return common.WrapError(err, "finish document")
}

func (r *documentRepository) SetExtraction(ctx context.Context, id uuid.UUID, blob json.RawMessage, quality float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET extraction = $2, quality_score = $3, updated_at = now()
		WHERE id = $1`,
		id, blob, quality,
	)
	return common.WrapError(err, "set extraction")
}

func (r *documentRepository) SetVerification(ctx context.Context, id uuid.UUID, v constants.VerificationStatus) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents SET verification_status = $2, updated_at = now() WHERE id = $1`,
		id, v,
	)
	return common.WrapError(err, "set verification status")
}

func (r *documentRepository) SetLocks(ctx context.Context, id uuid.UUID, billDateLocked, totalLocked bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET bill_date_locked = $2, total_locked = $3, updated_at = now()
		WHERE id = $1`,
		id, billDateLocked, totalLocked,
	)
	return common.WrapError(err, "set field locks")
}

func (r *documentRepository) ListNeedingReview(ctx context.Context, limit int) ([]*entity.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents d
		WHERE d.verification_status = 'needs_review'
		   OR EXISTS (
			SELECT 1 FROM bills b
			WHERE b.document_id = d.id
			  AND (b.bill_date IS NULL OR b.total_cents <= 0)
		   )
		ORDER BY d.updated_at
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, common.WrapError(err, "list documents needing review")
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan document")
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepository) SweepStale(ctx context.Context, lease time.Duration) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE documents
		SET status = $1, processing_at = NULL, updated_at = now()
		WHERE status = $2 AND processing_at < now() - $3::interval
		RETURNING id`,
		constants.DocStatusUploaded, constants.DocStatusProcessing, lease.String(),
	)
	if err != nil {
		return nil, common.WrapError(err, "sweep stale documents")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(
		&d.ID, &d.FileName, &d.FileSize, &d.MediaType, &d.StoragePath, &d.Category,
		&d.PaymentMethod, &d.DropName, &d.Notes, &d.Status, &d.Extraction, &d.QualityScore,
		&d.Verification, &d.BillDateLock, &d.TotalLock, &d.ProcessingAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
