package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
)

// BillRepository persists bills, their line items, payment terms and the
// derived payment schedule.
type BillRepository interface {
	// ReplaceForDocument upserts the single bill for a document together with
	// its line items. Reprocessing a document replaces the previous rows.
	ReplaceForDocument(ctx context.Context, bill *entity.Bill) (*entity.Bill, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*entity.Bill, error)
	ListAll(ctx context.Context) ([]*entity.Bill, error)

	SetPaymentStatus(ctx context.Context, billID uuid.UUID, status constants.PaymentStatus) error
	SetJournal(ctx context.Context, billID uuid.UUID, journalID uuid.UUID) error

	// ReplaceTermsAndSchedule destructively regenerates terms and schedule
	// rows for the bill inside one transaction.
	ReplaceTermsAndSchedule(ctx context.Context, billID uuid.UUID, terms *entity.PaymentTerms, rows []*entity.PaymentScheduleEntry) error
	GetSchedule(ctx context.Context, billID uuid.UUID) ([]*entity.PaymentScheduleEntry, error)

	// UpdateItemPosting marks a line item posted or reverts it. Posting
	// requires all three posting dimensions to be set; reverting clears
	// is_postable so the item must be re-checked before posting again.
	UpdateItemPosting(ctx context.Context, itemID uuid.UUID, post bool) error
}

type billRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewBillRepository(pool *pgxpool.Pool, logger *slog.Logger) BillRepository {
	return &billRepository{pool: pool, logger: logger}
}

const billColumns = `id, document_id, vendor_id, bill_number, bill_date,
	subtotal_cents, tax_cents, total_cents, category, category_group,
	payment_method, payment_status, journal_id, posted_at, created_at, updated_at`

func (r *billRepository) ReplaceForDocument(ctx context.Context, bill *entity.Bill) (*entity.Bill, error) {
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	if bill.PaymentStatus == "" {
		bill.PaymentStatus = constants.PaymentPending
	}

	err := inTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO bills (id, document_id, vendor_id, bill_number, bill_date,
				subtotal_cents, tax_cents, total_cents, category, category_group,
				payment_method, payment_status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (document_id) DO UPDATE SET
				vendor_id = EXCLUDED.vendor_id,
				bill_number = EXCLUDED.bill_number,
				bill_date = EXCLUDED.bill_date,
				subtotal_cents = EXCLUDED.subtotal_cents,
				tax_cents = EXCLUDED.tax_cents,
				total_cents = EXCLUDED.total_cents,
				category = EXCLUDED.category,
				category_group = EXCLUDED.category_group,
				payment_method = EXCLUDED.payment_method,
				updated_at = now()
			RETURNING id, created_at`,
			bill.ID, bill.DocumentID, bill.VendorID, bill.BillNumber, bill.BillDate,
			bill.SubtotalCents, bill.TaxCents, bill.TotalCents, bill.Category, bill.CategoryGroup,
			bill.PaymentMethod, bill.PaymentStatus,
		)
		if err := row.Scan(&bill.ID, &bill.CreatedAt); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, bill.ID); err != nil {
			return err
		}
		for i, item := range bill.Items {
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.BillID = bill.ID
			if item.LineNumber == 0 {
				item.LineNumber = i + 1
			}
			if item.PostingStatus == "" {
				item.PostingStatus = constants.PostingUnposted
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO bill_items (id, bill_id, line_number, description, sku,
					quantity, unit_price_cents, amount_cents, coa_account_id,
					department_id, drop_id, is_postable, go_live_eligible, posting_status)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
				item.ID, item.BillID, item.LineNumber, item.Description, item.SKU,
				item.Quantity, item.UnitPriceCents, item.AmountCents, item.CoaAccountID,
				item.DepartmentID, item.DropID, item.IsPostable, item.GoLiveEligible, item.PostingStatus,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to replace bill", "document_id", bill.DocumentID, "error", err)
		return nil, common.WrapError(err, "replace bill")
	}
	return bill, nil
}

func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
	return r.scanBillWithItems(ctx, row)
}

func (r *billRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*entity.Bill, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE document_id = $1`, documentID)
	return r.scanBillWithItems(ctx, row)
}

func (r *billRepository) scanBillWithItems(ctx context.Context, row pgx.Row) (*entity.Bill, error) {
	bill, err := scanBill(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewAppError("BILL_NOT_FOUND", "no bill for the given id", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "get bill")
	}
	bill.Items, err = r.loadItems(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *billRepository) ListAll(ctx context.Context) ([]*entity.Bill, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+billColumns+` FROM bills ORDER BY bill_date NULLS LAST, created_at`)
	if err != nil {
		return nil, common.WrapError(err, "list bills")
	}
	defer rows.Close()

	var bills []*entity.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan bill")
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

func (r *billRepository) loadItems(ctx context.Context, billID uuid.UUID) ([]*entity.BillItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, bill_id, line_number, description, sku, quantity,
			unit_price_cents, amount_cents, coa_account_id, department_id,
			drop_id, is_postable, go_live_eligible, posting_status
		FROM bill_items WHERE bill_id = $1 ORDER BY line_number`, billID)
	if err != nil {
		return nil, common.WrapError(err, "load bill items")
	}
	defer rows.Close()

	var items []*entity.BillItem
	for rows.Next() {
		var it entity.BillItem
		if err := rows.Scan(
			&it.ID, &it.BillID, &it.LineNumber, &it.Description, &it.SKU, &it.Quantity,
			&it.UnitPriceCents, &it.AmountCents, &it.CoaAccountID, &it.DepartmentID,
			&it.DropID, &it.IsPostable, &it.GoLiveEligible, &it.PostingStatus,
		); err != nil {
			return nil, common.WrapError(err, "scan bill item")
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *billRepository) SetPaymentStatus(ctx context.Context, billID uuid.UUID, status constants.PaymentStatus) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bills SET payment_status = $2, updated_at = now() WHERE id = $1`,
		billID, status,
	)
	return common.WrapError(err, "set payment status")
}

func (r *billRepository) SetJournal(ctx context.Context, billID uuid.UUID, journalID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bills SET journal_id = $2, posted_at = now(), updated_at = now() WHERE id = $1`,
		billID, journalID,
	)
	return common.WrapError(err, "set bill journal")
}

func (r *billRepository) ReplaceTermsAndSchedule(ctx context.Context, billID uuid.UUID, terms *entity.PaymentTerms, entries []*entity.PaymentScheduleEntry) error {
	err := inTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM payment_terms WHERE bill_id = $1`, billID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM payment_schedule WHERE bill_id = $1`, billID); err != nil {
			return err
		}

		if terms != nil {
			if terms.ID == uuid.Nil {
				terms.ID = uuid.New()
			}
			installments, err := json.Marshal(terms.Installments)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO payment_terms (id, bill_id, terms_type, advance_pct, due_date, installments)
				VALUES ($1,$2,$3,$4,$5,$6)`,
				terms.ID, billID, terms.Type, terms.AdvancePct, terms.DueDate, installments,
			); err != nil {
				return err
			}
		}

		for i, e := range entries {
			if e.ID == uuid.Nil {
				e.ID = uuid.New()
			}
			e.BillID = billID
			if e.Seq == 0 {
				e.Seq = i + 1
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO payment_schedule (id, bill_id, seq, due_date, amount_due_cents, amount_paid_cents, status)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				e.ID, e.BillID, e.Seq, e.DueDate, e.AmountDueCents, e.AmountPaidCents, e.Status,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to replace payment schedule", "bill_id", billID, "error", err)
		return common.WrapError(err, "replace payment schedule")
	}
	return nil
}

func (r *billRepository) GetSchedule(ctx context.Context, billID uuid.UUID) ([]*entity.PaymentScheduleEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, bill_id, seq, due_date, amount_due_cents, amount_paid_cents, status
		FROM payment_schedule WHERE bill_id = $1 ORDER BY seq`, billID)
	if err != nil {
		return nil, common.WrapError(err, "load payment schedule")
	}
	defer rows.Close()

	var entries []*entity.PaymentScheduleEntry
	for rows.Next() {
		var e entity.PaymentScheduleEntry
		if err := rows.Scan(&e.ID, &e.BillID, &e.Seq, &e.DueDate, &e.AmountDueCents, &e.AmountPaidCents, &e.Status); err != nil {
			return nil, common.WrapError(err, "scan schedule entry")
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *billRepository) UpdateItemPosting(ctx context.Context, itemID uuid.UUID, post bool) error {
	return inTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var it entity.BillItem
		err := tx.QueryRow(ctx, `
			SELECT id, coa_account_id, department_id, drop_id, is_postable, posting_status
			FROM bill_items WHERE id = $1 FOR UPDATE`, itemID).
			Scan(&it.ID, &it.CoaAccountID, &it.DepartmentID, &it.DropID, &it.IsPostable, &it.PostingStatus)
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundError("bill item not found")
		}
		if err != nil {
			return common.WrapError(err, "load bill item")
		}

		status, postable, err := resolveItemPosting(&it, post)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE bill_items SET posting_status = $2, is_postable = $3 WHERE id = $1`,
			itemID, status, postable)
		return err
	})
}

// resolveItemPosting decides the resulting posting state for a line item.
// Posting requires all three posting dimensions; reverting always clears
// is_postable so the item is re-validated before it can post again.
func resolveItemPosting(it *entity.BillItem, post bool) (constants.PostingStatus, bool, error) {
	if !post {
		return constants.PostingUnposted, false, nil
	}
	if it.CoaAccountID == nil || it.DepartmentID == nil || it.DropID == nil {
		return "", false, common.FailedPreconditionError("item needs account, department and drop before posting")
	}
	return constants.PostingPosted, it.IsPostable, nil
}

func scanBill(row pgx.Row) (*entity.Bill, error) {
	var b entity.Bill
	err := row.Scan(
		&b.ID, &b.DocumentID, &b.VendorID, &b.BillNumber, &b.BillDate,
		&b.SubtotalCents, &b.TaxCents, &b.TotalCents, &b.Category, &b.CategoryGroup,
		&b.PaymentMethod, &b.PaymentStatus, &b.JournalID, &b.PostedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
