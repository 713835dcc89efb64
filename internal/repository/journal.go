package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
)

// JournalRepository persists journal entries. Satisfies ledger.JournalStore.
type JournalRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewJournalRepository(pool *pgxpool.Pool, logger *slog.Logger) *JournalRepository {
	return &JournalRepository{pool: pool, logger: logger}
}

// ReplaceForBill swaps out any previous journal entry for the bill inside one
// transaction, so a bill never has more than one active entry.
func (r *JournalRepository) ReplaceForBill(ctx context.Context, entry *entity.JournalEntry) (*entity.JournalEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	err := inTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE bill_id = $1`, entry.BillID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO journal_entries (id, bill_id, entry_date, memo, total_debit_cents, total_credit_cents)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			entry.ID, entry.BillID, entry.EntryDate, entry.Memo,
			entry.TotalDebitCents, entry.TotalCreditCents,
		); err != nil {
			return err
		}
		for _, line := range entry.Lines {
			if line.ID == uuid.Nil {
				line.ID = uuid.New()
			}
			line.EntryID = entry.ID
			if _, err := tx.Exec(ctx, `
				INSERT INTO journal_entry_lines (id, entry_id, account_id, account_code, debit_cents, credit_cents, memo)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				line.ID, line.EntryID, line.AccountID, line.AccountCode,
				line.DebitCents, line.CreditCents, line.Memo,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to replace journal entry", "bill_id", entry.BillID, "error", err)
		return nil, common.WrapError(err, "replace journal entry")
	}
	return entry, nil
}

// GetByBillID loads the journal entry with its lines.
func (r *JournalRepository) GetByBillID(ctx context.Context, billID uuid.UUID) (*entity.JournalEntry, error) {
	var e entity.JournalEntry
	err := r.pool.QueryRow(ctx, `
		SELECT id, bill_id, entry_date, memo, total_debit_cents, total_credit_cents, created_at
		FROM journal_entries WHERE bill_id = $1`, billID).
		Scan(&e.ID, &e.BillID, &e.EntryDate, &e.Memo, &e.TotalDebitCents, &e.TotalCreditCents, &e.CreatedAt)
	if err != nil {
		return nil, common.NewAppError("JOURNAL_NOT_FOUND", billID.String(), common.ErrNotFound)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, entry_id, account_id, account_code, debit_cents, credit_cents, memo
		FROM journal_entry_lines WHERE entry_id = $1 ORDER BY debit_cents DESC, credit_cents DESC`, e.ID)
	if err != nil {
		return nil, common.WrapError(err, "load journal lines")
	}
	defer rows.Close()

	for rows.Next() {
		var l entity.JournalEntryLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.AccountCode, &l.DebitCents, &l.CreditCents, &l.Memo); err != nil {
			return nil, common.WrapError(err, "scan journal line")
		}
		e.Lines = append(e.Lines, &l)
	}
	return &e, rows.Err()
}
