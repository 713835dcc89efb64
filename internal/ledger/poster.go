package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/billpipe/internal/entity"
)

// AccountStore resolves/creates general-ledger accounts by code.
type AccountStore interface {
	UpsertAccount(ctx context.Context, code, name string, typ entity.AccountType) (*entity.Account, error)
}

// JournalStore persists journal entries. ReplaceForBill swaps out any
// previous entry for the same bill in one transaction, keeping the
// at-most-one-active-entry-per-bill invariant.
type JournalStore interface {
	ReplaceForBill(ctx context.Context, entry *entity.JournalEntry) (*entity.JournalEntry, error)
}

// Poster creates the balanced journal entry for a normalized bill:
// expense debit, optional tax debit, payable credit.
type Poster struct {
	accounts AccountStore
	journal  JournalStore
	logger   *slog.Logger
}

func NewPoster(accounts AccountStore, journal JournalStore, logger *slog.Logger) *Poster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{accounts: accounts, journal: journal, logger: logger}
}

// Post builds and persists the journal entry for a bill. Re-invoking for the
// same bill replaces the previous entry rather than duplicating it.
func (p *Poster) Post(ctx context.Context, bill *entity.Bill, vendorName string) (*entity.JournalEntry, error) {
	if bill.TotalCents <= 0 {
		return nil, fmt.Errorf("bill %s has non-positive total", bill.ID)
	}

	entry, err := p.BuildEntry(ctx, bill, vendorName)
	if err != nil {
		return nil, err
	}

	saved, err := p.journal.ReplaceForBill(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("persist journal entry: %w", err)
	}

	p.logger.Info("ledger.posted",
		"bill_id", bill.ID,
		"entry_id", saved.ID,
		"debit_cents", saved.TotalDebitCents,
		"credit_cents", saved.TotalCreditCents,
		"lines", len(saved.Lines),
	)
	return saved, nil
}

// BuildEntry resolves accounts and assembles the balanced entry without
// persisting it.
func (p *Poster) BuildEntry(ctx context.Context, bill *entity.Bill, vendorName string) (*entity.JournalEntry, error) {
	expCode, expName := ExpenseAccountFor(bill.Category)
	expense, err := p.accounts.UpsertAccount(ctx, expCode, expName, entity.AccountExpense)
	if err != nil {
		return nil, fmt.Errorf("resolve expense account: %w", err)
	}
	payable, err := p.accounts.UpsertAccount(ctx, PayableAccountCode, PayableAccountName, entity.AccountLiability)
	if err != nil {
		return nil, fmt.Errorf("resolve payable account: %w", err)
	}

	tax := bill.TaxCents
	if tax < 0 {
		tax = 0
	}
	if tax > bill.TotalCents {
		return nil, fmt.Errorf("tax %d exceeds total %d", tax, bill.TotalCents)
	}

	// the expense debit absorbs any subtotal drift so the entry stays balanced
	expenseDebit := bill.TotalCents - tax
	if bill.SubtotalCents > 0 && bill.SubtotalCents != expenseDebit {
		p.logger.Warn("ledger.subtotal_drift",
			"bill_id", bill.ID,
			"subtotal_cents", bill.SubtotalCents,
			"expense_debit_cents", expenseDebit,
		)
	}

	entryDate := time.Now().UTC()
	if bill.BillDate != nil {
		entryDate = *bill.BillDate
	}

	entry := &entity.JournalEntry{
		ID:               uuid.New(),
		BillID:           bill.ID,
		EntryDate:        entryDate,
		Memo:             fmt.Sprintf("Bill %s - %s", bill.BillNumber, vendorName),
		TotalDebitCents:  bill.TotalCents,
		TotalCreditCents: bill.TotalCents,
	}
	entry.Lines = append(entry.Lines, &entity.JournalEntryLine{
		ID:          uuid.New(),
		EntryID:     entry.ID,
		AccountID:   expense.ID,
		AccountCode: expense.Code,
		DebitCents:  expenseDebit,
		Memo:        string(bill.Category),
	})
	if tax > 0 {
		taxAcct, err := p.accounts.UpsertAccount(ctx, InputTaxAccountCode, InputTaxAccountName, entity.AccountTax)
		if err != nil {
			return nil, fmt.Errorf("resolve tax account: %w", err)
		}
		entry.Lines = append(entry.Lines, &entity.JournalEntryLine{
			ID:          uuid.New(),
			EntryID:     entry.ID,
			AccountID:   taxAcct.ID,
			AccountCode: taxAcct.Code,
			DebitCents:  tax,
			Memo:        "input tax",
		})
	}
	entry.Lines = append(entry.Lines, &entity.JournalEntryLine{
		ID:          uuid.New(),
		EntryID:     entry.ID,
		AccountID:   payable.ID,
		AccountCode: payable.Code,
		CreditCents: bill.TotalCents,
		Memo:        vendorName,
	})

	return entry, nil
}
