package entity

import (
	"time"

	"github.com/google/uuid"
)

// AccountType classifies a chart-of-accounts row.
type AccountType string

const (
	AccountExpense   AccountType = "EXPENSE"
	AccountTax       AccountType = "TAX"
	AccountLiability AccountType = "LIABILITY"
)

// Account is one general-ledger account, upserted by code.
type Account struct {
	ID        uuid.UUID   `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
}

// JournalEntry is the double-entry record generated for one bill.
// Invariant: TotalDebitCents == TotalCreditCents.
type JournalEntry struct {
	ID               uuid.UUID `json:"id"`
	BillID           uuid.UUID `json:"bill_id"`
	EntryDate        time.Time `json:"entry_date"`
	Memo             string    `json:"memo"`
	TotalDebitCents  int64     `json:"total_debit_cents"`
	TotalCreditCents int64     `json:"total_credit_cents"`
	CreatedAt        time.Time `json:"created_at"`

	Lines []*JournalEntryLine `json:"lines,omitempty"`
}

// JournalEntryLine is one debit or credit leg of a JournalEntry.
type JournalEntryLine struct {
	ID          uuid.UUID `json:"id"`
	EntryID     uuid.UUID `json:"entry_id"`
	AccountID   uuid.UUID `json:"account_id"`
	AccountCode string    `json:"account_code"`
	DebitCents  int64     `json:"debit_cents"`
	CreditCents int64     `json:"credit_cents"`
	Memo        string    `json:"memo,omitempty"`
}
