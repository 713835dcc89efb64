package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/entity"
)

type fakeAccountStore struct {
	accounts map[string]*entity.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: map[string]*entity.Account{}}
}

func (f *fakeAccountStore) UpsertAccount(_ context.Context, code, name string, typ entity.AccountType) (*entity.Account, error) {
	if a, ok := f.accounts[code]; ok {
		return a, nil
	}
	a := &entity.Account{ID: uuid.New(), Code: code, Name: name, Type: typ}
	f.accounts[code] = a
	return a, nil
}

type fakeJournalStore struct {
	byBill map[uuid.UUID]*entity.JournalEntry
	calls  int
}

func newFakeJournalStore() *fakeJournalStore {
	return &fakeJournalStore{byBill: map[uuid.UUID]*entity.JournalEntry{}}
}

func (f *fakeJournalStore) ReplaceForBill(_ context.Context, entry *entity.JournalEntry) (*entity.JournalEntry, error) {
	f.calls++
	f.byBill[entry.BillID] = entry
	return entry, nil
}

func testBill(totalCents, taxCents int64) *entity.Bill {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &entity.Bill{
		ID:            uuid.New(),
		DocumentID:    uuid.New(),
		BillNumber:    "INV-42",
		BillDate:      &d,
		SubtotalCents: totalCents - taxCents,
		TaxCents:      taxCents,
		TotalCents:    totalCents,
		Category:      constants.Category("Software"),
	}
}

func TestPost_BalancedEntryWithTax(t *testing.T) {
	accounts := newFakeAccountStore()
	journal := newFakeJournalStore()
	p := NewPoster(accounts, journal, nil)

	bill := testBill(118000, 18000)
	entry, err := p.Post(context.Background(), bill, "ACME Traders")
	require.NoError(t, err)

	assert.Equal(t, entry.TotalDebitCents, entry.TotalCreditCents)
	require.Len(t, entry.Lines, 3)

	var debits, credits int64
	for _, l := range entry.Lines {
		debits += l.DebitCents
		credits += l.CreditCents
	}
	assert.Equal(t, int64(118000), debits)
	assert.Equal(t, int64(118000), credits)

	// expense debit excludes tax; tax gets its own debit line
	assert.Equal(t, int64(100000), entry.Lines[0].DebitCents)
	assert.Equal(t, InputTaxAccountCode, entry.Lines[1].AccountCode)
	assert.Equal(t, int64(18000), entry.Lines[1].DebitCents)
	assert.Equal(t, PayableAccountCode, entry.Lines[2].AccountCode)
	assert.Equal(t, int64(118000), entry.Lines[2].CreditCents)
}

func TestPost_NoTaxOmitsTaxLine(t *testing.T) {
	p := NewPoster(newFakeAccountStore(), newFakeJournalStore(), nil)

	bill := testBill(50000, 0)
	entry, err := p.Post(context.Background(), bill, "Vendor")
	require.NoError(t, err)

	require.Len(t, entry.Lines, 2)
	assert.Equal(t, int64(50000), entry.Lines[0].DebitCents)
	assert.Equal(t, int64(50000), entry.Lines[1].CreditCents)
}

func TestPost_RepostReplacesEntry(t *testing.T) {
	journal := newFakeJournalStore()
	p := NewPoster(newFakeAccountStore(), journal, nil)

	bill := testBill(10000, 0)
	first, err := p.Post(context.Background(), bill, "Vendor")
	require.NoError(t, err)

	bill.TotalCents = 20000
	bill.SubtotalCents = 20000
	second, err := p.Post(context.Background(), bill, "Vendor")
	require.NoError(t, err)

	assert.Equal(t, 2, journal.calls)
	require.Len(t, journal.byBill, 1)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, int64(20000), journal.byBill[bill.ID].TotalDebitCents)
}

func TestPost_NonPositiveTotalRejected(t *testing.T) {
	p := NewPoster(newFakeAccountStore(), newFakeJournalStore(), nil)

	bill := testBill(0, 0)
	_, err := p.Post(context.Background(), bill, "Vendor")
	assert.Error(t, err)
}

func TestBuildEntry_TaxExceedsTotalRejected(t *testing.T) {
	p := NewPoster(newFakeAccountStore(), newFakeJournalStore(), nil)

	bill := testBill(10000, 0)
	bill.TaxCents = 20000
	_, err := p.BuildEntry(context.Background(), bill, "Vendor")
	assert.Error(t, err)
}

func TestExpenseAccountFor_KnownAndFallback(t *testing.T) {
	code, name := ExpenseAccountFor(constants.Category("Software"))
	assert.NotEmpty(t, code)
	assert.NotEmpty(t, name)

	fallbackCode, _ := ExpenseAccountFor(constants.Category("definitely-not-a-category"))
	assert.NotEmpty(t, fallbackCode)
}
