package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/entity"
)

type fakeBills struct {
	bills     []*entity.Bill
	schedules map[uuid.UUID][]*entity.PaymentScheduleEntry
}

func (f *fakeBills) ReplaceForDocument(_ context.Context, b *entity.Bill) (*entity.Bill, error) {
	return b, nil
}
func (f *fakeBills) GetByID(_ context.Context, _ uuid.UUID) (*entity.Bill, error) {
	return nil, nil
}
func (f *fakeBills) GetByDocumentID(_ context.Context, _ uuid.UUID) (*entity.Bill, error) {
	return nil, nil
}
func (f *fakeBills) ListAll(_ context.Context) ([]*entity.Bill, error) { return f.bills, nil }
func (f *fakeBills) SetPaymentStatus(_ context.Context, _ uuid.UUID, _ constants.PaymentStatus) error {
	return nil
}
func (f *fakeBills) SetJournal(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }
func (f *fakeBills) ReplaceTermsAndSchedule(_ context.Context, _ uuid.UUID, _ *entity.PaymentTerms, _ []*entity.PaymentScheduleEntry) error {
	return nil
}
func (f *fakeBills) GetSchedule(_ context.Context, billID uuid.UUID) ([]*entity.PaymentScheduleEntry, error) {
	return f.schedules[billID], nil
}
func (f *fakeBills) UpdateItemPosting(_ context.Context, _ uuid.UUID, _ bool) error { return nil }

type fakeVendors struct {
	vendors map[uuid.UUID]*entity.Vendor
}

func (f *fakeVendors) GetOrCreateByName(_ context.Context, name string) (*entity.Vendor, error) {
	return &entity.Vendor{ID: uuid.New(), Name: name}, nil
}
func (f *fakeVendors) GetByID(_ context.Context, id uuid.UUID) (*entity.Vendor, error) {
	return f.vendors[id], nil
}

func TestExportBillsXLSX(t *testing.T) {
	vendorID := uuid.New()
	billID := uuid.New()
	billDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC)

	bills := &fakeBills{
		bills: []*entity.Bill{{
			ID:            billID,
			VendorID:      &vendorID,
			BillNumber:    "INV-9",
			BillDate:      &billDate,
			SubtotalCents: 100000,
			TaxCents:      18000,
			TotalCents:    118000,
			Category:      constants.Software,
			CategoryGroup: constants.GroupAdmin,
			PaymentStatus: constants.PaymentPending,
		}},
		schedules: map[uuid.UUID][]*entity.PaymentScheduleEntry{
			billID: {
				{BillID: billID, Seq: 1, DueDate: billDate, AmountDueCents: 30000, AmountPaidCents: 30000, Status: constants.SchedulePaid},
				{BillID: billID, Seq: 2, DueDate: dueDate, AmountDueCents: 88000, Status: constants.SchedulePending},
			},
		},
	}
	vendors := &fakeVendors{vendors: map[uuid.UUID]*entity.Vendor{
		vendorID: {ID: vendorID, Code: "ACME_TRADERS", Name: "ACME Traders"},
	}}

	svc := NewService(bills, vendors, nil)
	data, err := svc.ExportBillsXLSX(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Bills")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Bill Date", rows[0][0])
	assert.Equal(t, "Outstanding", rows[0][10])

	got := rows[1]
	assert.Equal(t, "2024-03-15", got[0])
	assert.Equal(t, "ACME Traders", got[1])
	assert.Equal(t, "INV-9", got[2])
	assert.Equal(t, "1000.00", got[5])
	assert.Equal(t, "180.00", got[6])
	assert.Equal(t, "1180.00", got[7])
	assert.Equal(t, "pending", got[8])
	assert.Equal(t, "2024-04-14", got[9])
	assert.Equal(t, "880.00", got[10])
}

func TestExportBillsXLSX_Empty(t *testing.T) {
	svc := NewService(&fakeBills{}, &fakeVendors{}, nil)
	data, err := svc.ExportBillsXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Bills")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
