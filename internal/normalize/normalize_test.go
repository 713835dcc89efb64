package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/extract"
)

func sampleResult() extract.Result {
	return extract.Result{
		Provider: extract.ProviderModel,
		Fields: extract.Fields{
			VendorName: "ACME Traders",
			BillNumber: "INV-001",
			BillDate:   "2024-03-15",
			Subtotal:   "1000",
			TaxAmount:  "180",
			Total:      "1180",
			Confidence: 0.9,
			LineItems: []extract.LineItem{
				{Description: "Widgets", Quantity: 2, UnitPrice: "500", Amount: "1000"},
			},
		},
	}
}

func TestNormalize_Basic(t *testing.T) {
	n := NewNormalizer(nil)

	bill, err := n.Normalize(sampleResult(), "software")
	require.NoError(t, err)

	assert.Equal(t, "ACME Traders", bill.VendorName)
	assert.Equal(t, int64(118000), bill.TotalCents)
	assert.Equal(t, int64(18000), bill.TaxCents)
	assert.Equal(t, int64(100000), bill.SubtotalCents)
	assert.Equal(t, constants.Software, bill.Category)
	assert.Equal(t, constants.GroupAdmin, bill.CategoryGroup)
	require.NotNil(t, bill.BillDate)
	assert.Equal(t, "2024-03-15", bill.BillDate.Format("2006-01-02"))
	require.Len(t, bill.Items, 1)
	assert.Equal(t, int64(100000), bill.Items[0].AmountCents)
}

// Same inputs must always produce the same output.
func TestNormalize_Deterministic(t *testing.T) {
	n := NewNormalizer(nil)

	a, err := n.Normalize(sampleResult(), "software")
	require.NoError(t, err)
	b, err := n.Normalize(sampleResult(), "software")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalize_UserCategoryWins(t *testing.T) {
	n := NewNormalizer(nil)

	res := sampleResult()
	res.Fields.CategoryHint = "Fuel"
	bill, err := n.Normalize(res, "travel")
	require.NoError(t, err)
	assert.Equal(t, constants.Travel, bill.Category)
}

func TestNormalize_CategoryHintUsedWhenUserEmpty(t *testing.T) {
	n := NewNormalizer(nil)

	res := sampleResult()
	res.Fields.CategoryHint = "Fuel"
	bill, err := n.Normalize(res, "")
	require.NoError(t, err)
	assert.Equal(t, constants.Fuel, bill.Category)
}

func TestNormalize_MissingVendorIsInsufficient(t *testing.T) {
	n := NewNormalizer(nil)

	res := sampleResult()
	res.Fields.VendorName = "  "
	_, err := n.Normalize(res, "software")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestNormalize_NonPositiveTotalIsInsufficient(t *testing.T) {
	n := NewNormalizer(nil)

	for _, total := range []string{"", "0", "-5", "abc"} {
		res := sampleResult()
		res.Fields.Total = total
		_, err := n.Normalize(res, "software")
		assert.True(t, errors.Is(err, common.ErrValidation), "total=%q", total)
	}
}

func TestNormalize_SubtotalDerivedFromTotalMinusTax(t *testing.T) {
	n := NewNormalizer(nil)

	res := sampleResult()
	res.Fields.Subtotal = ""
	bill, err := n.Normalize(res, "software")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), bill.SubtotalCents)
}

func TestNormalize_NoItemsSynthesizesOne(t *testing.T) {
	n := NewNormalizer(nil)

	res := sampleResult()
	res.Fields.LineItems = nil
	bill, err := n.Normalize(res, "software")
	require.NoError(t, err)
	require.Len(t, bill.Items, 1)
	assert.Equal(t, int64(118000), bill.Items[0].AmountCents)
}

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1180", 118000},
		{"1180.5", 118050},
		{"1,180.50", 118050},
		{"0.01", 1},
		{"-42.10", -4210},
		{".75", 75},
	}
	for _, c := range cases {
		got, err := ParseCents(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, bad := range []string{"", "abc", "1.234", "12.3.4"} {
		_, err := ParseCents(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "1180.00", FormatCents(118000))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-3.21", FormatCents(-321))
}
