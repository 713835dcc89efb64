package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/extract"
)

// Item is one normalized bill line, money in cents.
type Item struct {
	LineNumber     int
	Description    string
	SKU            string
	Quantity       float64
	UnitPriceCents int64
	AmountCents    int64
}

// Bill is the normalized accounting projection of an extraction result.
type Bill struct {
	VendorName    string
	BillNumber    string
	BillDate      *time.Time
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	Category      constants.Category
	CategoryGroup constants.CategoryGroup
	Items         []Item
	Provider      extract.Provider
	Fallback      bool
	Confidence    float32
}

// Normalizer maps raw extraction results plus the document's chosen category
// into the canonical bill record. Deterministic: the same inputs always yield
// the same output.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize builds the canonical bill. userCategory is the category chosen at
// upload time and always wins over any model-suggested category.
// Returns ErrValidation-wrapped "insufficient extraction" when no vendor name
// or no positive total can be determined; callers route such documents to
// manual review.
func (n *Normalizer) Normalize(res extract.Result, userCategory string) (*Bill, error) {
	f := res.Fields

	vendor := strings.TrimSpace(f.VendorName)
	if vendor == "" {
		return nil, common.NewAppError("INSUFFICIENT_EXTRACTION", "no vendor name", common.ErrValidation)
	}

	totalCents, err := ParseCents(f.Total)
	if err != nil || totalCents <= 0 {
		return nil, common.NewAppError("INSUFFICIENT_EXTRACTION",
			fmt.Sprintf("no positive total amount (%q)", f.Total), common.ErrValidation)
	}

	catInput := userCategory
	if strings.TrimSpace(catInput) == "" {
		catInput = f.CategoryHint
	}
	category, matched := constants.Canonicalize(catInput)
	if !matched {
		n.logger.Warn("normalize.category_fallthrough", "input", catInput, "resolved", category)
	}

	taxCents := int64(0)
	if f.TaxAmount != "" {
		if v, err := ParseCents(f.TaxAmount); err == nil && v >= 0 {
			taxCents = v
		}
	}
	subtotalCents := totalCents - taxCents
	if f.Subtotal != "" {
		if v, err := ParseCents(f.Subtotal); err == nil && v > 0 {
			subtotalCents = v
		}
	}

	var billDate *time.Time
	if f.BillDate != "" {
		if d, err := time.Parse("2006-01-02", f.BillDate); err == nil {
			billDate = &d
		} else {
			n.logger.Warn("normalize.bad_bill_date", "value", f.BillDate)
		}
	}

	bill := &Bill{
		VendorName:    vendor,
		BillNumber:    strings.TrimSpace(f.BillNumber),
		BillDate:      billDate,
		SubtotalCents: subtotalCents,
		TaxCents:      taxCents,
		TotalCents:    totalCents,
		Category:      category,
		CategoryGroup: constants.GroupFor(category),
		Items:         normalizeItems(f.LineItems, category, totalCents),
		Provider:      res.Provider,
		Fallback:      res.Fallback,
		Confidence:    f.Confidence,
	}
	return bill, nil
}

// normalizeItems converts extracted lines to cents; when nothing usable was
// extracted a single synthetic line covering the total keeps the bill postable.
func normalizeItems(lines []extract.LineItem, category constants.Category, totalCents int64) []Item {
	var items []Item
	for _, li := range lines {
		amount, err := ParseCents(li.Amount)
		if err != nil || amount <= 0 {
			continue
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		unit := int64(0)
		if li.UnitPrice != "" {
			if v, err := ParseCents(li.UnitPrice); err == nil && v > 0 {
				unit = v
			}
		}
		if unit == 0 {
			unit = amount
		}
		items = append(items, Item{
			LineNumber:     len(items) + 1,
			Description:    strings.TrimSpace(li.Description),
			SKU:            strings.TrimSpace(li.SKU),
			Quantity:       qty,
			UnitPriceCents: unit,
			AmountCents:    amount,
		})
	}
	if len(items) == 0 {
		items = append(items, Item{
			LineNumber:     1,
			Description:    string(category) + " expense",
			Quantity:       1,
			UnitPriceCents: totalCents,
			AmountCents:    totalCents,
		})
	}
	return items
}
