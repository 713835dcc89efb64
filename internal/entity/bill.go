package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/billpipe/constants"
)

// Bill is the accounting projection of a Document (1:1).
// Money fields are integer cents.
type Bill struct {
	ID            uuid.UUID               `json:"id"`
	DocumentID    uuid.UUID               `json:"document_id"`
	VendorID      *uuid.UUID              `json:"vendor_id,omitempty"`
	BillNumber    string                  `json:"bill_number"`
	BillDate      *time.Time              `json:"bill_date,omitempty"`
	SubtotalCents int64                   `json:"subtotal_cents"`
	TaxCents      int64                   `json:"tax_cents"`
	TotalCents    int64                   `json:"total_cents"`
	Category      constants.Category      `json:"category"`
	CategoryGroup constants.CategoryGroup `json:"category_group"`
	PaymentMethod string                  `json:"payment_method"`
	PaymentStatus constants.PaymentStatus `json:"payment_status"`
	JournalID     *uuid.UUID              `json:"journal_id,omitempty"`
	PostedAt      *time.Time              `json:"posted_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`

	Items []*BillItem `json:"items,omitempty"`
}

// BillItem is one line item of a Bill, carrying its posting dimensions.
type BillItem struct {
	ID             uuid.UUID               `json:"id"`
	BillID         uuid.UUID               `json:"bill_id"`
	LineNumber     int                     `json:"line_number"`
	Description    string                  `json:"description"`
	SKU            string                  `json:"sku,omitempty"`
	Quantity       float64                 `json:"quantity"`
	UnitPriceCents int64                   `json:"unit_price_cents"`
	AmountCents    int64                   `json:"amount_cents"`
	CoaAccountID   *uuid.UUID              `json:"coa_account_id,omitempty"`
	DepartmentID   *uuid.UUID              `json:"department_id,omitempty"`
	DropID         *uuid.UUID              `json:"drop_id,omitempty"`
	IsPostable     bool                    `json:"is_postable"`
	GoLiveEligible bool                    `json:"go_live_eligible"`
	PostingStatus  constants.PostingStatus `json:"posting_status"`
}

// Vendor is resolved/created by name + derived code and shared across bills.
type Vendor struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
