package llm

import "context"

// FieldValue is a value/confidence/evidence triple for a financial field.
// Evidence must be a verbatim substring of the input text; treated as a soft
// invariant, not independently re-verified here.
type FieldValue struct {
	Value      string  `json:"value"`
	Confidence float32 `json:"confidence,omitempty"`
	Evidence   string  `json:"evidence,omitempty"`
}

// LineItem is one bill line as returned by the model.
type LineItem struct {
	Description string  `json:"description"`
	SKU         string  `json:"sku,omitempty"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   string  `json:"unit_price,omitempty"`
	Amount      string  `json:"amount"`
}

// BillFields is the normalized shape we want from the LLM.
type BillFields struct {
	VendorName   string     `json:"vendor_name"`
	BillNumber   string     `json:"bill_number,omitempty"`
	BillDate     FieldValue `json:"bill_date"`
	TotalAmount  FieldValue `json:"total_amount"`
	Subtotal     string     `json:"subtotal,omitempty"`   // decimal
	TaxAmount    string     `json:"tax_amount,omitempty"` // decimal
	LineItems    []LineItem `json:"line_items,omitempty"`
	QualityScore float32    `json:"quality_score,omitempty"` // 0..1
	Reason       string     `json:"reason,omitempty"`
}

// Hint is a heuristic candidate the model may use but must validate against
// the actual text. Hints are never blindly trusted.
type Hint struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type ExtractRequest struct {
	Text  string
	Hints []Hint
}

// FieldExtractor is the interface the orchestrator depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (BillFields, []byte /*rawJSON*/, error)
}
