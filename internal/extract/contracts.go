package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: file -> text plus quality metadata.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE" | "SPREADSHEET" | "DOC"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "xlsx" | "csv" | "docx"
	Quality    float64
	Enhanced   bool
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// Provider identifies which extraction path produced a field set.
type Provider string

const (
	ProviderHeuristic Provider = "heuristic"
	ProviderModel     Provider = "model"
	ProviderMerged    Provider = "merged"
	ProviderManual    Provider = "manual"
)

// Fallback reasons recorded on degraded results.
const (
	ReasonThrottled     = "throttled"
	ReasonTextTooLong   = "text_too_long"
	ReasonProviderError = "provider_error"
)

// LineItem is one extracted bill line. Money values are decimal strings as
// produced at the extraction boundary; normalization converts to cents.
type LineItem struct {
	Description string  `json:"description"`
	SKU         string  `json:"sku,omitempty"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   string  `json:"unit_price,omitempty"`
	Amount      string  `json:"amount"`
}

// Fields is the normalized field set coming out of any extraction path.
type Fields struct {
	VendorName   string     `json:"vendor_name,omitempty"`
	BillNumber   string     `json:"bill_number,omitempty"`
	BillDate     string     `json:"bill_date,omitempty"` // YYYY-MM-DD
	Subtotal     string     `json:"subtotal,omitempty"`
	TaxAmount    string     `json:"tax_amount,omitempty"`
	Total        string     `json:"total,omitempty"`
	CategoryHint string     `json:"category_hint,omitempty"`
	LineItems    []LineItem `json:"line_items,omitempty"`
	Confidence   float32    `json:"confidence,omitempty"`
}

// Result tags a field set with its provenance: the provider that produced it
// and whether it is a degraded fallback. Downstream consumers and audit
// trails always know where a value came from.
type Result struct {
	Fields   Fields
	Provider Provider
	Fallback bool
	Reason   string // "", "throttled", "text_too_long", "provider_error"
}
