package extract

import "encoding/json"

// PreprocessMeta describes how the raw text was obtained.
type PreprocessMeta struct {
	Method   string   `json:"method"`
	Pages    int      `json:"pages"`
	Quality  float64  `json:"quality_score"`
	Enhanced bool     `json:"enhanced,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Amounts groups the extracted money fields (decimal strings).
type Amounts struct {
	Subtotal  string `json:"subtotal,omitempty"`
	TaxAmount string `json:"tax_amount,omitempty"`
	Total     string `json:"total,omitempty"`
}

// Blob is the per-document extraction record persisted alongside the
// document row. The _provider/_fallback tags carry field provenance.
type Blob struct {
	RawText    string         `json:"raw_text"`
	Preprocess PreprocessMeta `json:"preprocess_meta"`
	VendorName string         `json:"vendor_name,omitempty"`
	BillNumber string         `json:"bill_number,omitempty"`
	BillDate   string         `json:"bill_date,omitempty"`
	Amounts    Amounts        `json:"amounts"`
	LineItems  []LineItem     `json:"line_items,omitempty"`
	Provider   Provider       `json:"_provider"`
	Fallback   bool           `json:"_fallback"`
	Reason     string         `json:"_reason,omitempty"`
}

// NewBlob assembles the persisted blob from a text extraction and a tagged
// field result.
func NewBlob(text TextExtractionResult, res Result) Blob {
	return Blob{
		RawText: text.Text,
		Preprocess: PreprocessMeta{
			Method:   text.Method,
			Pages:    text.Pages,
			Quality:  text.Quality,
			Enhanced: text.Enhanced,
			Warnings: text.Warnings,
		},
		VendorName: res.Fields.VendorName,
		BillNumber: res.Fields.BillNumber,
		BillDate:   res.Fields.BillDate,
		Amounts: Amounts{
			Subtotal:  res.Fields.Subtotal,
			TaxAmount: res.Fields.TaxAmount,
			Total:     res.Fields.Total,
		},
		LineItems: res.Fields.LineItems,
		Provider:  res.Provider,
		Fallback:  res.Fallback,
		Reason:    res.Reason,
	}
}

// Marshal serializes the blob for storage.
func (b Blob) Marshal() (json.RawMessage, error) {
	return json.Marshal(b)
}
