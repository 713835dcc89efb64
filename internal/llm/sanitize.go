package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (merchant_name -> vendor_name, invoice_number -> bill_number)
// - Drops null/empty optionals
// - Coerces numeric -> string for money-ish fields
// - Wraps bare string dates/totals into value objects
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms to our schema
	renamed("merchant_name", "vendor_name")
	renamed("invoice_number", "bill_number")
	renamed("invoice_date", "bill_date")
	renamed("total", "total_amount")
	renamed("tax", "tax_amount")
	renamed("items", "line_items")

	// 2) wrap bare values into {value: ...} objects for the triple fields
	for _, k := range []string{"bill_date", "total_amount"} {
		switch t := m[k].(type) {
		case string:
			m[k] = map[string]any{"value": strings.TrimSpace(t)}
			dropped = append(dropped, k+"(wrapped)")
		case float64:
			m[k] = map[string]any{"value": fmt.Sprintf("%.2f", t)}
			dropped = append(dropped, k+"(wrapped)")
		case map[string]any:
			if v, ok := t["value"].(float64); ok {
				t["value"] = fmt.Sprintf("%.2f", v)
			}
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		}
	}

	// 3) drop null / "" for optionals; coerce money fields to strings
	moneyFields := []string{"subtotal", "tax_amount"}
	for _, k := range moneyFields {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case float64:
				m[k] = fmt.Sprintf("%.2f", t)
			case string:
				s := strings.TrimSpace(t)
				if s == "" || strings.EqualFold(s, "null") {
					delete(m, k)
					dropped = append(dropped, k+"(empty)")
				} else {
					m[k] = s
				}
			case nil:
				delete(m, k)
				dropped = append(dropped, k+"(null)")
			default:
				delete(m, k)
				dropped = append(dropped, k+"(type)")
			}
		}
	}

	// 4) sanitize line items: coerce amounts, drop rows with no description
	if raw, ok := m["line_items"].([]any); ok {
		items := make([]any, 0, len(raw))
		for _, it := range raw {
			row, ok := it.(map[string]any)
			if !ok {
				dropped = append(dropped, "line_items(row type)")
				continue
			}
			for _, k := range []string{"unit_price", "amount"} {
				if f, ok := row[k].(float64); ok {
					row[k] = fmt.Sprintf("%.2f", f)
				}
			}
			if desc, _ := row["description"].(string); strings.TrimSpace(desc) == "" {
				dropped = append(dropped, "line_items(no description)")
				continue
			}
			items = append(items, row)
		}
		m["line_items"] = items
	}

	// 5) remove unknown keys (everything not in the schema set below)
	allowed := map[string]struct{}{
		"vendor_name": {}, "bill_number": {}, "bill_date": {}, "total_amount": {},
		"subtotal": {}, "tax_amount": {}, "line_items": {}, "quality_score": {},
		"reason": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	// 6) trim obvious strings
	for _, k := range []string{"vendor_name", "bill_number", "reason"} {
		if v, ok := m[k].(string); ok {
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
