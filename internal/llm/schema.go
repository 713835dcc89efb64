package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildBillJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the model as a structured output constraint and also use it
// locally to validate the response.
func BuildBillJSONSchema() map[string]any {
	fieldValue := func() map[string]any {
		return map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"value":      map[string]any{"type": "string"},
				"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
				"evidence":   map[string]any{"type": "string"},
			},
			"required": []string{"value"},
		}
	}

	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "minLength": 1},
			"sku":         map[string]any{"type": "string"},
			"quantity":    map[string]any{"type": "number", "minimum": 0.0},
			"unit_price":  decimalProp(),
			"amount":      decimalProp(),
		},
		"required": []string{"description", "amount"},
	}

	props := map[string]any{
		"vendor_name":   map[string]any{"type": "string", "minLength": 1},
		"bill_number":   map[string]any{"type": "string"},
		"bill_date":     fieldValue(),
		"total_amount":  fieldValue(),
		"subtotal":      decimalProp(),
		"tax_amount":    decimalProp(),
		"line_items":    map[string]any{"type": "array", "items": lineItem},
		"quality_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"reason":        map[string]any{"type": "string"},
	}
	required := []string{"vendor_name", "bill_date", "total_amount"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`,
	}
}

// ValidateJSONAgainstSchema compiles the schema map and validates a raw JSON
// document against it.
func ValidateJSONAgainstSchema(schema map[string]any, doc []byte) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
