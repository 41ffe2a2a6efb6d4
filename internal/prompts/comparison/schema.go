package comparison

import "github.com/jackzampolin/mitc/internal/mitc"

// SchemaName names the BankComparisonResponse structured-output contract.
const SchemaName = "bank_comparison"

// Schema returns the JSON schema for a BankComparisonResponse.
func Schema() map[string]any {
	statuses := make([]string, 0, len(mitc.CellStatuses))
	for _, s := range mitc.CellStatuses {
		statuses = append(statuses, string(s))
	}

	cell := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"bank_id":     map[string]any{"type": []string{"string", "null"}},
			"bank_name":   map[string]any{"type": []string{"string", "null"}},
			"status":      map[string]any{"type": "string", "enum": statuses},
			"explanation": map[string]any{"type": "string"},
			"details":     map[string]any{"type": []string{"string", "null"}},
		},
		"required":             []string{"status", "explanation"},
		"additionalProperties": false,
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"rows": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field_name":   map[string]any{"type": "string"},
						"bank_results": map[string]any{"type": "array", "items": cell},
					},
					"required":             []string{"field_name", "bank_results"},
					"additionalProperties": false,
				},
			},
			"summary": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"status": map[string]any{"type": "string", "enum": statuses},
						"count":  map[string]any{"type": "integer", "minimum": 0},
					},
					"required":             []string{"status", "count"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"rows", "summary"},
		"additionalProperties": false,
	}
}
