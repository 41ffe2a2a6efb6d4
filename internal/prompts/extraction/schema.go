package extraction

import "github.com/jackzampolin/mitc/internal/mitc"

// SchemaName names the BankInfo structured-output contract.
const SchemaName = "bank_info"

var nullableString = map[string]any{"type": []string{"string", "null"}}

var fieldSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"missing": map[string]any{
			"type":        "boolean",
			"description": "true when the document does not cover this topic",
		},
		"content": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Summary of the terms, null when missing",
		},
		"evidence": map[string]any{
			"type": []string{"array", "null"},
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"page_number":  map[string]any{"type": []string{"integer", "null"}, "minimum": 1},
					"line_snippet": map[string]any{"type": "string"},
				},
				"required":             []string{"line_snippet"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"missing"},
	"additionalProperties": false,
}

// Schema returns the JSON schema for a BankInfo record.
func Schema() map[string]any {
	props := map[string]any{
		"bank_name": map[string]any{
			"type":        "string",
			"description": "Lender name as printed",
		},
		"is_valid_home_loan_mitc": map[string]any{"type": "boolean"},
		"validation_reason":       nullableString,
		"effective_date":          nullableString,
		"updated_date":            nullableString,
		"date_source":             nullableString,
	}
	required := []string{"bank_name", "is_valid_home_loan_mitc"}
	for _, key := range mitc.FieldKeys {
		props[key] = fieldSchema
		required = append(required, key)
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
