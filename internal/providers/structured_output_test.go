package providers

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

var testFieldSchema = &Schema{
	Name: "field_with_evidence",
	Definition: json.RawMessage(`{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {
			"missing": {"type": "boolean"},
			"content": {"type": ["string", "null"]},
			"additionalProperties": {"type": "string"}
		},
		"required": ["missing"],
		"additionalProperties": false
	}`),
}

func TestParseStructuredJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"plain object", `{"ok": true}`, `{"ok":true}`, false},
		{"fenced with language", "```json\n{\"ok\":true}\n```", `{"ok":true}`, false},
		{"fenced without closing fence", "```\n[1, 2]", `[1,2]`, false},
		{"surrounded by prose", `Here is the result: {"missing": true} hope this helps`, `{"missing":true}`, false},
		{"array before object", `values: [{"a": 1}] done`, `[{"a":1}]`, false},
		{"fence on one line", "```{}```", `{}`, false},
		{"empty", "  \n ", "", true},
		{"no json", "I could not read the document.", "", true},
		{"unbalanced", `result: {"a": 1`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStructuredJSON(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStructuredJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("parseStructuredJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeStructured(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		schema    *Schema
		wantErr   bool
		wantShape bool
	}{
		{"valid", `{"missing": false, "content": "1% fee"}`, testFieldSchema, false, false},
		{"valid fenced", "```json\n{\"missing\": true}\n```", testFieldSchema, false, false},
		{"no schema accepts any json", `[1,2,3]`, nil, false, false},
		{"empty output", "   ", testFieldSchema, true, true},
		{"not json", "I could not read the document.", testFieldSchema, true, true},
		{"schema violation", `{"content": "1% fee"}`, testFieldSchema, true, true},
		{"extra property", `{"missing": true, "foo": 1}`, testFieldSchema, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStructured(tt.content, tt.schema)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeStructured() error = %v, wantErr %v", err, tt.wantErr)
			}
			if IsShapeError(err) != tt.wantShape {
				t.Errorf("IsShapeError() = %v, want %v", IsShapeError(err), tt.wantShape)
			}
		})
	}
}

func TestShapeErrorIsDistinctFromAPIError(t *testing.T) {
	_, shapeErr := DecodeStructured("nope", testFieldSchema)
	apiErr := statusError("gemini", 500, "internal", 0)

	var ae *APIError
	if errors.As(shapeErr, &ae) {
		t.Error("shape error should not be an APIError")
	}
	if IsShapeError(apiErr) {
		t.Error("APIError should not be a shape error")
	}
	if !errors.As(apiErr, &ae) || ae.StatusCode != 500 {
		t.Errorf("expected APIError with status 500, got %v", apiErr)
	}
}

func TestStatusError_RateLimit(t *testing.T) {
	err := statusError("openai", 429, "slow down", parseRetryAfter("7"))
	rle, ok := IsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T", err)
	}
	if rle.RetryAfter.Seconds() != 7 {
		t.Errorf("RetryAfter = %v", rle.RetryAfter)
	}
}

func TestStripSchemaKeywords(t *testing.T) {
	got, err := stripSchemaKeywords(testFieldSchema.Definition, "$schema", "additionalProperties")
	if err != nil {
		t.Fatalf("stripSchemaKeywords() error = %v", err)
	}
	if _, ok := got["$schema"]; ok {
		t.Error("$schema should be removed")
	}
	if _, ok := got["additionalProperties"]; ok {
		t.Error("top-level additionalProperties should be removed")
	}
	props := got["properties"].(map[string]any)
	if _, ok := props["additionalProperties"]; !ok {
		t.Error("a property named additionalProperties must survive")
	}

	data, _ := json.Marshal(got)
	if !strings.Contains(string(data), `"required":["missing"]`) {
		t.Errorf("other keywords should remain: %s", data)
	}
}

func TestValidateStructuredJSON_UnwrapsNamedSchema(t *testing.T) {
	wrapped, _ := json.Marshal(map[string]any{
		"name":   "field",
		"strict": true,
		"schema": json.RawMessage(testFieldSchema.Definition),
	})

	if err := validateStructuredJSON(wrapped, json.RawMessage(`{"missing":true}`)); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
	if err := validateStructuredJSON(wrapped, json.RawMessage(`{"missing":"yes"}`)); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCompileSchema_Cached(t *testing.T) {
	first, err := compileSchema(testFieldSchema.Definition)
	if err != nil {
		t.Fatalf("compileSchema() error = %v", err)
	}
	second, err := compileSchema(testFieldSchema.Definition)
	if err != nil {
		t.Fatalf("compileSchema() error = %v", err)
	}
	if first != second {
		t.Error("expected the same compiled schema for identical documents")
	}

	if _, err := compileSchema(json.RawMessage(`[1]`)); err == nil {
		t.Error("expected error for a schema that is not an object")
	}
}
