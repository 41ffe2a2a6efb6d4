package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DecodeStructured turns raw model output into JSON that satisfies schema.
// A nil schema only requires the output to be JSON. Failures are
// *ShapeError.
func DecodeStructured(content string, schema *Schema) (json.RawMessage, error) {
	parsed, err := parseStructuredJSON(content)
	if err != nil {
		return nil, &ShapeError{Output: content, Err: err}
	}
	if schema == nil {
		return parsed, nil
	}
	if err := validateStructuredJSON(schema.Definition, parsed); err != nil {
		return nil, &ShapeError{Output: content, Err: err}
	}
	return parsed, nil
}

// finishStructured decodes result content when the request asked for a
// schema, marking the result failed on a shape mismatch.
func finishStructured(result *GenerateResult, req *GenerateRequest) error {
	if req.Schema == nil {
		return nil
	}
	parsed, err := DecodeStructured(result.Content, req.Schema)
	if err != nil {
		result.Success = false
		result.ErrorMessage = err.Error()
		return err
	}
	result.ParsedJSON = parsed
	return nil
}

// stripSchemaKeywords copies a schema document without the named keywords.
// Gemini rejects some keywords that local validation still relies on.
func stripSchemaKeywords(schemaRaw json.RawMessage, keywords ...string) (map[string]any, error) {
	var root map[string]any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("failed to parse structured schema: %w", err)
	}
	stripKeywords(root, keywords)
	return root, nil
}

func stripKeywords(node any, keywords []string) {
	switch n := node.(type) {
	case map[string]any:
		for _, k := range keywords {
			delete(n, k)
		}
		for k, v := range n {
			// Keys under "properties" are field names, not keywords.
			if props, ok := v.(map[string]any); ok && k == "properties" {
				for _, sub := range props {
					stripKeywords(sub, keywords)
				}
				continue
			}
			stripKeywords(v, keywords)
		}
	case []any:
		for _, v := range n {
			stripKeywords(v, keywords)
		}
	}
}

// parseStructuredJSON parses model output as JSON, falling back to the body
// of a markdown fence and then to the outermost bracketed span.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	for _, candidate := range []string{content, unfence(content), outermostJSON(content)} {
		if candidate == "" || !json.Valid([]byte(candidate)) {
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(candidate)); err != nil {
			return nil, fmt.Errorf("failed to normalize structured output: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("failed to parse structured JSON")
}

// unfence returns the body of a ```-fenced block, or "" when content is not
// fenced.
func unfence(content string) string {
	rest, ok := strings.CutPrefix(content, "```")
	if !ok {
		return ""
	}
	_, body, ok := strings.Cut(rest, "\n")
	if !ok {
		return ""
	}
	body = strings.TrimSpace(body)
	return strings.TrimSpace(strings.TrimSuffix(body, "```"))
}

// outermostJSON returns the span from the first '{' or '[' to the last
// matching closer.
func outermostJSON(content string) string {
	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return ""
	}
	closer := "}"
	if content[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(content, closer)
	if end < start {
		return ""
	}
	return content[start : end+1]
}

// compiled holds compiled schemas keyed by document text.
var compiled sync.Map

// validateStructuredJSON validates parsed JSON against a schema document.
func validateStructuredJSON(schemaRaw, parsed json.RawMessage) error {
	if len(schemaRaw) == 0 || len(parsed) == 0 {
		return nil
	}

	schema, err := compileSchema(schemaRaw)
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

func compileSchema(schemaRaw json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schemaRaw)
	if s, ok := compiled.Load(key); ok {
		return s.(*jsonschema.Schema), nil
	}

	body, err := schemaBody(schemaRaw)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("failed to load structured schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile structured schema: %w", err)
	}
	compiled.Store(key, schema)
	return schema, nil
}

// schemaBody unwraps a {"name", "strict", "schema": {...}} envelope as sent
// to OpenAI; a bare schema document is returned unchanged.
func schemaBody(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(schemaRaw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}
	if len(envelope.Schema) > 0 && envelope.Schema[0] == '{' {
		return envelope.Schema, nil
	}
	return schemaRaw, nil
}
