package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the model capability: given an instruction, optional binary
// documents and an output schema, return content that satisfies the schema.
type LLMClient interface {
	// Generate runs one model call. Implementations return a non-nil result
	// alongside errors where the call got far enough to have one.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Name returns the client identifier (e.g., "gemini").
	Name() string
}

// Document is an opaque binary input such as a PDF.
type Document struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Schema is a structured-output contract. Definition is a JSON Schema
// document.
type Schema struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"schema"`
}

// GenerateRequest is a request to an LLM.
type GenerateRequest struct {
	// Required
	Instruction string `json:"instruction"`

	Documents []Document `json:"-"`

	// Structured output. When set, the result's ParsedJSON is validated
	// against it.
	Schema *Schema `json:"schema,omitempty"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
	Timeout     time.Duration

	// Request tracking
	RequestID string `json:"-"`
}

// GenerateResult is the complete response from an LLM call.
type GenerateResult struct {
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// fail marks the result failed and returns err for convenience.
func (r *GenerateResult) fail(start time.Time, err error) (*GenerateResult, error) {
	r.Success = false
	r.ErrorMessage = err.Error()
	r.ExecutionTime = time.Since(start)
	return r, err
}

// Capability pairs a client with the retry policy applied to its calls.
type Capability struct {
	Client LLMClient
	Policy RetryPolicy
}
