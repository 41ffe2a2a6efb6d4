// Package llmcall provides LLM call recording and querying for traceability.
// Every model call is recorded with its prompt key, response, and metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/mitc/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID        string `json:"id"`
	RequestID string `json:"request_id,omitempty"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	Filename string `json:"filename,omitempty"`
	Attempt  int    `json:"attempt"`

	// Prompt traceability
	PromptKey string `json:"prompt_key"`
	PromptCID string `json:"prompt_cid,omitempty"` // sha256 of the exact instruction sent

	// Model info
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`

	// Token usage
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	Response string `json:"response"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	Filename string
	Attempt  int // 1-based

	// Prompt identification (required for traceability)
	PromptKey string
	PromptCID string

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
}

// FromGenerateResult creates a Call from a GenerateResult. err is the error
// the call returned, if any; it wins over the result's own message.
// Returns nil if both result and err are nil.
func FromGenerateResult(result *providers.GenerateResult, err error, opts RecordOptions) *Call {
	if result == nil && err == nil {
		return nil
	}

	call := &Call{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Filename:    opts.Filename,
		Attempt:     opts.Attempt,
		PromptKey:   opts.PromptKey,
		PromptCID:   opts.PromptCID,
		Temperature: opts.Temperature,
	}

	if result != nil {
		call.RequestID = result.RequestID
		call.LatencyMs = int(result.ExecutionTime.Milliseconds())
		call.Provider = result.Provider
		call.Model = result.ModelUsed
		call.InputTokens = result.PromptTokens
		call.OutputTokens = result.CompletionTokens
		call.Response = result.Content
		call.Success = result.Success
		if !result.Success {
			call.Error = result.ErrorMessage
		}
	}

	if err != nil {
		call.Success = false
		call.Error = err.Error()
	}

	return call
}
