// Package compare asks the model to line up already-extracted banks field
// by field.
package compare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/llmcall"
	"github.com/jackzampolin/mitc/internal/metrics"
	"github.com/jackzampolin/mitc/internal/mitc"
	"github.com/jackzampolin/mitc/internal/prompts"
	"github.com/jackzampolin/mitc/internal/prompts/comparison"
	"github.com/jackzampolin/mitc/internal/prompts/extraction"
	"github.com/jackzampolin/mitc/internal/providers"
)

// ErrTooFewBanks is returned when fewer than two banks are given.
var ErrTooFewBanks = errors.New("at least 2 banks are required for comparison")

// FieldPayload is a field reduced to what the comparison needs.
type FieldPayload struct {
	Missing bool    `json:"missing"`
	Content *string `json:"content"`
}

// BankPayload is one bank as sent to the model.
type BankPayload struct {
	BankID   string                  `json:"bank_id"`
	BankName string                  `json:"bank_name"`
	Fields   map[string]FieldPayload `json:"fields"`
}

// Project drops evidence and document metadata, keeping the bank name and
// the missing/content pair of every tracked field.
func Project(banks []mitc.BankComparisonData) []BankPayload {
	out := make([]BankPayload, 0, len(banks))
	for _, b := range banks {
		p := BankPayload{
			BankID:   b.BankID,
			BankName: b.BankInfo.BankName,
			Fields:   make(map[string]FieldPayload, len(mitc.FieldKeys)),
		}
		for _, key := range mitc.FieldKeys {
			f, _ := b.BankInfo.Field(key)
			p.Fields[key] = FieldPayload{Missing: f.Missing, Content: f.Content}
		}
		out = append(out, p)
	}
	return out
}

// Config configures a Comparer.
type Config struct {
	// Capability is the model client plus its retry policy. Comparisons
	// default to a single attempt.
	Capability providers.Capability

	Fields *fields.Store

	Model       string
	Temperature *float64
	Timeout     time.Duration

	Metrics  *metrics.Metrics
	Recorder *llmcall.Recorder
	Logger   *slog.Logger
}

// Comparer runs comparisons. It is safe for concurrent use.
type Comparer struct {
	capability  providers.Capability
	fields      *fields.Store
	schema      *providers.Schema
	model       string
	temperature *float64
	timeout     time.Duration
	metrics     *metrics.Metrics
	recorder    *llmcall.Recorder
	logger      *slog.Logger
}

// New creates a Comparer.
func New(cfg Config) (*Comparer, error) {
	if cfg.Capability.Client == nil {
		return nil, errors.New("compare: capability client is required")
	}
	if cfg.Fields == nil {
		cfg.Fields = fields.NewStaticStore(fields.Default())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	raw, err := json.Marshal(comparison.Schema())
	if err != nil {
		return nil, fmt.Errorf("compare: encode schema: %w", err)
	}

	return &Comparer{
		capability:  cfg.Capability,
		fields:      cfg.Fields,
		schema:      &providers.Schema{Name: comparison.SchemaName, Definition: raw},
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		metrics:     cfg.Metrics,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger,
	}, nil
}

// Compare returns the model's comparison table verbatim. Fewer than two banks
// is ErrTooFewBanks, checked before any model call; every other failure is
// wrapped as "comparison failed".
func (c *Comparer) Compare(ctx context.Context, banks []mitc.BankComparisonData) (*mitc.BankComparisonResponse, error) {
	if len(banks) < 2 {
		return nil, ErrTooFewBanks
	}

	start := time.Now()
	logger := c.logger.With("banks", len(banks), "provider", c.capability.Client.Name())

	resp, err := c.compare(ctx, banks, logger)
	if err != nil {
		var ex *providers.ExhaustedError
		if errors.As(err, &ex) {
			err = ex.Err
		}
		c.metrics.RecordComparison("failed")
		logger.Error("comparison failed", "elapsed_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, fmt.Errorf("comparison failed: %w", err)
	}

	c.metrics.RecordComparison("success")
	logger.Info("comparison succeeded",
		"rows", len(resp.Rows),
		"elapsed_ms", time.Since(start).Milliseconds())
	return resp, nil
}

func (c *Comparer) compare(ctx context.Context, banks []mitc.BankComparisonData, logger *slog.Logger) (*mitc.BankComparisonResponse, error) {
	payload, err := json.MarshalIndent(Project(banks), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	names := make([]string, 0, len(banks))
	for _, b := range banks {
		name := b.BankInfo.BankName
		if name == "" {
			name = b.BankID
		}
		names = append(names, name)
	}

	instruction, err := comparison.Instruction(comparison.Input{
		BankNames: names,
		Payload:   string(payload),
		Fields:    extraction.Fields(c.fields.Catalog()),
	})
	if err != nil {
		return nil, err
	}
	cid := prompts.HashText(instruction)

	policy := c.capability.Policy.WithLogger(logger)
	return providers.Retry(ctx, policy, func(ctx context.Context, attempt int) (*mitc.BankComparisonResponse, error) {
		return c.attempt(ctx, instruction, cid, attempt)
	}, "operation", metrics.OpCompare)
}

func (c *Comparer) attempt(ctx context.Context, instruction, cid string, attempt int) (*mitc.BankComparisonResponse, error) {
	provider := c.capability.Client.Name()
	req := &providers.GenerateRequest{
		Instruction: instruction,
		Schema:      c.schema,
		Model:       c.model,
		Temperature: c.temperature,
		Timeout:     c.timeout,
		RequestID:   uuid.New().String(),
	}

	callStart := time.Now()
	result, err := c.capability.Client.Generate(ctx, req)
	c.metrics.ObserveRequest(provider, metrics.OpCompare, time.Since(callStart))

	var resp *mitc.BankComparisonResponse
	if err == nil {
		resp, err = decodeResponse(result)
	}

	c.recorder.Record(result, err, llmcall.RecordOptions{
		Attempt:     attempt + 1,
		PromptKey:   comparison.InstructionKey,
		PromptCID:   cid,
		Temperature: c.temperature,
	})
	return resp, err
}

func decodeResponse(result *providers.GenerateResult) (*mitc.BankComparisonResponse, error) {
	if result == nil || len(result.ParsedJSON) == 0 {
		return nil, errors.New("no structured output in response")
	}
	var resp mitc.BankComparisonResponse
	if err := json.Unmarshal(result.ParsedJSON, &resp); err != nil {
		return nil, &providers.ShapeError{Output: result.Content, Err: err}
	}
	return &resp, nil
}
