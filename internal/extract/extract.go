// Package extract turns one MITC PDF into a BankInfo record by asking the
// configured LLM capability, retrying under its policy.
package extract

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
	"github.com/jackzampolin/mitc/internal/prompts/extraction"
	"github.com/jackzampolin/mitc/internal/providers"
)

// PDFMIMEType tags document bytes sent to the model.
const PDFMIMEType = "application/pdf"

// Config configures an Extractor.
type Config struct {
	// Capability is the model client plus the retry policy for each file.
	Capability providers.Capability

	// Fields supplies the catalog text used in the instruction.
	Fields *fields.Store

	Model       string
	Temperature *float64
	// Timeout bounds a single model call. Zero means no extra bound.
	Timeout time.Duration

	Metrics  *metrics.Metrics
	Recorder *llmcall.Recorder
	Logger   *slog.Logger
}

// Extractor runs extractions. It is safe for concurrent use.
type Extractor struct {
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

// New creates an Extractor.
func New(cfg Config) (*Extractor, error) {
	if cfg.Capability.Client == nil {
		return nil, errors.New("extract: capability client is required")
	}
	if cfg.Fields == nil {
		cfg.Fields = fields.NewStaticStore(fields.Default())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	raw, err := json.Marshal(extraction.Schema())
	if err != nil {
		return nil, fmt.Errorf("extract: encode schema: %w", err)
	}

	return &Extractor{
		capability:  cfg.Capability,
		fields:      cfg.Fields,
		schema:      &providers.Schema{Name: extraction.SchemaName, Definition: raw},
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		metrics:     cfg.Metrics,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger,
	}, nil
}

// Attempts returns how many calls Extract makes for maxRetries.
func (e *Extractor) Attempts(maxRetries int) int {
	if maxRetries <= 0 {
		maxRetries = e.capability.Policy.Attempts
	}
	if maxRetries < 1 {
		return 1
	}
	return maxRetries
}

// Extract reads one document. maxRetries is the total number of attempts;
// zero or less uses the capability's policy. Failures never escape as
// errors: they become a failed result.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string, maxRetries int) mitc.PDFProcessResult {
	start := time.Now()
	attempts := e.Attempts(maxRetries)
	provider := e.capability.Client.Name()

	logger := e.logger.With("filename", filename, "provider", provider)
	if pages, ok := pageCount(data); ok {
		logger = logger.With("pages", pages)
	}

	instruction, err := extraction.Instruction(extraction.Fields(e.fields.Catalog()))
	if err != nil {
		e.metrics.RecordExtraction(string(mitc.StatusFailed))
		logger.Error("extraction failed", "error", err)
		return mitc.Failed(filename, fmt.Sprintf("Failed to build instruction: %v", err))
	}
	cid := prompts.HashText(instruction)

	policy := e.capability.Policy.WithAttempts(attempts).WithLogger(logger)
	info, err := providers.Retry(ctx, policy, func(ctx context.Context, attempt int) (*mitc.BankInfo, error) {
		return e.attempt(ctx, data, filename, instruction, cid, attempt)
	}, "operation", metrics.OpExtract)

	elapsed := time.Since(start)
	if err != nil {
		made, cause := attempts, err
		var ex *providers.ExhaustedError
		if errors.As(err, &ex) {
			made, cause = ex.Attempts, ex.Err
		}
		msg := fmt.Sprintf("Failed after %d attempts: %v", made, cause)
		if made == 0 {
			msg = fmt.Sprintf("Extraction cancelled before the first attempt: %v", cause)
		}

		e.metrics.RecordExtraction(string(mitc.StatusFailed))
		logger.Error("extraction failed",
			"attempts", made,
			"max_attempts", attempts,
			"elapsed_ms", elapsed.Milliseconds(),
			"error", cause)
		return mitc.Failed(filename, msg)
	}

	info.Normalize()
	e.metrics.RecordExtraction(string(mitc.StatusSuccess))
	logger.Info("extraction succeeded",
		"bank_name", info.BankName,
		"valid_mitc", info.IsValidHomeLoanMITC,
		"elapsed_ms", elapsed.Milliseconds())
	return mitc.Succeeded(filename, info)
}

// attempt makes one model call and decodes the reply.
func (e *Extractor) attempt(ctx context.Context, data []byte, filename, instruction, cid string, attempt int) (*mitc.BankInfo, error) {
	provider := e.capability.Client.Name()
	req := &providers.GenerateRequest{
		Instruction: instruction,
		Documents:   []providers.Document{{Data: data, MIMEType: PDFMIMEType, Filename: filename}},
		Schema:      e.schema,
		Model:       e.model,
		Temperature: e.temperature,
		Timeout:     e.timeout,
		RequestID:   uuid.New().String(),
	}

	callStart := time.Now()
	result, err := e.capability.Client.Generate(ctx, req)
	e.metrics.ObserveRequest(provider, metrics.OpExtract, time.Since(callStart))

	var info *mitc.BankInfo
	if err == nil {
		info, err = decodeBankInfo(result)
	}

	e.recorder.Record(result, err, llmcall.RecordOptions{
		Filename:    filename,
		Attempt:     attempt + 1,
		PromptKey:   extraction.InstructionKey,
		PromptCID:   cid,
		Temperature: e.temperature,
	})
	e.metrics.RecordAttempt(provider, outcome(err))

	return info, err
}

func decodeBankInfo(result *providers.GenerateResult) (*mitc.BankInfo, error) {
	if result == nil || len(result.ParsedJSON) == 0 {
		return nil, errors.New("no structured output in response")
	}
	var info mitc.BankInfo
	if err := json.Unmarshal(result.ParsedJSON, &info); err != nil {
		return nil, &providers.ShapeError{Output: result.Content, Err: err}
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bank info: %w", err)
	}
	return &info, nil
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	if _, ok := providers.IsRateLimitError(err); ok {
		return metrics.OutcomeRateLimit
	}
	if providers.IsShapeError(err) {
		return metrics.OutcomeShape
	}
	if errors.Is(err, mitc.ErrInvalid) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}
