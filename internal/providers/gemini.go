package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	GeminiDefaultModel = "gemini-2.5-pro"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	RPS          float64
	HTTPClient   *http.Client
}

// GeminiClient implements LLMClient on the Gemini API. PDFs are sent inline
// and structured output uses the native JSON schema response mode.
type GeminiClient struct {
	client       *genai.Client
	apiKey       string
	baseURL      string
	defaultModel string
	rps          float64
	limiter      *RateLimiter
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = GeminiDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:       client,
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		rps:          cfg.RPS,
		limiter:      NewRateLimiter(cfg.RPS),
	}, nil
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// Model returns the default model.
func (c *GeminiClient) Model() string {
	return c.defaultModel
}

// RateLimiter returns the client's request pacer.
func (c *GeminiClient) RateLimiter() *RateLimiter {
	return c.limiter
}

// Generate sends one generateContent call.
func (c *GeminiClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &GenerateResult{
		RequestID: requestID,
		Provider:  GeminiName,
		ModelUsed: model,
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return result.fail(start, err)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	parts := make([]*genai.Part, 0, len(req.Documents)+1)
	for _, doc := range req.Documents {
		parts = append(parts, genai.NewPartFromBytes(doc.Data, doc.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Instruction))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.Schema != nil {
		schema, err := stripSchemaKeywords(req.Schema.Definition, "$schema", "additionalProperties")
		if err != nil {
			return result.fail(start, err)
		}
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = schema
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return result.fail(start, mapGeminiError(err))
	}

	if resp.ModelVersion != "" {
		result.ModelUsed = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	result.Content = resp.Text()
	if result.Content == "" {
		return result.fail(start, &APIError{Provider: GeminiName, Message: "empty response"})
	}
	result.Success = true
	result.ExecutionTime = time.Since(start)

	if err := finishStructured(result, req); err != nil {
		return result, err
	}
	return result, nil
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Status
		}
		return statusError(GeminiName, apiErr.Code, msg, 0)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &APIError{Provider: GeminiName, Message: err.Error()}
}

var _ LLMClient = (*GeminiClient)(nil)
