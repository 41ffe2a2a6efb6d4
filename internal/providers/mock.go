package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailTimes    int   // Fail the first N requests (0 = never)
	FailAfter    int   // Fail after N requests (0 = never)
	FailWith     error // Error returned on scripted failures
	ResponseText string
	ResponseJSON json.RawMessage

	// Handler, when set, produces the raw model output for a request.
	// n is the 1-based request number.
	Handler func(ctx context.Context, req *GenerateRequest, n int) (string, error)

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []*GenerateRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Generate returns the scripted response.
func (c *MockClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	result := &GenerateResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
	}

	if err := c.scriptedFailure(int(count)); err != nil {
		return result.fail(start, err)
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return result.fail(start, ctx.Err())
		}
	}

	content := c.ResponseText
	if len(c.ResponseJSON) > 0 {
		content = string(c.ResponseJSON)
	}
	if c.Handler != nil {
		out, err := c.Handler(ctx, req, int(count))
		if err != nil {
			return result.fail(start, err)
		}
		content = out
	}

	result.Content = content
	result.PromptTokens = len(req.Instruction) / 4
	result.CompletionTokens = len(content) / 4
	result.Success = true
	result.ExecutionTime = time.Since(start)

	if err := finishStructured(result, req); err != nil {
		return result, err
	}
	return result, nil
}

func (c *MockClient) scriptedFailure(count int) error {
	failErr := c.FailWith
	switch {
	case c.ShouldFail:
		if failErr == nil {
			failErr = fmt.Errorf("mock client configured to fail")
		}
		return failErr
	case c.FailTimes > 0 && count <= c.FailTimes:
		if failErr == nil {
			failErr = fmt.Errorf("mock failure %d of %d", count, c.FailTimes)
		}
		return failErr
	case c.FailAfter > 0 && count > c.FailAfter:
		if failErr == nil {
			failErr = fmt.Errorf("mock client failed after %d requests", c.FailAfter)
		}
		return failErr
	}
	return nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Requests returns the requests received so far.
func (c *MockClient) Requests() []*GenerateRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*GenerateRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Reset clears the request history.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.requests = nil
	c.mu.Unlock()
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
