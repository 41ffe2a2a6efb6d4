package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func openAIReply(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4.1-2025-04-14",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 8, "total_tokens": 48},
	}
}

func newOpenAITestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIClient(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL + "/",
		HTTPClient: server.Client(),
	})
}

func TestOpenAIClient_Generate(t *testing.T) {
	var body string
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAIReply(`{"missing": true}`))
	})

	res, err := client.Generate(context.Background(), &GenerateRequest{
		Instruction: "extract the fees",
		Documents:   []Document{{Data: []byte("%PDF-1.4"), MIMEType: "application/pdf", Filename: "a.pdf"}},
		Schema:      testFieldSchema,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if res.ModelUsed != "gpt-4.1-2025-04-14" {
		t.Errorf("ModelUsed = %q", res.ModelUsed)
	}
	if res.PromptTokens != 40 || res.CompletionTokens != 8 {
		t.Errorf("tokens = %d/%d", res.PromptTokens, res.CompletionTokens)
	}
	if string(res.ParsedJSON) != `{"missing":true}` {
		t.Errorf("ParsedJSON = %s", res.ParsedJSON)
	}
	if !strings.Contains(body, "data:application/pdf;base64,") {
		t.Error("request should carry the PDF as a data URL")
	}
	if !strings.Contains(body, "json_schema") {
		t.Error("request should ask for json_schema output")
	}
}

func TestOpenAIClient_RateLimit(t *testing.T) {
	calls := 0
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`))
	})

	_, err := client.Generate(context.Background(), &GenerateRequest{Instruction: "hi"})
	rle, ok := IsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rle.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v", rle.RetryAfter)
	}
	if calls != 1 {
		t.Errorf("SDK retried: calls = %d, want 1", calls)
	}
}

func TestOpenAIClient_ServerError(t *testing.T) {
	client := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream"}}`))
	})

	_, err := client.Generate(context.Background(), &GenerateRequest{Instruction: "hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestDataURL(t *testing.T) {
	got := dataURL(Document{Data: []byte("hi")})
	if got != "data:application/octet-stream;base64,aGk=" {
		t.Errorf("dataURL() = %q", got)
	}
}
