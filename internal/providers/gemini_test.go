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
)

func newGeminiTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	return client
}

func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			},
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     120,
			"candidatesTokenCount": 30,
		},
		"modelVersion": "gemini-2.5-pro-001",
	}
}

func TestGeminiClient_Generate(t *testing.T) {
	var body string
	client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiReply(`{"missing": false, "content": "0.5% of loan"}`))
	})

	res, err := client.Generate(context.Background(), &GenerateRequest{
		Instruction: "extract the fees",
		Documents:   []Document{{Data: []byte("%PDF-1.4"), MIMEType: "application/pdf", Filename: "a.pdf"}},
		Schema:      testFieldSchema,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !res.Success {
		t.Error("expected success")
	}
	if res.Provider != GeminiName {
		t.Errorf("Provider = %q", res.Provider)
	}
	if res.ModelUsed != "gemini-2.5-pro-001" {
		t.Errorf("ModelUsed = %q", res.ModelUsed)
	}
	if res.PromptTokens != 120 || res.CompletionTokens != 30 {
		t.Errorf("tokens = %d/%d", res.PromptTokens, res.CompletionTokens)
	}
	if string(res.ParsedJSON) != `{"content":"0.5% of loan","missing":false}` {
		t.Errorf("ParsedJSON = %s", res.ParsedJSON)
	}
	if !strings.Contains(body, "application/pdf") {
		t.Error("request should carry the PDF as an inline part")
	}
	if !strings.Contains(body, "extract the fees") {
		t.Error("request should carry the instruction")
	}
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		reply     any
		wantRate  bool
		wantShape bool
		wantCode  int
	}{
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			reply:    map[string]any{"error": map[string]any{"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}},
			wantRate: true,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			reply:    map[string]any{"error": map[string]any{"code": 500, "message": "internal", "status": "INTERNAL"}},
			wantCode: 500,
		},
		{
			name:      "prose instead of json",
			status:    http.StatusOK,
			reply:     geminiReply("Sorry, I cannot read this document."),
			wantShape: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.reply)
			})

			res, err := client.Generate(context.Background(), &GenerateRequest{
				Instruction: "extract",
				Schema:      testFieldSchema,
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if res == nil || res.Success {
				t.Error("expected a failed result alongside the error")
			}

			_, isRate := IsRateLimitError(err)
			if isRate != tt.wantRate {
				t.Errorf("rate limit = %v, want %v (%v)", isRate, tt.wantRate, err)
			}
			if IsShapeError(err) != tt.wantShape {
				t.Errorf("shape error = %v, want %v (%v)", IsShapeError(err), tt.wantShape, err)
			}
			if tt.wantCode != 0 {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.wantCode {
					t.Errorf("expected APIError %d, got %v", tt.wantCode, err)
				}
			}
		})
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), GeminiConfig{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestGeminiClient_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live test in short mode")
	}
	cfg := LoadTestConfig()
	if !cfg.HasGemini() {
		t.Skip("GEMINI_API_KEY not set")
	}

	client := cfg.NewGeminiClient(context.Background())
	res, err := client.Generate(context.Background(), &GenerateRequest{
		Instruction: `Reply with {"missing": true}`,
		Schema:      testFieldSchema,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	t.Logf("model=%s tokens=%d/%d parsed=%s", res.ModelUsed, res.PromptTokens, res.CompletionTokens, res.ParsedJSON)
}
