package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client talks to a running mitc server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// Batches of PDFs with retries take a while.
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Get decodes the JSON answer to GET path into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return decode(c.do(ctx, http.MethodGet, path, "", nil))(result)
}

// Post sends body as JSON and decodes the answer into result.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	r, err := jsonBody(body)
	if err != nil {
		return err
	}
	return decode(c.do(ctx, http.MethodPost, path, "application/json", r))(result)
}

// PostBytes sends body as JSON and returns the raw answer, for endpoints
// that reply with files.
func (c *Client) PostBytes(ctx context.Context, path string, body any) ([]byte, error) {
	r, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", r)
}

// PostMultipart uploads files under one repeated form field, in order, and
// decodes the JSON answer into result.
func (c *Client) PostMultipart(ctx context.Context, path, field string, files []string, result any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range files {
		if err := addFormFile(mw, field, name); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish form: %w", err)
	}
	return decode(c.do(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf))(result)
}

// do sends one request and returns the body of a non-error answer.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, data)
	}
	return data, nil
}

// decode adapts a do result to unmarshal into a caller's value; a nil
// result discards the body.
func decode(data []byte, err error) func(result any) error {
	return func(result any) error {
		if err != nil || result == nil {
			return err
		}
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
}

func jsonBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}
	return bytes.NewReader(data), nil
}

func addFormFile(mw *multipart.Writer, field, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile(field, filepath.Base(name))
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	return nil
}

// ErrorResponse matches the server's error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func statusError(code int, body []byte) error {
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("server error (%d): %s", code, errResp.Error)
	}
	return fmt.Errorf("server error (%d): %s", code, bytes.TrimSpace(body))
}
