package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackzampolin/mitc/internal/providers"
)

// ServerConfig is the listen address and logger for a server under test.
type ServerConfig struct {
	Host   string
	Port   string
	Logger *slog.Logger
}

// NewServerConfig picks a free loopback port.
func NewServerConfig(t *testing.T) ServerConfig {
	t.Helper()

	port, err := FindFreePort()
	if err != nil {
		t.Fatalf("no free port: %v", err)
	}
	return ServerConfig{Host: "127.0.0.1", Port: port, Logger: Logger()}
}

// URL is the server's base URL.
func (c ServerConfig) URL() string {
	return "http://" + net.JoinHostPort(c.Host, c.Port)
}

// Logger returns a logger that discards output unless MITC_TEST_LOG is set.
func Logger() *slog.Logger {
	if os.Getenv("MITC_TEST_LOG") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRegistry returns a registry whose default provider is a mock client
// answering with handler.
func MockRegistry(handler func(ctx context.Context, req *providers.GenerateRequest, n int) (string, error)) (*providers.Registry, *providers.MockClient) {
	client := providers.NewMockClient()
	client.Handler = handler

	registry := providers.NewRegistry()
	registry.SetLogger(Logger())
	registry.RegisterLLM("mock", client)
	registry.SetDefault("mock")
	return registry, client
}

// WaitForServer polls baseURL/health until it answers 200 or timeout passes.
func WaitForServer(baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(timeout)

	for {
		if resp, err := client.Get(baseURL + "/health"); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-tick.C:
		case <-deadline:
			return fmt.Errorf("%s/health not ready after %v", baseURL, timeout)
		}
	}
}

// WaitForShutdown returns the server's exit error, or an error when it has
// not exited within timeout.
func WaitForShutdown(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("server still running after %v", timeout)
	}
}

// FindFreePort returns a loopback port that was free a moment ago.
func FindFreePort() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}
