package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
		check   func(t *testing.T, out string)
	}{
		{
			name:   "text",
			level:  "info",
			format: "text",
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "msg=hello") {
					t.Errorf("output = %q", out)
				}
			},
		},
		{
			name:   "json",
			level:  "debug",
			format: "JSON",
			check: func(t *testing.T, out string) {
				var rec map[string]any
				if err := json.Unmarshal([]byte(strings.Split(out, "\n")[0]), &rec); err != nil {
					t.Fatalf("not json: %q", out)
				}
				if rec["msg"] != "debug line" {
					t.Errorf("first record = %v, want the debug line", rec)
				}
			},
		},
		{
			name:   "level filters",
			level:  "warn",
			format: "text",
			check: func(t *testing.T, out string) {
				if out != "" {
					t.Errorf("expected no output below warn, got %q", out)
				}
			},
		},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			logger.Debug("debug line")
			logger.Info("hello")
			tt.check(t, buf.String())
		})
	}
}
