package endpoints

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/mitc/internal/export"
	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/svcctx"
)

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
	status int
}

func (b *brokenWriter) Header() http.Header { return b.header }
func (b *brokenWriter) WriteHeader(status int) { b.status = status }
func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

const exportBody = `{"rows":[{"field_name":"prepayment","bank_results":[
	{"bank_name":"Alpha","status":"SAME","explanation":"nil"},
	{"bank_name":"Beta","status":"DIFF","explanation":"2%"}]}]}`

func TestExportComparison(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		broken     bool
		wantStatus int
		wantLog    string
	}{
		{name: "workbook", body: exportBody, wantStatus: http.StatusOK},
		{name: "client gone", body: exportBody, broken: true, wantStatus: http.StatusOK, wantLog: "failed to write workbook"},
		{name: "no rows", body: `{"rows":[]}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			ctx := svcctx.WithServices(context.Background(), &svcctx.Services{
				Fields: fields.NewStaticStore(fields.Default()),
				Logger: slog.New(slog.NewTextHandler(&logs, nil)),
			})
			req := httptest.NewRequest("POST", "/compare-banks/export", strings.NewReader(tt.body)).WithContext(ctx)

			_, _, handler := (&ExportComparisonEndpoint{}).Route()

			var status int
			if tt.broken {
				w := &brokenWriter{header: http.Header{}}
				handler(w, req)
				status = w.status
			} else {
				rec := httptest.NewRecorder()
				handler(rec, req)
				status = rec.Code
				if status == http.StatusOK {
					if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
						t.Errorf("Content-Type = %q", ct)
					}
					if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
						t.Error("body is not a zip container")
					}
				}
			}

			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantLog != "" && !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("log = %q, want it to contain %q", logs.String(), tt.wantLog)
			}
			if tt.wantLog == "" && logs.Len() != 0 {
				t.Errorf("unexpected log output: %q", logs.String())
			}
		})
	}
}
