package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(nil)

	m.RecordAttempt("gemini", OutcomeShape)
	m.RecordAttempt("gemini", OutcomeShape)
	m.RecordAttempt("gemini", OutcomeSuccess)
	m.RecordExtraction("success")
	m.RecordComparison("failed")
	m.ObserveRequest("gemini", OpExtract, 2*time.Second)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"shape attempts", testutil.ToFloat64(m.ExtractionAttempts.WithLabelValues("gemini", OutcomeShape)), 2},
		{"success attempts", testutil.ToFloat64(m.ExtractionAttempts.WithLabelValues("gemini", OutcomeSuccess)), 1},
		{"extractions", testutil.ToFloat64(m.Extractions.WithLabelValues("success")), 1},
		{"comparisons", testutil.ToFloat64(m.Comparisons.WithLabelValues("failed")), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(m.RequestDuration); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New(nil)
	m.RecordExtraction("failed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `mitc_extractions_total{status="failed"} 1`) {
		t.Errorf("exposition missing counter:\n%s", body)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordAttempt("gemini", OutcomeError)
	m.RecordExtraction("failed")
	m.RecordComparison("success")
	m.ObserveRequest("gemini", OpCompare, time.Second)
}
