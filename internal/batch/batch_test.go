package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackzampolin/mitc/internal/mitc"
)

type stubExtractor struct {
	calls []string
	fail  map[string]bool
}

func (s *stubExtractor) Extract(_ context.Context, data []byte, filename string, _ int) mitc.PDFProcessResult {
	s.calls = append(s.calls, filename)
	if s.fail[filename] {
		return mitc.Failed(filename, "Failed after 3 attempts: boom")
	}
	return mitc.Succeeded(filename, &mitc.BankInfo{BankName: string(data)})
}

func fileOf(name, content string) File {
	return File{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcess_Empty(t *testing.T) {
	c := NewCoordinator(&stubExtractor{}, 3, quiet())
	if _, err := c.Process(context.Background(), nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("Process(nil) error = %v, want ErrNoFiles", err)
	}
}

func TestProcess_MixedBatch(t *testing.T) {
	opened := false
	stub := &stubExtractor{fail: map[string]bool{"bad.pdf": true}}
	c := NewCoordinator(stub, 3, quiet())

	files := []File{
		fileOf("alpha.pdf", "Alpha"),
		{Name: "notes.txt", Open: func() (io.ReadCloser, error) {
			opened = true
			return io.NopCloser(&bytes.Buffer{}), nil
		}},
		fileOf("BETA.PDF", "Beta"),
		{Name: "broken.pdf", Open: func() (io.ReadCloser, error) {
			return nil, errors.New("disk on fire")
		}},
		fileOf("bad.pdf", "Bad"),
	}

	resp, err := c.Process(context.Background(), files)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if resp.TotalProcessed != len(files) || resp.Successful+resp.Failed != resp.TotalProcessed {
		t.Errorf("counts = %+v", resp)
	}
	if resp.Successful != 2 || resp.Failed != 3 {
		t.Errorf("successful/failed = %d/%d, want 2/3", resp.Successful, resp.Failed)
	}

	for i, f := range files {
		if resp.Results[i].Filename != f.Name {
			t.Errorf("result %d = %s, want %s (input order)", i, resp.Results[i].Filename, f.Name)
		}
		if err := resp.Results[i].Validate(); err != nil {
			t.Errorf("result %d: %v", i, err)
		}
	}

	notPDF := resp.Results[1]
	if notPDF.Status != mitc.StatusFailed || *notPDF.ErrorMessage != "File is not a PDF" {
		t.Errorf("notes.txt result = %+v", notPDF)
	}
	if opened {
		t.Error("non-PDF file should never be opened")
	}

	if msg := *resp.Results[3].ErrorMessage; msg != "Error reading file: disk on fire" {
		t.Errorf("read failure message = %q", msg)
	}
	if resp.Results[2].BankInfo.BankName != "Beta" {
		t.Error("extractor should receive the file bytes")
	}

	want := []string{"alpha.pdf", "BETA.PDF", "bad.pdf"}
	if strings.Join(stub.calls, ",") != strings.Join(want, ",") {
		t.Errorf("extractor calls = %v, want %v", stub.calls, want)
	}
}

func TestIsPDFName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.pdf", true},
		{"A.PdF", true},
		{"a.pdf.txt", false},
		{"pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPDFName(tt.name); got != tt.want {
			t.Errorf("IsPDFName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
