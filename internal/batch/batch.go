// Package batch runs extraction over an uploaded set of files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackzampolin/mitc/internal/mitc"
)

// ErrNoFiles is returned when a batch has no files.
var ErrNoFiles = errors.New("no files provided")

// NotPDFMessage is the failure message for a non-PDF filename.
const NotPDFMessage = "File is not a PDF"

// File is one uploaded file. Open is called at most once.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Extractor extracts one document.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string, maxRetries int) mitc.PDFProcessResult
}

// Coordinator processes batches sequentially, in input order.
type Coordinator struct {
	extractor  Extractor
	maxRetries int
	logger     *slog.Logger
}

// NewCoordinator creates a Coordinator. maxRetries is passed to every
// extraction; zero uses the extractor's default.
func NewCoordinator(extractor Extractor, maxRetries int, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{extractor: extractor, maxRetries: maxRetries, logger: logger}
}

// Process extracts every file. Per-file problems become failed results; the
// only error is ErrNoFiles.
func (c *Coordinator) Process(ctx context.Context, files []File) (mitc.ProcessPDFsResponse, error) {
	if len(files) == 0 {
		return mitc.ProcessPDFsResponse{}, ErrNoFiles
	}

	results := make([]mitc.PDFProcessResult, 0, len(files))
	for _, f := range files {
		results = append(results, c.processOne(ctx, f))
	}

	resp := mitc.NewProcessPDFsResponse(results)
	c.logger.Info("batch processed",
		"total", resp.TotalProcessed,
		"successful", resp.Successful,
		"failed", resp.Failed)
	return resp, nil
}

func (c *Coordinator) processOne(ctx context.Context, f File) mitc.PDFProcessResult {
	if !IsPDFName(f.Name) {
		c.logger.Warn("skipping non-PDF file", "filename", f.Name)
		return mitc.Failed(f.Name, NotPDFMessage)
	}

	data, err := readAll(f)
	if err != nil {
		c.logger.Error("failed to read upload", "filename", f.Name, "error", err)
		return mitc.Failed(f.Name, fmt.Sprintf("Error reading file: %v", err))
	}

	return c.extractor.Extract(ctx, data, f.Name, c.maxRetries)
}

func readAll(f File) ([]byte, error) {
	if f.Open == nil {
		return nil, errors.New("file has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// IsPDFName reports whether name ends in .pdf, ignoring case.
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
