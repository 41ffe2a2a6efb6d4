package mitc

import "fmt"

// ProcessStatus is the outcome of processing one uploaded file.
type ProcessStatus string

const (
	StatusSuccess ProcessStatus = "success"
	StatusFailed  ProcessStatus = "failed"
)

// PDFProcessResult is the per-file outcome of a batch.
type PDFProcessResult struct {
	Filename     string        `json:"filename"`
	Status       ProcessStatus `json:"status"`
	BankInfo     *BankInfo     `json:"bank_info,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
}

// Succeeded builds a success result.
func Succeeded(filename string, info *BankInfo) PDFProcessResult {
	return PDFProcessResult{
		Filename: filename,
		Status:   StatusSuccess,
		BankInfo: info,
	}
}

// Failed builds a failure result.
func Failed(filename, message string) PDFProcessResult {
	return PDFProcessResult{
		Filename:     filename,
		Status:       StatusFailed,
		ErrorMessage: &message,
	}
}

// Validate checks that status agrees with which of bank_info and
// error_message is set.
func (r PDFProcessResult) Validate() error {
	switch r.Status {
	case StatusSuccess:
		if r.BankInfo == nil || r.ErrorMessage != nil {
			return fmt.Errorf("%w: success result for %s must carry only bank_info", ErrInvalid, r.Filename)
		}
	case StatusFailed:
		if r.BankInfo != nil || r.ErrorMessage == nil {
			return fmt.Errorf("%w: failed result for %s must carry only error_message", ErrInvalid, r.Filename)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, r.Status)
	}
	return nil
}

// ProcessPDFsResponse summarizes a batch.
type ProcessPDFsResponse struct {
	Results        []PDFProcessResult `json:"results"`
	TotalProcessed int                `json:"total_processed"`
	Successful     int                `json:"successful"`
	Failed         int                `json:"failed"`
}

// NewProcessPDFsResponse derives the counts from results.
func NewProcessPDFsResponse(results []PDFProcessResult) ProcessPDFsResponse {
	if results == nil {
		results = []PDFProcessResult{}
	}
	resp := ProcessPDFsResponse{
		Results:        results,
		TotalProcessed: len(results),
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			resp.Successful++
		}
	}
	resp.Failed = resp.TotalProcessed - resp.Successful
	return resp
}

// BankInfos returns the successful extractions in order.
func (r ProcessPDFsResponse) BankInfos() []BankInfo {
	var out []BankInfo
	for _, res := range r.Results {
		if res.Status == StatusSuccess && res.BankInfo != nil {
			out = append(out, *res.BankInfo)
		}
	}
	return out
}
