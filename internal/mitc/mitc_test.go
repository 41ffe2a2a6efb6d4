package mitc

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestFieldWithEvidence_Validate(t *testing.T) {
	content := "0.5% of loan amount"
	page := 2

	tests := []struct {
		name    string
		field   FieldWithEvidence
		wantErr bool
	}{
		{"found", Found(content, Evidence{PageNumber: &page, LineSnippet: "Processing fee"}), false},
		{"found without evidence", Found(content), false},
		{"absent", Absent(), false},
		{"missing with content", FieldWithEvidence{Missing: true, Content: &content}, true},
		{"missing with evidence", FieldWithEvidence{Missing: true, Evidence: []Evidence{{LineSnippet: "x"}}}, true},
		{"missing with empty evidence", FieldWithEvidence{Missing: true, Evidence: []Evidence{}}, false},
		{"present without content", FieldWithEvidence{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestFieldWithEvidence_MissingOmitsContentOnWire(t *testing.T) {
	data, err := json.Marshal(Absent())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"missing":true}` {
		t.Errorf("got %s", data)
	}
}

func validBankInfo() *BankInfo {
	return &BankInfo{
		BankName:            "Example Bank",
		IsValidHomeLoanMITC: true,
		FeesAndCharges:      Found("0.5% processing fee"),
		Prepayment:          Absent(),
		LTVBands:            Found("Up to 90% for loans below 30L"),
		Eligibility:         Found("Salaried, age 21-60"),
		Tenure:              Found("Up to 30 years"),
		InterestReset:       Found("Quarterly"),
		DocumentsRequired:   Absent(),
	}
}

func TestBankInfo_Validate(t *testing.T) {
	info := validBankInfo()
	if err := info.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info.Tenure = FieldWithEvidence{Missing: true, Content: info.Tenure.Content}
	err := info.Validate()
	if err == nil {
		t.Fatal("expected error for inconsistent tenure")
	}
	if !strings.Contains(err.Error(), FieldTenure) {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestBankInfo_Field(t *testing.T) {
	info := validBankInfo()
	for _, key := range FieldKeys {
		if _, ok := info.Field(key); !ok {
			t.Errorf("Field(%q) not found", key)
		}
	}
	if _, ok := info.Field("interest_rate"); ok {
		t.Error("unknown key should not resolve")
	}

	f, _ := info.Field(FieldPrepayment)
	*f = Found("Nil for floating rate")
	if info.Prepayment.Missing {
		t.Error("Field should return a pointer into the struct")
	}
}

func TestBankInfo_Normalize(t *testing.T) {
	reason := "not a home loan document"
	info := validBankInfo()
	info.ValidationReason = &reason
	info.Normalize()
	if info.ValidationReason != nil {
		t.Error("valid MITC should not keep a validation reason")
	}

	info.IsValidHomeLoanMITC = false
	info.ValidationReason = &reason
	info.Normalize()
	if info.ValidationReason == nil {
		t.Error("invalid MITC should keep its validation reason")
	}

	info.Prepayment = FieldWithEvidence{Missing: true, Evidence: []Evidence{}}
	info.Normalize()
	if info.Prepayment.Evidence != nil {
		t.Error("missing field should drop an empty evidence list")
	}
}

func TestPDFProcessResult_Validate(t *testing.T) {
	msg := "boom"
	tests := []struct {
		name    string
		result  PDFProcessResult
		wantErr bool
	}{
		{"succeeded", Succeeded("a.pdf", validBankInfo()), false},
		{"failed", Failed("a.pdf", "File is not a PDF"), false},
		{"success without info", PDFProcessResult{Filename: "a.pdf", Status: StatusSuccess}, true},
		{"success with error", PDFProcessResult{Filename: "a.pdf", Status: StatusSuccess, BankInfo: validBankInfo(), ErrorMessage: &msg}, true},
		{"failed with info", PDFProcessResult{Filename: "a.pdf", Status: StatusFailed, BankInfo: validBankInfo(), ErrorMessage: &msg}, true},
		{"failed without error", PDFProcessResult{Filename: "a.pdf", Status: StatusFailed}, true},
		{"unknown status", PDFProcessResult{Filename: "a.pdf", Status: "pending"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.result.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewProcessPDFsResponse(t *testing.T) {
	t.Run("counts derive from results", func(t *testing.T) {
		resp := NewProcessPDFsResponse([]PDFProcessResult{
			Succeeded("a.pdf", validBankInfo()),
			Failed("notes.txt", "File is not a PDF"),
			Succeeded("b.pdf", validBankInfo()),
		})
		if resp.TotalProcessed != 3 || len(resp.Results) != 3 {
			t.Errorf("TotalProcessed = %d, len = %d", resp.TotalProcessed, len(resp.Results))
		}
		if resp.Successful != 2 || resp.Failed != 1 {
			t.Errorf("Successful = %d, Failed = %d", resp.Successful, resp.Failed)
		}
		if resp.Successful+resp.Failed != resp.TotalProcessed {
			t.Error("successful + failed != total")
		}
	})

	t.Run("nil results encode as empty list", func(t *testing.T) {
		data, err := json.Marshal(NewProcessPDFsResponse(nil))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"results":[]`) {
			t.Errorf("got %s", data)
		}
	})
}

func TestRequestFromResults(t *testing.T) {
	resp := NewProcessPDFsResponse([]PDFProcessResult{
		Succeeded("a.pdf", validBankInfo()),
		Failed("b.pdf", "Failed after 3 attempts: timeout"),
		Succeeded("c.pdf", validBankInfo()),
	})

	req := RequestFromResults(resp)
	if len(req.Banks) != 2 {
		t.Fatalf("expected 2 banks, got %d", len(req.Banks))
	}
	if req.Banks[0].BankID != "a.pdf" || req.Banks[1].BankID != "c.pdf" {
		t.Errorf("unexpected bank ids: %q, %q", req.Banks[0].BankID, req.Banks[1].BankID)
	}
	if got := len(resp.BankInfos()); got != 2 {
		t.Errorf("BankInfos() len = %d, want 2", got)
	}
}

func TestBankComparisonResponse_Tally(t *testing.T) {
	resp := BankComparisonResponse{
		Rows: []ComparisonRow{
			{FieldName: FieldPrepayment, BankResults: []BankComparisonCell{
				{Status: CellMissing}, {Status: CellDiff},
			}},
			{FieldName: FieldTenure, BankResults: []BankComparisonCell{
				{Status: CellSame}, {Status: CellSame},
			}},
		},
	}

	got := resp.Tally()
	want := map[CellStatus]int{CellSame: 2, CellDiff: 1, CellMissing: 1, CellSuspect: 0}
	if len(got) != len(CellStatuses) {
		t.Fatalf("expected %d entries, got %d", len(CellStatuses), len(got))
	}
	for _, sc := range got {
		if sc.Count != want[sc.Status] {
			t.Errorf("%s = %d, want %d", sc.Status, sc.Count, want[sc.Status])
		}
	}
}
