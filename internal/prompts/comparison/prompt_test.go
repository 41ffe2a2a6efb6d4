package comparison

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/mitc"
	"github.com/jackzampolin/mitc/internal/providers"
	"github.com/jackzampolin/mitc/internal/prompts/extraction"
)

func TestInstruction(t *testing.T) {
	text, err := Instruction(Input{
		BankNames: []string{"Alpha Bank", "Beta Bank"},
		Payload:   `[{"bank_id":"a.pdf"}]`,
		Fields:    extraction.Fields(fields.Default()),
	})
	if err != nil {
		t.Fatalf("Instruction() error = %v", err)
	}

	for _, want := range []string{
		"2 banks: Alpha Bank, Beta Bank",
		`[{"bank_id":"a.pdf"}]`,
		"- prepayment (Prepayment)",
		"MISSING",
		"SUSPECT applies even when",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("instruction missing %q", want)
		}
	}
	if strings.Index(text, "1. MISSING") > strings.Index(text, "2. SUSPECT") {
		t.Error("MISSING should be checked before SUSPECT")
	}
}

func TestSchema_AcceptsResponse(t *testing.T) {
	raw, err := json.Marshal(Schema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	schema := &providers.Schema{Name: SchemaName, Definition: raw}

	id, name := "a.pdf", "Alpha Bank"
	resp := mitc.BankComparisonResponse{
		Rows: []mitc.ComparisonRow{{
			FieldName: mitc.FieldPrepayment,
			BankResults: []mitc.BankComparisonCell{
				{BankID: &id, BankName: &name, Status: mitc.CellMissing, Explanation: "not covered"},
			},
		}},
		Summary: []mitc.SummaryCount{{Status: mitc.CellMissing, Count: 1}},
	}
	doc, _ := json.Marshal(resp)
	if _, err := providers.DecodeStructured(string(doc), schema); err != nil {
		t.Errorf("valid response rejected: %v\n%s", err, doc)
	}

	bad := `{"rows":[{"field_name":"tenure","bank_results":[{"status":"MAYBE","explanation":"?"}]}],"summary":[]}`
	if _, err := providers.DecodeStructured(bad, schema); !providers.IsShapeError(err) {
		t.Errorf("unknown status should be a shape error, got %v", err)
	}
}
