package extraction

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/mitc"
	"github.com/jackzampolin/mitc/internal/prompts"
	"github.com/jackzampolin/mitc/internal/providers"
)

func TestInstruction_ListsEveryField(t *testing.T) {
	text, err := Instruction(Fields(fields.Default()))
	if err != nil {
		t.Fatalf("Instruction() error = %v", err)
	}
	for _, key := range mitc.FieldKeys {
		if !strings.Contains(text, "- "+key+" (") {
			t.Errorf("instruction does not list %s", key)
		}
	}
	if !strings.Contains(text, `{"missing": true}`) {
		t.Error("instruction should state the missing shape")
	}
}

func TestFields_UsesCatalogText(t *testing.T) {
	custom := fields.New([]fields.Field{
		{Key: mitc.FieldTenure, DisplayName: "Loan Term", Description: "Maximum repayment period"},
	})
	got := Fields(custom)
	if len(got) != len(mitc.FieldKeys) {
		t.Fatalf("Fields() = %d entries, want %d", len(got), len(mitc.FieldKeys))
	}
	for _, f := range got {
		switch f.Key {
		case mitc.FieldTenure:
			if f.DisplayName != "Loan Term" {
				t.Errorf("tenure display = %q", f.DisplayName)
			}
		default:
			if f.DisplayName == "" || f.Description == "" {
				t.Errorf("%s should fall back to the built-in text", f.Key)
			}
		}
	}
}

func TestSchema_AcceptsBankInfo(t *testing.T) {
	raw, err := json.Marshal(Schema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	schema := &providers.Schema{Name: SchemaName, Definition: raw}

	page := 2
	info := mitc.BankInfo{
		BankName:            "Example Bank",
		IsValidHomeLoanMITC: true,
		FeesAndCharges:      mitc.Found("0.5% processing fee", mitc.Evidence{PageNumber: &page, LineSnippet: "Processing fee: 0.5%"}),
		Prepayment:          mitc.Absent(),
		LTVBands:            mitc.Absent(),
		Eligibility:         mitc.Absent(),
		Tenure:              mitc.Found("Up to 30 years"),
		InterestReset:       mitc.Absent(),
		DocumentsRequired:   mitc.Absent(),
	}
	doc, _ := json.Marshal(info)
	if _, err := providers.DecodeStructured(string(doc), schema); err != nil {
		t.Errorf("valid BankInfo rejected: %v\n%s", err, doc)
	}

	if _, err := providers.DecodeStructured(`{"bank_name": "X"}`, schema); !providers.IsShapeError(err) {
		t.Errorf("incomplete record should be a shape error, got %v", err)
	}
}

func TestRegisterPrompts(t *testing.T) {
	r := prompts.NewResolver(nil)
	RegisterPrompts(r)
	p, err := r.Resolve(InstructionKey)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.CID != prompts.HashText(instructionTmpl) {
		t.Error("CID should be the template hash")
	}
}
