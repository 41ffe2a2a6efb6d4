// Package mitc defines the extracted bank policy model and the request and
// response envelopes shared by extraction, batching and comparison.
package mitc

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure in this package.
var ErrInvalid = errors.New("invalid")

// Tracked field keys, in display order.
const (
	FieldFeesAndCharges    = "fees_and_charges"
	FieldPrepayment        = "prepayment"
	FieldLTVBands          = "ltv_bands"
	FieldEligibility       = "eligibility"
	FieldTenure            = "tenure"
	FieldInterestReset     = "interest_reset"
	FieldDocumentsRequired = "documents_required"
)

// FieldKeys lists every tracked field key in display order.
var FieldKeys = []string{
	FieldFeesAndCharges,
	FieldPrepayment,
	FieldLTVBands,
	FieldEligibility,
	FieldTenure,
	FieldInterestReset,
	FieldDocumentsRequired,
}

// Evidence points back into the source document.
type Evidence struct {
	PageNumber  *int   `json:"page_number,omitempty"`
	LineSnippet string `json:"line_snippet"`
}

// FieldWithEvidence is one extracted field. A missing field carries neither
// content nor evidence.
type FieldWithEvidence struct {
	Missing  bool       `json:"missing"`
	Content  *string    `json:"content,omitempty"`
	Evidence []Evidence `json:"evidence,omitempty"`
}

// Found returns a present field with the given content.
func Found(content string, evidence ...Evidence) FieldWithEvidence {
	return FieldWithEvidence{Content: &content, Evidence: evidence}
}

// Absent returns a missing field.
func Absent() FieldWithEvidence {
	return FieldWithEvidence{Missing: true}
}

// Validate checks the missing/content invariant.
func (f FieldWithEvidence) Validate() error {
	if f.Missing {
		if f.Content != nil {
			return fmt.Errorf("%w: missing field has content", ErrInvalid)
		}
		if len(f.Evidence) > 0 {
			return fmt.Errorf("%w: missing field has evidence", ErrInvalid)
		}
		return nil
	}
	if f.Content == nil {
		return fmt.Errorf("%w: present field has no content", ErrInvalid)
	}
	return nil
}

// BankInfo is the structured data extracted from one MITC document.
type BankInfo struct {
	BankName            string  `json:"bank_name"`
	IsValidHomeLoanMITC bool    `json:"is_valid_home_loan_mitc"`
	ValidationReason    *string `json:"validation_reason,omitempty"`

	EffectiveDate *string `json:"effective_date,omitempty"`
	UpdatedDate   *string `json:"updated_date,omitempty"`
	DateSource    *string `json:"date_source,omitempty"`

	FeesAndCharges    FieldWithEvidence `json:"fees_and_charges"`
	Prepayment        FieldWithEvidence `json:"prepayment"`
	LTVBands          FieldWithEvidence `json:"ltv_bands"`
	Eligibility       FieldWithEvidence `json:"eligibility"`
	Tenure            FieldWithEvidence `json:"tenure"`
	InterestReset     FieldWithEvidence `json:"interest_reset"`
	DocumentsRequired FieldWithEvidence `json:"documents_required"`
}

// Field returns a pointer to the tracked field with the given key.
func (b *BankInfo) Field(key string) (*FieldWithEvidence, bool) {
	switch key {
	case FieldFeesAndCharges:
		return &b.FeesAndCharges, true
	case FieldPrepayment:
		return &b.Prepayment, true
	case FieldLTVBands:
		return &b.LTVBands, true
	case FieldEligibility:
		return &b.Eligibility, true
	case FieldTenure:
		return &b.Tenure, true
	case FieldInterestReset:
		return &b.InterestReset, true
	case FieldDocumentsRequired:
		return &b.DocumentsRequired, true
	default:
		return nil, false
	}
}

// Validate checks every tracked field.
func (b *BankInfo) Validate() error {
	for _, key := range FieldKeys {
		f, _ := b.Field(key)
		if err := f.Validate(); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// Normalize drops a validation reason on a document that is a valid MITC,
// and the empty evidence lists models emit for missing fields.
func (b *BankInfo) Normalize() {
	if b.IsValidHomeLoanMITC {
		b.ValidationReason = nil
	}
	for _, key := range FieldKeys {
		f, _ := b.Field(key)
		if f.Missing {
			f.Evidence = nil
		}
	}
}
