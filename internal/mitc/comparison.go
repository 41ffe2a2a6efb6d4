package mitc

// CellStatus classifies one bank's value for one field.
type CellStatus string

const (
	CellSame    CellStatus = "SAME"
	CellDiff    CellStatus = "DIFF"
	CellMissing CellStatus = "MISSING"
	CellSuspect CellStatus = "SUSPECT"
)

// CellStatuses lists every status in report order.
var CellStatuses = []CellStatus{CellSame, CellDiff, CellMissing, CellSuspect}

// BankComparisonData is one bank submitted for comparison.
type BankComparisonData struct {
	BankID   string   `json:"bank_id"`
	BankInfo BankInfo `json:"bank_info"`
}

// BankComparisonCell is the verdict for one bank and field.
type BankComparisonCell struct {
	BankID      *string    `json:"bank_id,omitempty"`
	BankName    *string    `json:"bank_name,omitempty"`
	Status      CellStatus `json:"status"`
	Explanation string     `json:"explanation"`
	Details     *string    `json:"details,omitempty"`
}

// ComparisonRow holds one field's verdicts across banks.
type ComparisonRow struct {
	FieldName   string               `json:"field_name"`
	BankResults []BankComparisonCell `json:"bank_results"`
}

// SummaryCount counts cells with a status.
type SummaryCount struct {
	Status CellStatus `json:"status"`
	Count  int        `json:"count"`
}

// BankComparisonRequest is the body of a comparison call.
type BankComparisonRequest struct {
	Banks []BankComparisonData `json:"banks"`
}

// BankComparisonResponse is the comparison table.
type BankComparisonResponse struct {
	Rows    []ComparisonRow `json:"rows"`
	Summary []SummaryCount  `json:"summary"`
}

// Tally recounts statuses from the rows. Statuses with no cells are
// reported with a zero count.
func (r *BankComparisonResponse) Tally() []SummaryCount {
	counts := make(map[CellStatus]int, len(CellStatuses))
	for _, row := range r.Rows {
		for _, cell := range row.BankResults {
			counts[cell.Status]++
		}
	}
	out := make([]SummaryCount, 0, len(CellStatuses))
	for _, s := range CellStatuses {
		out = append(out, SummaryCount{Status: s, Count: counts[s]})
	}
	return out
}

// RequestFromResults turns the successful results of a batch into a
// comparison request, using filenames as bank ids.
func RequestFromResults(resp ProcessPDFsResponse) BankComparisonRequest {
	var req BankComparisonRequest
	for _, r := range resp.Results {
		if r.Status != StatusSuccess || r.BankInfo == nil {
			continue
		}
		req.Banks = append(req.Banks, BankComparisonData{
			BankID:   r.Filename,
			BankInfo: *r.BankInfo,
		})
	}
	return req
}
