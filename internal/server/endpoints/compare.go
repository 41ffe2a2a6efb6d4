package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitc/internal/api"
	"github.com/jackzampolin/mitc/internal/compare"
	"github.com/jackzampolin/mitc/internal/export"
	"github.com/jackzampolin/mitc/internal/mitc"
	"github.com/jackzampolin/mitc/internal/svcctx"
)

// CompareBanksEndpoint handles POST /compare-banks.
type CompareBanksEndpoint struct{}

func (e *CompareBanksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/compare-banks", e.handler
}

func (e *CompareBanksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Compare extracted banks
//	@Description	Classify every field of every bank as SAME, DIFF, MISSING or SUSPECT
//	@Tags			comparison
//	@Accept			json
//	@Produce		json
//	@Param			request	body		mitc.BankComparisonRequest	true	"At least two banks"
//	@Success		200		{object}	mitc.BankComparisonResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/compare-banks [post]
func (e *CompareBanksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	comparer := svcctx.ComparerFrom(r.Context())
	if comparer == nil {
		writeError(w, http.StatusServiceUnavailable, "comparison not available")
		return
	}

	var req mitc.BankComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := comparer.Compare(r.Context(), req.Banks)
	if errors.Is(err, compare.ErrTooFewBanks) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *CompareBanksEndpoint) Command(getServerURL func() string) *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "compare <results.json>",
		Short: "Compare banks from a process-pdfs result or a comparison request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readComparisonRequest(args[0])
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var resp mitc.BankComparisonResponse
			if err := client.Post(cmd.Context(), "/compare-banks", req, &resp); err != nil {
				return err
			}

			if xlsxPath != "" {
				data, err := client.PostBytes(cmd.Context(), "/compare-banks/export", resp)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", xlsxPath, err)
				}
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the comparison as an XLSX workbook")
	return cmd
}

// readComparisonRequest accepts either a saved /process-pdfs response, whose
// successful results become banks, or a ready-made comparison request.
func readComparisonRequest(path string) (mitc.BankComparisonRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mitc.BankComparisonRequest{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc struct {
		mitc.BankComparisonRequest
		Results []mitc.PDFProcessResult `json:"results"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return mitc.BankComparisonRequest{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(doc.Results) > 0 {
		return mitc.RequestFromResults(mitc.ProcessPDFsResponse{Results: doc.Results}), nil
	}
	return doc.BankComparisonRequest, nil
}

// ExportComparisonEndpoint handles POST /compare-banks/export.
type ExportComparisonEndpoint struct{}

func (e *ExportComparisonEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/compare-banks/export", e.handler
}

func (e *ExportComparisonEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Export a comparison as XLSX
//	@Tags			comparison
//	@Accept			json
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			comparison	body	mitc.BankComparisonResponse	true	"Comparison table"
//	@Success		200
//	@Failure		400	{object}	ErrorResponse
//	@Router			/compare-banks/export [post]
func (e *ExportComparisonEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var resp mitc.BankComparisonResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(resp.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "comparison has no rows")
		return
	}

	var buf bytes.Buffer
	catalog := svcctx.FieldsFrom(r.Context()).Catalog()
	if err := export.WriteXLSX(&buf, &resp, nil, catalog); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bank_comparison.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("failed to write workbook", "error", err)
	}
}

// Command returns nil; exporting is the --xlsx flag of compare.
func (e *ExportComparisonEndpoint) Command(getServerURL func() string) *cobra.Command { return nil }
