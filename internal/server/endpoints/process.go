package endpoints

import (
	"errors"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitc/internal/api"
	"github.com/jackzampolin/mitc/internal/batch"
	"github.com/jackzampolin/mitc/internal/mitc"
	"github.com/jackzampolin/mitc/internal/svcctx"
)

// maxUploadMemory is how much of a multipart upload is buffered in memory;
// the rest spills to temporary files.
const maxUploadMemory = 32 << 20

// ProcessPDFsEndpoint handles POST /process-pdfs.
type ProcessPDFsEndpoint struct{}

func (e *ProcessPDFsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/process-pdfs", e.handler
}

func (e *ProcessPDFsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract bank terms from MITC PDFs
//	@Description	Upload one or more PDFs under the repeated form field "files"
//	@Tags			extraction
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files	formData	file	true	"MITC PDF documents"
//	@Success		200		{object}	mitc.ProcessPDFsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/process-pdfs [post]
func (e *ProcessPDFsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	coordinator := svcctx.CoordinatorFrom(r.Context())
	if coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "extraction not available")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var files []batch.File
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			files = append(files, batch.File{
				Name: fh.Filename,
				Open: func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
	}

	resp, err := coordinator.Process(r.Context(), files)
	if errors.Is(err, batch.ErrNoFiles) {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ProcessPDFsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file.pdf>...",
		Short: "Extract bank terms from MITC PDFs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp mitc.ProcessPDFsResponse
			if err := client.PostMultipart(cmd.Context(), "/process-pdfs", "files", args, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
