package endpoints

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitc/internal/api"
	"github.com/jackzampolin/mitc/internal/llmcall"
	"github.com/jackzampolin/mitc/internal/svcctx"
)

// LLMCallsResponse contains a list of LLM calls.
type LLMCallsResponse struct {
	Calls       []llmcall.Call `json:"calls"`
	Total       int            `json:"total"`
	Stats       *llmcall.Stats `json:"stats"`
	ByPromptKey map[string]int `json:"by_prompt_key"`
}

// LLMCallResponse contains a single LLM call.
type LLMCallResponse struct {
	Call  *llmcall.Call `json:"call,omitempty"`
	Error string        `json:"error,omitempty"`
}

// ListLLMCallsEndpoint handles GET /llmcalls.
type ListLLMCallsEndpoint struct{}

func (e *ListLLMCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/llmcalls", e.handler
}

func (e *ListLLMCallsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	List LLM calls
//	@Description	Recent model calls held in memory, newest first. Filters: filename, prompt_key, provider, model, success, limit, offset, after, before (RFC3339).
//	@Tags		llmcalls
//	@Produce	json
//	@Success	200	{object}	LLMCallsResponse
//	@Failure	400	{object}	ErrorResponse
//	@Router		/llmcalls [get]
func (e *ListLLMCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.RecorderFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "LLM call recorder not available")
		return
	}

	filter, err := llmcall.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	calls := recorder.List(filter)
	writeJSON(w, http.StatusOK, LLMCallsResponse{
		Calls:       calls,
		Total:       len(calls),
		Stats:       llmcall.Summarize(calls),
		ByPromptKey: recorder.CountByPromptKey(),
	})
}

func (e *ListLLMCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var filter llmcall.QueryFilter
	var successOnly, failedOnly bool

	cmd := &cobra.Command{
		Use:   "llmcalls",
		Short: "List recent LLM calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			if successOnly && failedOnly {
				return fmt.Errorf("--success and --failed are mutually exclusive")
			}
			if successOnly || failedOnly {
				filter.Success = &successOnly
			}

			var resp LLMCallsResponse
			path := "/llmcalls?" + filter.Values().Encode()
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.Filename, "filename", "", "Filter by uploaded filename")
	f.StringVar(&filter.PromptKey, "prompt-key", "", "Filter by prompt key")
	f.StringVar(&filter.Provider, "provider", "", "Filter by provider")
	f.StringVar(&filter.Model, "model", "", "Filter by model")
	f.BoolVar(&successOnly, "success", false, "Only show successful calls")
	f.BoolVar(&failedOnly, "failed", false, "Only show failed calls")
	f.IntVar(&filter.Limit, "limit", llmcall.DefaultLimit, "Max results")
	f.IntVar(&filter.Offset, "offset", 0, "Result offset")
	cmd.AddCommand((&GetLLMCallEndpoint{}).command(getServerURL))
	return cmd
}

// GetLLMCallEndpoint handles GET /llmcalls/{id}.
type GetLLMCallEndpoint struct{}

func (e *GetLLMCallEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/llmcalls/{id}", e.handler
}

func (e *GetLLMCallEndpoint) RequiresInit() bool { return false }

func (e *GetLLMCallEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	recorder := svcctx.RecorderFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "LLM call recorder not available")
		return
	}

	call := recorder.Get(id)
	if call == nil {
		writeError(w, http.StatusNotFound, "LLM call not found")
		return
	}

	writeJSON(w, http.StatusOK, LLMCallResponse{Call: call})
}

// Command returns nil; the CLI form lives under "llmcalls get".
func (e *GetLLMCallEndpoint) Command(getServerURL func() string) *cobra.Command { return nil }

func (e *GetLLMCallEndpoint) command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get an LLM call by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp LLMCallResponse
			if err := client.Get(cmd.Context(), "/llmcalls/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp.Call)
		},
	}
}
