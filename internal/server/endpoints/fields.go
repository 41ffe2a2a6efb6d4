package endpoints

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitc/internal/api"
	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/svcctx"
)

// FieldsResponse lists the active field catalog.
type FieldsResponse struct {
	Fields []fields.Field `json:"fields"`
}

// ListFieldsEndpoint handles GET /fields.
type ListFieldsEndpoint struct{}

func (e *ListFieldsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/fields", e.handler
}

func (e *ListFieldsEndpoint) RequiresInit() bool { return false }

func (e *ListFieldsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	catalog := svcctx.FieldsFrom(r.Context()).Catalog()
	writeJSON(w, http.StatusOK, FieldsResponse{Fields: catalog.Fields()})
}

func (e *ListFieldsEndpoint) Command(getServerURL func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the tracked fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp FieldsResponse
			if err := client.Get(cmd.Context(), "/fields", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.AddCommand((&MatchFieldEndpoint{}).command(getServerURL))
	return cmd
}

// MatchFieldEndpoint handles GET /fields/match.
type MatchFieldEndpoint struct{}

func (e *MatchFieldEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/fields/match", e.handler
}

func (e *MatchFieldEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Match a heading to a field
//	@Description	Fuzzy-match free text such as "Pre-closure charges" to a tracked field
//	@Tags			fields
//	@Produce		json
//	@Param			q	query		string	true	"Heading or term"
//	@Success		200	{object}	fields.Field
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/fields/match [get]
func (e *MatchFieldEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}

	field, ok := svcctx.FieldsFrom(r.Context()).Catalog().Match(q)
	if !ok {
		writeError(w, http.StatusNotFound, "no field matches "+q)
		return
	}
	writeJSON(w, http.StatusOK, field)
}

// Command returns nil; the CLI form lives under "fields match".
func (e *MatchFieldEndpoint) Command(getServerURL func() string) *cobra.Command { return nil }

func (e *MatchFieldEndpoint) command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "match <term>",
		Short: "Find the field a heading refers to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp fields.Field
			path := "/fields/match?q=" + url.QueryEscape(strings.Join(args, " "))
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
