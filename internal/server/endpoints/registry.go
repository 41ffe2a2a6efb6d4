package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/jackzampolin/mitc/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&RootEndpoint{},
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Extraction and comparison
		&ProcessPDFsEndpoint{},
		&CompareBanksEndpoint{},
		&ExportComparisonEndpoint{},

		// Field catalog
		&ListFieldsEndpoint{},
		&MatchFieldEndpoint{},

		// LLM call history
		&ListLLMCallsEndpoint{},
		&GetLLMCallEndpoint{},

		// Prompts
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},

		// Prometheus exposition
		&MetricsEndpoint{},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
