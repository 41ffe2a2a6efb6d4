// Package prompts provides prompt management for embedded instruction
// templates.
//
// Embedded .tmpl files in code are the source of truth. Each prompt is
// registered with a Resolver under a hierarchical key, and its SHA256 hash
// serves as the content ID recorded with every model call, linking the call
// to the exact prompt version used.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   `json:"key"`                   // Hierarchical key: extraction.instruction
	Text        string   `json:"text"`                  // The prompt text (Go template)
	Description string   `json:"description,omitempty"` // Human-readable description
	Variables   []string `json:"variables,omitempty"`   // Extracted template variables
	Hash        string   `json:"hash"`                  // SHA256 hash of the text for change detection
}

// ResolvedPrompt is a prompt ready for rendering.
type ResolvedPrompt struct {
	Key       string   `json:"key"`
	Text      string   `json:"text"`
	Variables []string `json:"variables,omitempty"`
	CID       string   `json:"cid"` // content ID of the template text
}
