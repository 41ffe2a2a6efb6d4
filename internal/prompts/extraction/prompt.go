package extraction

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/mitc"
	"github.com/jackzampolin/mitc/internal/prompts"
)

//go:embed instruction.tmpl
var instructionTmpl string

var instructionTemplate = template.Must(template.New("instruction").Parse(instructionTmpl))

// InstructionKey is the prompt key for the extraction instruction.
const InstructionKey = "extraction.instruction"

// FieldPrompt is one tracked field as described to the model.
type FieldPrompt struct {
	Key         string
	DisplayName string
	Description string
}

// Fields describes every tracked BankInfo field using the catalog's text.
// Keys the catalog does not define use the built-in description.
func Fields(c *fields.Catalog) []FieldPrompt {
	defaults := fields.Default()
	out := make([]FieldPrompt, 0, len(mitc.FieldKeys))
	for _, key := range mitc.FieldKeys {
		f, ok := c.Get(key)
		if !ok {
			f, _ = defaults.Get(key)
		}
		out = append(out, FieldPrompt{Key: key, DisplayName: f.DisplayName, Description: f.Description})
	}
	return out
}

// Instruction renders the extraction instruction.
func Instruction(fs []FieldPrompt) (string, error) {
	var buf bytes.Buffer
	data := struct{ Fields []FieldPrompt }{Fields: fs}
	if err := instructionTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render extraction instruction: %w", err)
	}
	return buf.String(), nil
}

// RegisterPrompts registers the extraction prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         InstructionKey,
		Text:        instructionTmpl,
		Description: "Extraction instruction - reads one MITC PDF into a BankInfo record",
	})
}
