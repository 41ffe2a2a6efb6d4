package comparison

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/jackzampolin/mitc/internal/prompts"
	"github.com/jackzampolin/mitc/internal/prompts/extraction"
)

//go:embed instruction.tmpl
var instructionTmpl string

var instructionTemplate = template.Must(template.New("instruction").Parse(instructionTmpl))

// InstructionKey is the prompt key for the comparison instruction.
const InstructionKey = "comparison.instruction"

// Input is the data rendered into the comparison instruction.
type Input struct {
	BankNames []string
	Payload   string // JSON document of the projected banks
	Fields    []extraction.FieldPrompt
}

// Instruction renders the comparison instruction.
func Instruction(in Input) (string, error) {
	var buf bytes.Buffer
	data := struct {
		BankCount int
		BankList  string
		Payload   string
		Fields    []extraction.FieldPrompt
	}{
		BankCount: len(in.BankNames),
		BankList:  strings.Join(in.BankNames, ", "),
		Payload:   in.Payload,
		Fields:    in.Fields,
	}
	if err := instructionTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render comparison instruction: %w", err)
	}
	return buf.String(), nil
}

// RegisterPrompts registers the comparison prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         InstructionKey,
		Text:        instructionTmpl,
		Description: "Comparison instruction - assigns SAME/DIFF/MISSING/SUSPECT per bank and field",
	})
}
