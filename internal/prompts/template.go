package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"text/template/parse"
)

// ExtractVariables lists the fields of the template's data value that text
// reads, sorted and deduplicated: "{{.BankCount}} {{.Bank.Name}}" gives
// ["Bank.Name", "BankCount"]. Fields read inside range and with bodies
// belong to the element, not the data value, and are left out. Text that
// does not parse as a template has no variables.
func ExtractVariables(text string) []string {
	t := parse.New("prompt")
	t.Mode = parse.SkipFuncCheck
	if _, err := t.Parse(text, "", "", map[string]*parse.Tree{}); err != nil || t.Root == nil {
		return nil
	}

	var vars []string
	var walk func(parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, cmd := range n.Cmds {
				for _, arg := range cmd.Args {
					walk(arg)
				}
			}
		case *parse.FieldNode:
			vars = append(vars, strings.Join(n.Ident, "."))
		case *parse.IfNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.Pipe)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.Pipe)
			walk(n.ElseList)
		case *parse.TemplateNode:
			walk(n.Pipe)
		}
	}
	walk(t.Root)

	slices.Sort(vars)
	return slices.Compact(vars)
}

// HashText returns the hex SHA-256 of text. Prompt CIDs are this hash.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
