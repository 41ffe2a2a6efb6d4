package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how CLI commands print server answers.
type OutputFormat string

const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
)

// format is set by the root command's --output flag.
var format = OutputFormatYAML

// ParseOutputFormat validates a --output value. Empty means YAML.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case "":
		return OutputFormatYAML, nil
	case OutputFormatYAML, OutputFormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q: want yaml or json", s)
	}
}

// SetOutputFormat sets the format used by Output. An unknown value is an
// error and leaves the format unchanged.
func SetOutputFormat(s string) error {
	f, err := ParseOutputFormat(s)
	if err != nil {
		return err
	}
	format = f
	return nil
}

// GetOutputFormat returns the format used by Output.
func GetOutputFormat() OutputFormat { return format }

// Output writes data to stdout in the configured format.
func Output(data any) error {
	return OutputTo(os.Stdout, format, data)
}

// OutputTo writes data to w in the given format.
func OutputTo(w io.Writer, f OutputFormat, data any) error {
	switch f {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %s", f)
	}
}
