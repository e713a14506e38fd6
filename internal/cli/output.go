package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/priotodo/internal/ui"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatYAML}

// OutputFormatter writes command results as styled text, JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	Theme  ui.Theme
}

// Print writes data in the configured format. text renders the human form.
func (f *OutputFormatter) Print(data any, text func(ui.Theme) string) error {
	switch f.Format {
	case FormatJSON:
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(f.Writer, text(f.Theme))
		return err
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
