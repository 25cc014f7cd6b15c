package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
)

// JSONFormatter formats toasts as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes toasts as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, items []lifecycle.Item) error {
	if items == nil {
		items = []lifecycle.Item{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}
