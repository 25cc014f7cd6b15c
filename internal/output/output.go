// Package output provides output formatters for toast listings.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
)

// Formatter formats toasts for output.
type Formatter interface {
	// Format writes formatted toasts to the writer.
	Format(w io.Writer, items []lifecycle.Item) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
)

// FormatTypes lists the supported formats.
var FormatTypes = []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatIDs}

// ParseFormat validates a format name.
func ParseFormat(name string) (FormatType, error) {
	for _, f := range FormatTypes {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q, must be one of: %v", name, FormatTypes)
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template   string           // Custom template for plain/dmenu format
	ShowIndex  bool             // Show 1-based index prefix
	ShowTime   bool             // Show relative received time
	ShowState  bool             // Show lifecycle state
	MessageMax int              // Maximum message length (0 = unlimited)
	Separator  string           // Field separator for dmenu format
	Now        func() time.Time // Clock for relative times
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:  true,
		ShowTime:   true,
		ShowState:  true,
		MessageMax: 80,
		Separator:  " | ",
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
