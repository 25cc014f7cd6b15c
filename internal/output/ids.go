package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
)

// IDsFormatter outputs just the toast IDs, one per line.
// Useful for piping to other commands (e.g., xargs hudtoast dismiss).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes toast IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, items []lifecycle.Item) error {
	for _, it := range items {
		if _, err := fmt.Fprintln(w, it.Notification.ID); err != nil {
			return err
		}
	}
	return nil
}
