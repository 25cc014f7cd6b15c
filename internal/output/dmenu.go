package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/model"
)

// DmenuFormatter formats toasts one per line for dmenu/rofi/fuzzel pickers.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs(opts)).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes toasts in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, items []lifecycle.Item) error {
	for i := range items {
		line := f.formatLine(i+1, &items[i])
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single toast line.
func (f *DmenuFormatter) formatLine(index int, it *lifecycle.Item) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(index, it, f.opts)); err == nil {
			return buf.String()
		}
	}

	// Default format: index | time | type | title: message | id
	n := &it.Notification
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}

	if f.opts.ShowTime {
		parts = append(parts, relativeTime(n.ReceivedAt, f.opts.now()))
	}

	parts = append(parts, string(n.Type))

	content := n.DisplayTitle()
	if msg := sanitizeMessage(n.Message, f.opts.MessageMax); msg != "" {
		content += ": " + msg
	}
	parts = append(parts, content, n.ID)

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Item         *lifecycle.Item
	Notification *model.Notification
	RelativeTime string
	Remaining    float64
}

func newTemplateData(index int, it *lifecycle.Item, opts FormatterOptions) templateData {
	now := opts.now()
	return templateData{
		Index:        index,
		Item:         it,
		Notification: &it.Notification,
		RelativeTime: relativeTime(it.Notification.ReceivedAt, now),
		Remaining:    it.Remaining(now),
	}
}

// templateFuncs returns template helper functions.
func templateFuncs(opts FormatterOptions) template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			return truncate(s, maxLen)
		},
		"reltime": func(t time.Time) string {
			return relativeTime(t, opts.now())
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.0f%%", f*100)
		},
	}
}

// relativeTime returns a human-readable relative time string.
func relativeTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if now.Sub(t) < time.Second {
		return "now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// sanitizeMessage cleans up message text for single-line display.
func sanitizeMessage(msg string, maxLen int) string {
	msg = strings.ReplaceAll(msg, "\r", "")
	msg = strings.Join(strings.Fields(msg), " ")
	return truncate(msg, maxLen)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
