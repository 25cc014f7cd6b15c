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

// PlainFormatter formats toasts as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs(opts)).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes toasts as plain text.
func (f *PlainFormatter) Format(w io.Writer, items []lifecycle.Item) error {
	for i := range items {
		if err := f.formatItem(w, i+1, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// formatItem formats a single toast.
func (f *PlainFormatter) formatItem(w io.Writer, index int, it *lifecycle.Item) error {
	if f.template != nil {
		return f.template.Execute(w, newTemplateData(index, it, f.opts))
	}

	n := &it.Notification
	var sb strings.Builder

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", index))
	}

	if symbol := n.Type.Symbol(); symbol != "" {
		sb.WriteString(symbol + " ")
	}
	sb.WriteString(fmt.Sprintf("<%s> %s", n.Type, n.DisplayTitle()))

	if f.opts.ShowState && it.State != lifecycle.StateVisible {
		sb.WriteString(fmt.Sprintf(" [%s]", it.State))
	}

	if f.opts.ShowTime {
		sb.WriteString(fmt.Sprintf(" (%s)", relativeTime(n.ReceivedAt, f.opts.now())))
	}

	sb.WriteString("\n")

	if msg := sanitizeMessage(n.Message, f.opts.MessageMax); msg != "" {
		sb.WriteString("    " + msg + "\n")
	}
	if loc := n.Location(); loc != "" {
		sb.WriteString("    📍 " + loc + "\n")
	}
	sb.WriteString(fmt.Sprintf("    id=%s %s\n", n.ID, expiryText(it, f.opts.now())))

	_, err := w.Write([]byte(sb.String()))
	return err
}

// expiryText describes when a toast leaves the screen.
func expiryText(it *lifecycle.Item, now time.Time) string {
	switch {
	case it.State == lifecycle.StateExiting:
		return "closing"
	case it.ExpiresAt.IsZero():
		return "persistent"
	default:
		return "expires " + humanize.RelTime(it.ExpiresAt, now, "ago", "from now")
	}
}

// FormatField outputs a specific field from a notification.
func FormatField(n *model.Notification, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return n.ID
	case "type":
		return string(n.Type)
	case "title":
		return n.DisplayTitle()
	case "message":
		return n.Message
	case "icon":
		return n.Icon
	case "location":
		return n.Location()
	case "all", "full":
		return fmt.Sprintf("%s\n%s", n.DisplayTitle(), n.Message)
	default:
		return n.DisplayTitle()
	}
}
