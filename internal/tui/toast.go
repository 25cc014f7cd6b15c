package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/model"
)

// timestampLayout matches a 12-hour clock with two-digit hours.
const timestampLayout = "03:04 PM"

type toastView struct {
	width    int
	selected bool
	pulse    bool
	now      time.Time
}

// renderToast renders one toast as a bordered card.
func renderToast(it *lifecycle.Item, v toastView) string {
	n := &it.Notification
	p := paletteFor(n)
	exiting := it.State != lifecycle.StateVisible

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1).
		Width(v.width - 2)
	if v.selected {
		box = box.Border(lipgloss.ThickBorder())
	}
	if n.Type == model.TypeCustom && n.BackgroundColor != "" {
		box = box.Background(lipgloss.Color(n.BackgroundColor))
	}
	if exiting {
		box = box.Faint(true).BorderForeground(lipgloss.Color("8"))
	}

	inner := max(v.width-4, 10)

	titleStyle := lipgloss.NewStyle().Bold(true)
	iconStyle := lipgloss.NewStyle().Foreground(p.Accent)

	left := iconStyle.Render(icon(n)) + " " + titleStyle.Render(n.DisplayTitle())
	if n.Urgent() && !exiting && v.pulse {
		left += lipgloss.NewStyle().Foreground(p.Pulse).Render(" ●")
	}
	right := mutedStyle.Render(n.ReceivedAt.Local().Format(timestampLayout))
	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)

	lines := []string{left + strings.Repeat(" ", gap) + right}

	if n.Message != "" {
		lines = append(lines, messageStyle.Width(inner).Render(n.Message))
	}
	if loc := n.Location(); loc != "" {
		lines = append(lines, mutedStyle.Render("📍 "+loc))
	}

	if !exiting && !it.ExpiresAt.IsZero() {
		bar := progress.New(
			progress.WithSolidFill(string(p.Accent)),
			progress.WithoutPercentage(),
			progress.WithWidth(inner),
		)
		lines = append(lines, bar.ViewAs(it.Remaining(v.now)))
	}

	return box.Render(strings.Join(lines, "\n"))
}
