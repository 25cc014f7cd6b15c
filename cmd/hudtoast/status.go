package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/model"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output overlay status in Waybar's custom module JSON format.

Only toasts that are still visible are counted; exiting toasts are ignored.

  "custom/hudtoast": {
    "exec": "hudtoast status",
    "interval": 2,
    "return-type": "json",
    "on-click": "hudtoast toggle"
  }

The class is "offline" when the daemon is unreachable, "hidden" when the
overlay is hidden, "empty" when nothing is shown, "critical" when an
error, police or ems toast is visible, and "normal" otherwise.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	visible, items, err := api.List(ctx)
	if err != nil {
		logger.Debug("daemon unreachable", "error", err)
		return outputStatus(cmd.OutOrStdout(), WaybarStatus{Alt: "offline", Class: "offline", Tooltip: "hudtoastd is not running"})
	}
	return outputStatus(cmd.OutOrStdout(), generateStatus(visible, items))
}

// generateStatus summarizes the visible toasts.
func generateStatus(visible bool, items []lifecycle.Item) WaybarStatus {
	counts := make(map[model.Type]int)
	active := 0
	critical := false
	for _, it := range items {
		if it.State != lifecycle.StateVisible {
			continue
		}
		t := it.Notification.Type.Presentation()
		counts[t]++
		active++
		if t == model.TypeError || it.Notification.Urgent() {
			critical = true
		}
	}

	if active == 0 {
		class := "empty"
		if !visible {
			class = "hidden"
		}
		return WaybarStatus{Alt: class, Class: class}
	}

	class := "normal"
	switch {
	case !visible:
		class = "hidden"
	case critical:
		class = "critical"
	}

	return WaybarStatus{
		Text:       fmt.Sprintf("%d", active),
		Alt:        class,
		Tooltip:    buildTooltip(active, counts),
		Class:      class,
		Percentage: min(active, 100),
	}
}

// buildTooltip lists per-type counts in display order.
func buildTooltip(active int, counts map[model.Type]int) string {
	lines := []string{fmt.Sprintf("%d active", active)}
	for _, t := range model.Types {
		if n := counts[t]; n > 0 {
			lines = append(lines, strings.TrimSpace(fmt.Sprintf("%s %s: %d", t.Symbol(), t, n)))
		}
	}
	return strings.Join(lines, "\n")
}

// outputStatus writes the status as JSON.
func outputStatus(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}
