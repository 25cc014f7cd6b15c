package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hudtoast/internal/client"
	"github.com/jmylchreest/hudtoast/internal/tui"
)

var watchOpts struct {
	raw       bool
	clipboard string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the overlay live",
	Long: `Attach to hudtoastd's event stream and render the overlay in the terminal.

With --raw, every event is printed as one JSON object per line instead.

Key bindings:
  j/k, ↑/↓    Select toast
  x, enter    Dismiss selected toast
  c           Copy toast text to clipboard
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOpts.raw, "raw", false,
		"Print events as JSON lines instead of rendering the overlay")
	watchCmd.Flags().StringVar(&watchOpts.clipboard, "clipboard", "",
		"Clipboard command (default: auto-detect wl-copy, xclip, xsel, pbcopy)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	updates, errs, err := api.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", api.BaseURL(), err)
	}

	if watchOpts.raw {
		return printUpdates(cmd, updates, errs)
	}

	return tui.Run(tui.Options{
		Title:   "hudtoast " + api.BaseURL(),
		Updates: updates,
		Dismiss: func(id string) error {
			ctx, cancel := context.WithTimeout(context.Background(), globalOpts.timeout)
			defer cancel()
			return api.Dismiss(ctx, id, false)
		},
		ClipboardCommand: watchOpts.clipboard,
	})
}

// rawEvent is the --raw line format.
type rawEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func printUpdates(cmd *cobra.Command, updates <-chan client.Update, errs <-chan error) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for u := range updates {
		ev := rawEvent{Event: u.Event}
		switch u.Event {
		case client.EventSnapshot:
			ev.Payload = u.Snapshot
		case client.EventVisibility:
			ev.Payload = map[string]bool{"visible": u.Visible}
		default:
			ev.Payload = u.Lifecycle
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
