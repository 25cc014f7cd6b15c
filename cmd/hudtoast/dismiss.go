package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hudtoast/internal/client"
	"github.com/jmylchreest/hudtoast/internal/core"
)

var dismissOpts struct {
	immediate bool
}

var dismissCmd = &cobra.Command{
	Use:     "dismiss <index|id>...",
	Aliases: []string{"rm"},
	Short:   "Dismiss toasts",
	Long: `Dismiss one or more toasts by 1-based index, ID, or unique ID prefix.

A dismissed toast plays its exit animation before it is removed, unless
--immediate is given. Use "-" to read references from stdin, one per line.
Lines in dmenu format are accepted.

Examples:
  hudtoast dismiss 1
  hudtoast dismiss 01JA7 01JA9 --immediate
  hudtoast list -f dmenu | fuzzel -d | hudtoast dismiss -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDismiss,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every toast",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(clearCmd)

	dismissCmd.Flags().BoolVar(&dismissOpts.immediate, "immediate", false,
		"Remove without the exit animation")
}

func runDismiss(cmd *cobra.Command, args []string) error {
	refs, err := collectRefs(cmd, args)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("no toasts given")
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	_, items, err := api.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	var errs []error
	for _, ref := range refs {
		id, err := core.Resolve(items, parseDmenuSelection(ref))
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := api.Dismiss(ctx, id, dismissOpts.immediate); err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.NotFound() {
				// Expired between list and dismiss
				logger.Debug("notification already gone", "id", id)
				continue
			}
			errs = append(errs, fmt.Errorf("dismiss %s: %w", id, err))
			continue
		}
		logger.Debug("notification dismissed", "id", id, "immediate", dismissOpts.immediate)
	}
	return errors.Join(errs...)
}

// collectRefs expands "-" into the lines read from stdin.
func collectRefs(cmd *cobra.Command, args []string) ([]string, error) {
	var refs []string
	for _, arg := range args {
		if arg != "-" {
			refs = append(refs, arg)
			continue
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				refs = append(refs, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}
	return refs, nil
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	count, err := api.Clear(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d notification(s)\n", count)
	return nil
}
