package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hudtoast/internal/core"
	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/output"
)

var listOpts struct {
	// Filter options
	typ    string
	state  string
	since  string
	filter string
	search string
	limit  int

	// Sort options
	sortBy    string
	sortOrder string

	// Output options
	format   string
	field    string
	template string
}

var listCmd = &cobra.Command{
	Use:     "list [index|id]",
	Aliases: []string{"ls", "get"},
	Short:   "List the toasts currently on the overlay",
	Long: `List the toasts hudtoastd is showing, in various formats.

With an index (1-based) or ID argument, outputs that specific toast.
IDs may be shortened to any unique prefix.

Examples:
  # Everything on screen
  hudtoast list

  # Police and EMS alerts from the last minute
  hudtoast list --filter "type~=^(police|ems)$,received<1m"

  # Message of the second toast
  hudtoast list 2 --field message

  # Pick a toast with fuzzel and dismiss it
  hudtoast list -f dmenu | fuzzel -d | hudtoast dismiss -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listOpts.typ, "type", "",
		"Filter by notification type")
	listCmd.Flags().StringVar(&listOpts.state, "state", "",
		"Filter by lifecycle state (visible, exiting)")
	listCmd.Flags().StringVar(&listOpts.since, "since", "",
		"Show toasts received within the duration (e.g., 30s, 5m)")
	listCmd.Flags().StringVar(&listOpts.filter, "filter", "",
		"Filter expression (e.g., \"type=police,title~bank\")")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "",
		"Search in title and message")
	listCmd.Flags().IntVarP(&listOpts.limit, "limit", "n", 0,
		"Maximum number of toasts to show (0=unlimited)")

	listCmd.Flags().StringVar(&listOpts.sortBy, "sort", "received",
		"Sort by field (received, type, title, expiry)")
	listCmd.Flags().StringVar(&listOpts.sortOrder, "order", "asc",
		"Sort order (asc, desc)")

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", string(output.FormatPlain),
		fmt.Sprintf("Output format %v", output.FormatTypes))
	listCmd.Flags().StringVar(&listOpts.field, "field", "",
		"Output a single field of one toast (id, type, title, message, icon, location, all)")
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Custom Go template for plain or dmenu output")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listOpts.format)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	visible, items, err := api.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}
	logger.Debug("listed notifications", "count", len(items), "visible", visible)

	items, err = selectItems(items)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(args) > 0 {
		id, err := core.Resolve(items, parseDmenuSelection(args[0]))
		if err != nil {
			return err
		}
		return writeSingle(w, core.LookupByID(items, id), format)
	}
	if listOpts.field != "" {
		return fmt.Errorf("--field needs an index or id argument")
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = listOpts.template
	return output.NewFormatter(format, opts).Format(w, items)
}

// selectItems applies the filter and sort flags.
func selectItems(items []lifecycle.Item) ([]lifecycle.Item, error) {
	opts := core.FilterOptions{Limit: listOpts.limit}

	if listOpts.typ != "" {
		t, err := core.ParseType(listOpts.typ)
		if err != nil {
			return nil, err
		}
		opts.Type = t
	}
	if listOpts.state != "" {
		s, err := core.ParseState(listOpts.state)
		if err != nil {
			return nil, err
		}
		opts.State = &s
	}
	if listOpts.since != "" {
		d, err := core.ParseDuration(listOpts.since)
		if err != nil {
			return nil, err
		}
		opts.Since = d
	}

	expr, err := core.ParseFilter(listOpts.filter)
	if err != nil {
		return nil, err
	}

	field, _ := core.ParseSortField(listOpts.sortBy)
	order, _ := core.ParseSortOrder(listOpts.sortOrder)
	core.Sort(items, core.SortOptions{Field: field, Order: order})

	items = core.FilterWithExpr(items, expr)
	items = core.Search(items, listOpts.search)
	return core.Filter(items, opts), nil
}

// writeSingle prints one toast: a single field, or the whole item as JSON.
func writeSingle(w io.Writer, it *lifecycle.Item, format output.FormatType) error {
	if listOpts.field != "" {
		_, err := fmt.Fprintln(w, output.FormatField(&it.Notification, listOpts.field))
		return err
	}

	switch format {
	case output.FormatPlain, output.FormatDmenu, output.FormatIDs, output.FormatYAML:
		return output.NewFormatter(format, output.DefaultFormatterOptions()).Format(w, []lifecycle.Item{*it})
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(it)
	}
}

// parseDmenuSelection extracts the ID from a line produced by the dmenu format.
// The ID is the last separator-delimited field.
func parseDmenuSelection(selection string) string {
	selection = strings.TrimSpace(selection)
	if idx := strings.LastIndex(selection, "|"); idx >= 0 {
		return strings.TrimSpace(selection[idx+1:])
	}
	return selection
}
