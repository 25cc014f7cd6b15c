package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hudtoast/internal/nui"
)

var fetchOpts struct {
	data string
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <event>",
	Short: "Post an event to the host resource",
	Long: `Post an event to the host resource configured under [nui], the same way
hudtoastd reports back, and print the JSON reply.

In debug mode (no resource_name or endpoint) the reply comes from the
mocks_file instead; unknown events answer {}.

Examples:
  hudtoast fetch notificationRemoved --data '{"id":"01JA7","reason":"dismissed"}'
  hudtoast fetch getPlayerData`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchOpts.data, "data", "d", "",
		"JSON request body (default: {})")
}

func runFetch(cmd *cobra.Command, args []string) error {
	var data any
	if fetchOpts.data != "" {
		if err := json.Unmarshal([]byte(fetchOpts.data), &data); err != nil {
			return fmt.Errorf("invalid --data: %w", err)
		}
	}

	mocks := nui.NewMockRegistry()
	if path := cfg.MocksPath(); path != "" {
		if err := mocks.LoadFile(path); err != nil {
			return fmt.Errorf("failed to load mocks: %w", err)
		}
	}

	host := nui.NewClient(cfg.NUI.ResourceName,
		nui.WithEndpoint(cfg.NUI.Endpoint),
		nui.WithHTTPClient(&http.Client{Timeout: cfg.NUI.Timeout.Duration()}),
		nui.WithMocks(mocks),
		nui.WithClientLogger(logger),
	)
	logger.Debug("fetching", "event", args[0], "url", host.URL(args[0]), "debug", host.Debug())

	ctx, cancel := requestContext(cmd)
	defer cancel()

	var reply any
	if err := host.Fetch(ctx, args[0], data, &reply); err != nil {
		return err
	}
	if reply == nil {
		reply = map[string]any{}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(reply)
}
