package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Make the overlay visible",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVisible(cmd, true)
	},
}

var hideCmd = &cobra.Command{
	Use:   "hide",
	Short: "Hide the overlay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVisible(cmd, false)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle overlay visibility",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		visible, _, err := api.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to read overlay state: %w", err)
		}
		return setVisible(cmd, !visible)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(toggleCmd)
}

func setVisible(cmd *cobra.Command, visible bool) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	if err := api.SetVisible(ctx, visible); err != nil {
		return fmt.Errorf("failed to set visibility: %w", err)
	}
	logger.Debug("overlay visibility set", "visible", visible)
	return nil
}
