package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hudtoast/internal/core"
	"github.com/jmylchreest/hudtoast/internal/model"
)

var sendOpts struct {
	typ        string
	title      string
	message    string
	duration   int
	persistent bool
	color      string
	background string
	icon       string
	noSound    bool
	location   string
	data       []string
	file       string
	quiet      bool
}

var sendCmd = &cobra.Command{
	Use:   "send [title] [message]",
	Short: "Show a toast on the overlay",
	Long: `Send an addNotification message to hudtoastd and print the new toast ID.

Examples:
  # Success toast for three seconds
  hudtoast send "Saved" --type success --duration 3000

  # Police alert with a location
  hudtoast send "10-90 Bank Robbery" "Silent alarm triggered" -t police --location "Legion Square"

  # Persistent custom toast with extra data
  hudtoast send "Heads up" --type custom --persistent --color "#ff8800" --data unit=12

  # Read the whole request from a JSON or YAML file ("-" for stdin)
  hudtoast send --file toast.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.typ, "type", "t", string(model.TypeInfo),
		fmt.Sprintf("Notification type %v", model.Types))
	sendCmd.Flags().StringVar(&sendOpts.title, "title", "",
		"Title (overrides the first argument)")
	sendCmd.Flags().StringVarP(&sendOpts.message, "message", "m", "",
		"Message body (overrides the second argument)")
	sendCmd.Flags().IntVarP(&sendOpts.duration, "duration", "d", 5000,
		"Display time in milliseconds (<= 0 persists)")
	sendCmd.Flags().BoolVar(&sendOpts.persistent, "persistent", false,
		"Keep the toast until it is dismissed")
	sendCmd.Flags().StringVar(&sendOpts.color, "color", "",
		"Accent color override (hex)")
	sendCmd.Flags().StringVar(&sendOpts.background, "bg", "",
		"Background color override (hex)")
	sendCmd.Flags().StringVar(&sendOpts.icon, "icon", "",
		"Icon override")
	sendCmd.Flags().BoolVar(&sendOpts.noSound, "no-sound", false,
		"Suppress the arrival sound")
	sendCmd.Flags().StringVar(&sendOpts.location, "location", "",
		"Location shown on police and ems alerts")
	sendCmd.Flags().StringArrayVar(&sendOpts.data, "data", nil,
		"Custom data as key=value (repeatable; values are parsed as JSON when possible)")
	sendCmd.Flags().StringVarP(&sendOpts.file, "file", "f", "",
		"Read the request from a JSON or YAML file (- for stdin)")
	sendCmd.Flags().BoolVarP(&sendOpts.quiet, "quiet", "q", false,
		"Do not print the toast ID")
}

func runSend(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	id, err := api.Add(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	logger.Debug("notification sent", "id", id, "type", req.Type)

	if !sendOpts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

// buildRequest assembles the request from --file, arguments and flags.
// Flags that were set explicitly override values read from the file.
func buildRequest(cmd *cobra.Command, args []string) (model.Request, error) {
	var req model.Request
	if sendOpts.file != "" {
		r, err := readRequestFile(cmd, sendOpts.file)
		if err != nil {
			return req, err
		}
		req = r
	} else {
		req.Type = model.TypeInfo
		req.Duration = sendOpts.duration
	}

	if len(args) > 0 {
		req.Title = args[0]
	}
	if len(args) > 1 {
		req.Message = args[1]
	}

	flags := cmd.Flags()
	if flags.Changed("type") {
		t, err := core.ParseType(sendOpts.typ)
		if err != nil {
			return req, err
		}
		req.Type = t
	}
	if flags.Changed("title") {
		req.Title = sendOpts.title
	}
	if flags.Changed("message") {
		req.Message = sendOpts.message
	}
	if flags.Changed("duration") {
		req.Duration = sendOpts.duration
	}
	if sendOpts.persistent {
		req.Duration = 0
	}
	if sendOpts.color != "" {
		req.Color = sendOpts.color
	}
	if sendOpts.background != "" {
		req.BackgroundColor = sendOpts.background
	}
	if sendOpts.icon != "" {
		req.Icon = sendOpts.icon
	}
	if sendOpts.noSound {
		off := false
		req.Sound = &off
	}

	data, err := parseData(sendOpts.data)
	if err != nil {
		return req, err
	}
	if sendOpts.location != "" {
		if data == nil {
			data = make(map[string]any)
		}
		data["location"] = sendOpts.location
	}
	if len(data) > 0 {
		if req.CustomData == nil {
			req.CustomData = make(map[string]any, len(data))
		}
		for k, v := range data {
			req.CustomData[k] = v
		}
	}

	if req.Title == "" && req.Message == "" {
		return req, fmt.Errorf("a title or message is required")
	}
	return req, nil
}

// readRequestFile decodes a request from path. YAML is a superset of JSON,
// so both are accepted.
func readRequestFile(cmd *cobra.Command, path string) (model.Request, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return model.Request{}, fmt.Errorf("failed to read request: %w", err)
	}

	req := model.Request{Type: model.TypeInfo}
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return model.Request{}, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// parseData turns key=value pairs into custom data.
func parseData(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	data := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --data %q (want key=value)", pair)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			data[key] = decoded
		} else {
			data[key] = value
		}
	}
	return data, nil
}
