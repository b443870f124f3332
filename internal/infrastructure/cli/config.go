package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/smarttask/internal/infrastructure/config"
	"github.com/felixgeelhaar/smarttask/internal/infrastructure/wiring"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change client settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := wiring.NewWorkspace(configDir)
		if err != nil {
			return err
		}
		cfg := *ws.Config
		if apiURL != "" {
			cfg.APIURL = apiURL
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", ws.Dir)
		_, err = out.Write(data)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Change one setting in config.yaml",
	Long:      "Change one setting in config.yaml. Keys: api_url, ws_url, page_size, live.",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"api_url", "ws_url", "page_size", "live"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := wiring.NewWorkspace(configDir)
		if err != nil {
			return err
		}
		cfg := ws.Config
		key, value := args[0], args[1]
		switch key {
		case "api_url":
			cfg.APIURL = value
		case "ws_url":
			cfg.WSURL = value
		case "page_size":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return NewCLIError(fmt.Sprintf("invalid page size %q", value), "Use a positive number", err)
			}
			cfg.PageSize = n
		case "live":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return NewCLIError(fmt.Sprintf("invalid boolean %q", value), "Use true or false", err)
			}
			cfg.Live = b
		default:
			return NewCLIError(fmt.Sprintf("unknown setting %q", key), "Keys: api_url, ws_url, page_size, live", nil)
		}
		if err := config.Save(ws.Dir, cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	RootCmd.AddCommand(configCmd)
}
