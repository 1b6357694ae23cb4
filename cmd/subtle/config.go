package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/subtle/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persistent settings",
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save a setting to config.json",
		Long: "Save a setting to config.json in the data directory.\n\n" +
			"Keys: " + strings.Join(config.SettingKeys(), ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.SettingKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadMinimal()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := cfg.SaveSetting(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
			return nil
		},
	}
	cmd.AddCommand(set)
	return cmd
}
