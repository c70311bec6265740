package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docman/internal/config"
)

func newConfigCmd(cfg *config.Config, structured *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings in .docman.toml",
	}

	cmd.AddCommand(newConfigGetCmd(cfg, structured))
	cmd.AddCommand(newConfigListCmd(cfg, structured))
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

// configEntry is one effective setting.
type configEntry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func configEntries(cfg *config.Config, keys []string) ([]configEntry, error) {
	out := make([]configEntry, 0, len(keys))
	for _, key := range keys {
		if !config.IsAllowedKey(key) {
			return nil, fmt.Errorf("unknown key: %s (allowed: %v)", key, config.AllowedKeys())
		}
		value, err := cfg.Get(key)
		if err != nil {
			return nil, err
		}
		out = append(out, configEntry{Key: key, Value: value})
	}
	return out, nil
}

func newConfigGetCmd(cfg *config.Config, structured *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a setting",
		Args:  requireExactlyArgs(1, "config key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := configEntries(cfg, args)
			if err != nil {
				return err
			}
			if *structured {
				return writeStructured(entries[0])
			}
			return writePlain("%s\n", entries[0].Value)
		},
	}
}

func newConfigListCmd(cfg *config.Config, structured *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every setting with its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := configEntries(cfg, config.AllowedKeys())
			if err != nil {
				return err
			}
			if *structured {
				return writeStructured(entries)
			}
			for _, entry := range entries {
				if err := writePlain("%s = %s\n", entry.Key, entry.Value); err != nil {
					return err
				}
			}
			if cfg.ProjectConfigPath != "" {
				return writePlain("# project file: %s\n", cfg.ProjectConfigPath)
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting to the project or global .docman.toml",
		Args:  requireExactlyArgs(2, "config key and value are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			path, err := config.ProjectPath()
			if global {
				path, err = config.GlobalPath()
			}
			if err != nil {
				return err
			}
			if err := config.SetKey(path, key, value); err != nil {
				return err
			}
			return writePlain("Set %s in %s\n", key, path)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to ~/.docman.toml instead of ./.docman.toml")
	return cmd
}
