package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docman/internal/config"
	"docman/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		yamlOutput bool
		structured bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "docman",
		Short:         "Docman files scanned and imported pages under numbered documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput && yamlOutput {
				return errors.New("--json and --yaml are mutually exclusive")
			}
			structured = jsonOutput || yamlOutput
			outputFormatter = format.JSONFormatter{}
			if yamlOutput {
				outputFormatter = format.YAMLFormatter{}
			}

			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			if cfg.ProjectConfigPath != "" {
				logger().Debug("using project config", "path", cfg.ProjectConfigPath)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "output YAML")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newDocCmd(cfg, &structured),
		newAttachCmd(cfg, &structured),
		newScanCmd(cfg, &structured),
		newVerifyCmd(cfg, &structured),
		newMigrateCmd(cfg, &structured),
		newConfigCmd(cfg, &structured),
	)

	return cmd
}
