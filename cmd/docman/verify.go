package main

import (
	"github.com/spf13/cobra"

	"docman/internal/config"
)

func newVerifyCmd(cfg *config.Config, structured *bool) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare page rows with the files in the data directory",
		Long: "Reports page rows whose file is missing or corrupt, files no row points at, and\n" +
			"directories no document or attachment owns. --apply removes the orphan files and\n" +
			"empty stale directories; dangling rows are only reported.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				report, err := a.sync.Reconcile(cmd.Context(), apply)
				if err != nil {
					return err
				}
				if *structured {
					return writeStructured(report)
				}
				return writeReconcileReport(report)
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "remove orphan files and empty stale directories")
	return cmd
}
