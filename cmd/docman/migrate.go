package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docman/internal/config"
	"docman/internal/store"
)

func newMigrateCmd(cfg *config.Config, structured *bool) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect database schema migrations",
		Long:  "Databases created before page ordering was stored are upgraded in place.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				plan, err := migrationPlan(cfg.DBPath)
				if err != nil {
					return err
				}
				if *structured {
					return writeStructured(plan)
				}
				return writeMigrationPlan(plan)
			}

			before, err := migrationPlan(cfg.DBPath)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := st.Close(); err != nil {
				return err
			}
			after, err := migrationPlan(cfg.DBPath)
			if err != nil {
				return err
			}

			if *structured {
				return writeStructured(after)
			}
			if len(before.Pending) == 0 {
				return writePlain("Schema already at version %d.\n", after.CurrentVersion)
			}
			return writePlain("Upgraded schema from version %d to %d (%d migration%s).\n",
				before.CurrentVersion, after.CurrentVersion, len(before.Pending), plural(len(before.Pending)))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	return cmd
}

func migrationPlan(path string) (*store.MigrationStatus, error) {
	db, err := store.OpenRaw(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	plan, err := store.MigrationPlan(db)
	if err != nil {
		return nil, fmt.Errorf("inspect migrations: %w", err)
	}
	return plan, nil
}

func writeMigrationPlan(plan *store.MigrationStatus) error {
	if err := writePlain("Current version: %d\nAvailable version: %d\n", plan.CurrentVersion, plan.AvailableVersion); err != nil {
		return err
	}
	if plan.Untracked {
		if err := writePlain("No migration history; version read from the table layout.\n"); err != nil {
			return err
		}
	}
	if len(plan.Pending) == 0 {
		return writePlain("No pending migrations.\n")
	}
	if err := writePlain("Pending migrations: %d\n", len(plan.Pending)); err != nil {
		return err
	}
	for _, m := range plan.Pending {
		if err := writePlain("  %d: %s\n", m.Version, m.Description); err != nil {
			return err
		}
	}
	return nil
}
