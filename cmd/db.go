package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/82deutschmark/MagicalFarmStories/internal/repository"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, db *repository.SQLiteStore) error {
			if err := db.CreateTables(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tables created.")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "drop",
		Short: "Drop every application table",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, db *repository.SQLiteStore) error {
			if err := db.DropTables(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tables dropped.")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Print tables and row counts",
		Args:  cobra.NoArgs,
		RunE:  withStore(printTableInfo),
	})
	return cmd
}

func printTableInfo(cmd *cobra.Command, db *repository.SQLiteStore) error {
	tables, err := db.TableInfo(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS")
	for _, t := range tables {
		fmt.Fprintf(w, "%s\t%d\n", t.Name, t.RowCount)
	}
	return w.Flush()
}

// withStore opens the configured database around fn.
func withStore(fn func(cmd *cobra.Command, db *repository.SQLiteStore) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}()
		return fn(cmd, db)
	}
}
