package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/82deutschmark/MagicalFarmStories/internal/repository"
	"github.com/82deutschmark/MagicalFarmStories/internal/service"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <dir>",
		Short: "Import character images from a directory",
		Long: `Import every .jpg, .jpeg, .png and .gif file in <dir> as a farm
character with a fresh story-maker id. With --reset the tables are
dropped and recreated first.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().Bool("reset", false, "Drop and recreate tables before importing")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		reset, err := cmd.Flags().GetBool("reset")
		if err != nil {
			return fmt.Errorf("getting reset flag: %w", err)
		}
		return withStore(func(cmd *cobra.Command, db *repository.SQLiteStore) error {
			ctx := cmd.Context()
			svc := service.New(db, nil, nil, nil, nil, nil)
			if reset {
				if err := svc.DropTables(ctx); err != nil {
					return err
				}
				if err := svc.CreateTables(ctx); err != nil {
					return err
				}
			}
			n, err := svc.SeedDirectory(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d images.\n", n)
			return nil
		})(cmd, args)
	}
	return cmd
}
