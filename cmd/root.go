// Package cmd provides the farmstory CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/82deutschmark/MagicalFarmStories/internal/config"
	"github.com/82deutschmark/MagicalFarmStories/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "farmstory",
		Short: "Magical farm story generator",
		Long: `farmstory serves the Magical Farm Stories API.

Children pick a farm character, the service describes it with a vision
assistant, writes a short story about it and can draw an illustration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, err := cmd.Flags().GetString("env-file")
			if err != nil {
				return fmt.Errorf("getting env-file flag: %w", err)
			}
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("loading %s: %w", envFile, err)
			}
			return nil
		},
		RunE: runServe,
	}

	cmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading configuration")
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}

// loadConfig reads the environment and configures logging. Commands that do
// not talk to the provider skip validation of provider settings.
func loadConfig(requireProvider bool) (*config.Config, error) {
	cfg := config.Load()
	logging.Configure(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if requireProvider {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	} else if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("invalid configuration: DATABASE_URL cannot be empty")
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		log.Error("command failed", "err", err)
	}
	return err
}
