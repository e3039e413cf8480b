package main

import (
	"fmt"
	"os"

	"github.com/TakenPilot/cloudflare-workers/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version is set with -ldflags at build time
	Version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "edge",
	Short:         "Newsletter, API key and static site services",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(adminTokenCmd)
}

// loadConfig reads the environment and checks what service needs.
func loadConfig(service string) (config.Config, *logrus.Logger, error) {
	cfg := config.Load(os.Environ())
	logger := config.NewLogger(cfg.LogLevel)
	if service != "" {
		if err := cfg.Validate(service); err != nil {
			return cfg, logger, err
		}
	}
	return cfg, logger, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the newsletter tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(config.ServiceNewsletters)
		if err != nil {
			return err
		}
		db, err := config.ConnectionDb(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := config.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migration complete")
		return nil
	},
}
