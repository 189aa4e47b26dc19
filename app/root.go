// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/logger"
)

var (
	configPath string // directory holding main.toml
	devMode    bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rollcall",
	Short: "rollcall is the admin backend for staff accounts and registered persons",
	Long: `rollcall manages staff accounts and registered persons behind a role based
session layer, imports both from CSV files and sends onboarding notifications.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Directory of main.toml")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// loadConfig reads the configuration and initialises the logger.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	if devMode {
		cfg.DevMode = true
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
