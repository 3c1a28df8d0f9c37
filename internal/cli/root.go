// Package cli holds the campus-engage command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"campus-engage/internal/common/config"
	"campus-engage/internal/common/logger"
)

// Version is stamped at build time with -ldflags "-X campus-engage/internal/cli.Version=...".
var Version = "dev"

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "campus-engage",
	Short: "Campus engagement API server and tools",
	Long: `campus-engage serves the campus engagement API: organizations and events
from the engagement platform, natural-language event search, sign-in and
onboarding profiles.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "campus-engage %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(indexCmd)
}

// loadConfig reads --config when given, otherwise the default lookup.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) (*zap.Logger, logger.Logger) {
	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return zapLog, logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": Version,
	})
}
