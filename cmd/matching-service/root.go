// cmd/matching-service/root.go
package main

import (
	"fmt"

	"advisor-matching/internal/common/config"
	"advisor-matching/internal/common/logger"

	"github.com/spf13/cobra"
)

const app = "matching-service"

var (
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "matching-service scores founder/advisor pairs and serves the results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, batchCmd, matchCmd, migrateCmd)
}

// loadConfig reads --config when given, otherwise the standard search path.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
	})
}
