package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"DailyCast/internal/config"
	"DailyCast/internal/logging"
)

type commandContext struct {
	configPath *string
	cfg        *config.Config
	logger     *slog.Logger
}

func (c *commandContext) config() config.Config {
	if c.cfg == nil {
		path := *c.configPath
		if path == "" {
			path = os.Getenv("DAILYCAST_CONFIG")
		}
		cfg := config.LoadFile(path)
		c.cfg = &cfg
	}
	return *c.cfg
}

func (c *commandContext) log() *slog.Logger {
	if c.logger == nil {
		cfg := c.config()
		c.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	return c.logger
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configPath: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "dailycast",
		Short:         "Daily news podcast pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $DAILYCAST_CONFIG)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newRouteCommand(ctx))
	rootCmd.AddCommand(newBreakerCommand(ctx))

	return rootCmd
}
