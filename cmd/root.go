package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hurou927/schema-sync/internal/config"
	"github.com/hurou927/schema-sync/internal/logging"
)

var (
	cfgPath   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "schema-sync",
	Short: "Create and migrate relational tables from JSON schemas",
	Long: `schema-sync compiles JSON schema documents into relational tables and keeps
the database in line with them. Scalar properties become columns, array
properties become child tables named <table>__<property>. Each schema is
applied in a single transaction: either every change lands or none does.
Supported databases are PostgreSQL, SQLite, MySQL and SQL Server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return err
		}
		logger = logging.InitLogger(level, format)

		if cfgPath == "" {
			return fmt.Errorf("--config is required")
		}
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger.Debug("config loaded", "path", cfgPath, "backend", cfg.Backend)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (required)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// Execute runs the root command. An interrupt cancels the running
// synchronizations, which roll back.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
