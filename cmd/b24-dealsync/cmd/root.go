// Package cmd implements the CLI commands for b24-dealsync.
package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/internal/config"
	"github.com/pkravchenko/b24-dealsync/internal/engine"
	"github.com/pkravchenko/b24-dealsync/internal/fields"
	"github.com/pkravchenko/b24-dealsync/internal/match"
	"github.com/pkravchenko/b24-dealsync/internal/reconcile"
	"github.com/pkravchenko/b24-dealsync/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "b24-dealsync",
	Short: "Synchronize CRM deal dates with a Bitrix24 lookup list",
	Long: "b24-dealsync keeps a date field on CRM deals in sync with per-product\n" +
		"dates maintained in a Bitrix24 list. It serves the deal-update webhook,\n" +
		"runs the month-end list maintenance job on a schedule, and offers\n" +
		"manual one-shot runs of both.",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")
	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))

	rootCmd.AddCommand(versionCommand())
}

func initConfig() {
	viper.SetEnvPrefix("B24SYNC")
	viper.AutomaticEnv()
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Logging.Level, cfg.Logging.Format)
}

// buildEngine wires the Bitrix client, resolver, matcher and policy from
// config. Shared by serve and the one-shot commands.
func buildEngine(cfg *config.Config, log *slog.Logger) (*engine.Engine, error) {
	loc, err := cfg.MonthEnd.Location()
	if err != nil {
		return nil, fmt.Errorf("resolving monthend timezone: %w", err)
	}

	client := bitrix.NewRestClient(cfg.Bitrix.BaseURL,
		bitrix.WithTimeouts(cfg.Bitrix.ConnectTimeout, cfg.Bitrix.ReadTimeout),
		bitrix.WithRetryPolicy(cfg.Bitrix.Retries, cfg.Bitrix.Backoff),
		bitrix.WithRateLimit(cfg.Bitrix.RateLimit.PerSecond, cfg.Bitrix.RateLimit.Burst),
		bitrix.WithLogger(log),
	)

	resolver := fields.NewResolver(client, cfg.List.ID,
		cfg.List.SearchProperty, cfg.List.DateProperty,
		fields.WithLogger(log),
	)
	matcher := match.New(client, resolver, cfg.List.ID, match.WithLogger(log))

	policy := reconcile.Policy{
		TargetField:       cfg.Deal.TargetField,
		LockField:         cfg.Deal.LockField,
		IntegrationUserID: cfg.Deal.IntegrationUserID,
		GracePeriod:       cfg.Deal.GracePeriod(),
	}

	roll := engine.RollConfig{
		ElementIDs: cfg.MonthEnd.ElementIDs,
		DateTag:    cfg.List.DateProperty,
		Location:   loc,
	}

	return engine.New(client, matcher, resolver, policy, cfg.List.ID, roll,
		engine.WithLogger(log),
	), nil
}

// shutdownTimeout bounds graceful HTTP and scheduler shutdown.
const shutdownTimeout = 10 * time.Second
