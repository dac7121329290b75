// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bizcheck CLI.
// bizcheck drives a business-idea feasibility backend: it manages the login
// session, submits ideas, runs data collection, analysis and report
// generation, and renders the results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bizcheck/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the configuration loaded before every command runs.
var cfg = types.DefaultConfig()

// rootCmd is the base command for the bizcheck CLI.
var rootCmd = &cobra.Command{
	Use:   "bizcheck",
	Short: "Check the feasibility of business ideas",
	Long: `bizcheck is a client for the business-idea feasibility service. It
submits an idea, has the service collect market, competitor, customer,
regulation, technology and profitability data, scores the idea and produces
a feasibility report with a SWOT analysis and a Go/No-Go recommendation.

Use "bizcheck run" for the whole chain in one step, or the idea subcommands
to drive each stage yourself.`,
	SilenceUsage: true,
}

// flagKeys binds persistent flags to configuration keys.
var flagKeys = map[string]string{
	"base-url":    "client.base_url",
	"session-dir": "session.dir",
	"cache-dir":   "cache.dir",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentPreRunE = preRun

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./bizcheck.yaml or ~/.config/bizcheck/bizcheck.yaml)")
	flags.String("base-url", "", "backend origin (default http://localhost:8000)")
	flags.String("session-dir", "", "directory holding the stored tokens (default .bizcheck/session)")
	flags.String("cache-dir", "", "directory holding cache.db (default .bizcheck)")
	flags.Bool("no-cache", false, "do not read or write the local cache")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")

	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
	setDefaults(types.DefaultConfig())
}

// setDefaults registers every configuration key with viper so environment
// variables reach Unmarshal.
func setDefaults(d types.Config) {
	viper.SetDefault("client.base_url", d.Client.BaseURL)
	viper.SetDefault("client.api_prefix", d.Client.APIPrefix)
	viper.SetDefault("client.timeout", d.Client.Timeout)
	viper.SetDefault("client.user_agent", d.Client.UserAgent)
	viper.SetDefault("client.requests_per_second", d.Client.RequestsPerSecond)
	viper.SetDefault("client.burst", d.Client.Burst)
	viper.SetDefault("client.max_retries", d.Client.MaxRetries)

	viper.SetDefault("poll.interval", d.Poll.Interval)
	viper.SetDefault("poll.max_attempts", d.Poll.MaxAttempts)
	viper.SetDefault("poll.max_wait", d.Poll.MaxWait)
	viper.SetDefault("poll.error_budget", d.Poll.ErrorBudget)

	viper.SetDefault("pipeline.reset_delay", d.Pipeline.ResetDelay)
	viper.SetDefault("pipeline.report_type", string(d.Pipeline.ReportType))

	viper.SetDefault("session.dir", d.Session.Dir)
	viper.SetDefault("cache.dir", d.Cache.Dir)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bizcheck")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bizcheck"))
		}
	}

	// BIZCHECK_POLL_INTERVAL sets poll.interval; BIZCHECK_BASE_URL is kept
	// as a short alias for the backend origin.
	viper.SetEnvPrefix("BIZCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("client.base_url", "BIZCHECK_BASE_URL", "BIZCHECK_CLIENT_BASE_URL")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// preRun loads the configuration before any subcommand runs.
func preRun(cmd *cobra.Command, _ []string) error {
	noCache, _ := cmd.Flags().GetBool("no-cache")
	c, err := loadConfig(noCache)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// loadConfig decodes the merged flag, environment, file and default values.
// noCache drops the cache directory so nothing is read from or written to it.
func loadConfig(noCache bool) (types.Config, error) {
	var c types.Config
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	if noCache {
		c.Cache.Dir = ""
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
