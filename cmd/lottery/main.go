// Package main is the entry point for the lottery deploy and interaction CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nathanTypo/lottery-pc/internal/app"
	"github.com/nathanTypo/lottery-pc/internal/config"
)

var (
	networkFlag string
	envFile     string
	logLevel    string
	jsonOut     bool

	// stdout receives command results.
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "lottery",
	Short: "Deploy and interact with the Lottery contract",
	Long: `Deploy the Lottery contract and its VRF coordinator mock, keep deployment
records, and interact with a deployed Lottery.

Networks: hardhat (in-process), localhost, goerli, ethereum, mumbai, polygon.

Examples:
  lottery deploy
  lottery deploy --network goerli --tags lottery
  lottery enter --network localhost
  lottery status --network goerli
  lottery networks`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to use (default from LOTTERY_NETWORK or hardhat)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies the persistent flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if networkFlag != "" {
		cfg.Network = networkFlag
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	// Keep stdout clean for --json results.
	out := os.Stdout
	if jsonOut {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// openApp loads configuration and opens the selected network. Callers must call
// closeApp when done.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	a, err := app.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// openDeployed opens the network and, on the in-process chain, deploys first.
func openDeployed(cmd *cobra.Command) (*app.App, error) {
	a, err := openApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.EnsureDeployed(cmd.Context()); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// closeApp flushes the gas report and metrics, then closes the app.
func closeApp(ctx context.Context, a *app.App) {
	if err := a.Finish(context.WithoutCancel(ctx)); err != nil {
		a.Logger.Warn("failed to finish run", slog.String("error", err.Error()))
	}
	if err := a.Close(); err != nil {
		a.Logger.Warn("failed to close", slog.String("error", err.Error()))
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
