package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gradecard/backend/config"
	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/infrastructure/scrape"
	"github.com/gradecard/backend/internal/infrastructure/soda"
	"github.com/gradecard/backend/internal/logger"
	"github.com/gradecard/backend/internal/usecase"
	"github.com/spf13/cobra"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "gradecheck",
	Short: "gradecheck looks up NYC restaurant inspection grades",
	Long: `gradecheck resolves a restaurant to its most recent NYC health inspection
and prints the grade badge the browser extension would show.

Usage:
  gradecheck resolve --name <name> --address <address> --phone <phone> --site <site> [--zip <zip>]
  gradecheck page <url> [--html <file>]`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log each cascade stage to stderr")
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newInspectionService builds the resolution stack from configuration.
// Logs go to stderr so stdout stays valid JSON.
func newInspectionService() (*usecase.InspectionService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	log := logger.NewWithWriter(level, os.Stderr)

	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	client := soda.NewClient(soda.Options{
		BaseURL:           cfg.SODA.BaseURL,
		Dataset:           cfg.SODA.Dataset,
		AppToken:          cfg.SODA.AppToken,
		Timeout:           cfg.SODA.Timeout,
		MaxRetries:        cfg.SODA.MaxRetries,
		RequestsPerSecond: cfg.SODA.RequestsPerSecond,
	}, log)
	client.SetDebug(flagVerbose)

	service := usecase.NewInspectionService(client, scrape.NewRegistry(log), nil, nil, usecase.InspectionServiceConfig{
		ResolverTimeout: cfg.Resolver.Timeout,
		DisplayLocation: location,
	}, log)

	return service, nil
}

func printBadge(w io.Writer, badge *domain.Badge) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(badge)
}
