// Command synthesis-tracker extracts Synthesis Tutor session and progress
// reports from a mailbox, publishes the aggregate to object storage, and
// shows it in a terminal dashboard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/j-veylop/synthesis-tracker/internal/config"
	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/services"
	"github.com/j-veylop/synthesis-tracker/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries the state shared by all subcommands.
type cli struct {
	cfg        *config.Config
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "synthesis-tracker",
		Short: "Track Synthesis Tutor sessions and weekly progress from email reports",
		Long: `Fetches Synthesis Tutor report emails over IMAP, extracts sessions and
weekly progress, writes synthesis_data.json, latest.json and index.html to the
data directory and uploads them to the configured S3 bucket.

Run without a subcommand to extract and sync in one pass.`,
		Version:           version.Info(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
		RunE:              c.runPipeline,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "TOML config file (default ~/.config/synthesis-tracker/config.toml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(extractCmd(c))
	root.AddCommand(syncCmd(c))
	root.AddCommand(dashboardCmd(c))
	root.AddCommand(runsCmd(c))

	return root
}

// load reads the configuration and sets up logging before any subcommand runs.
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	if c.configFile != "" {
		if err := os.Setenv("SYNTHESIS_CONFIG", c.configFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	logger.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if cfg.ConfigFile != "" {
		logger.Debug("Loaded config file", "path", cfg.ConfigFile)
	}

	c.cfg = cfg
	return nil
}

func (c *cli) manager() (*services.Manager, error) {
	mgr, err := services.NewManager(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return mgr, nil
}

// runPipeline extracts and syncs. An upload failure is logged by the
// manager and does not change the exit status.
func (c *cli) runPipeline(cmd *cobra.Command, _ []string) error {
	mgr, err := c.manager()
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	report, err := mgr.Run(cmd.Context())
	printReport(cmd.OutOrStdout(), report)
	return err
}

func closeManager(mgr *services.Manager) {
	if err := mgr.Close(); err != nil {
		logger.Warn("Error closing services", "error", err)
	}
}

// printReport writes a short summary of a run.
func printReport(w io.Writer, report *services.RunReport) {
	if report == nil {
		return
	}
	run := report.Run

	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Messages: %d fetched, %d skipped\n", report.Fetch.Fetched, report.Fetch.Skipped)
	if !run.Succeeded() {
		fmt.Fprintf(w, "  Failed:   %s\n", run.Error)
		return
	}
	fmt.Fprintf(w, "  Sessions: %d\n", run.Sessions)
	fmt.Fprintf(w, "  Weeks:    %d\n", run.Weeks)
	fmt.Fprintf(w, "  Minutes:  %.1f\n", run.TotalMinutes)
	fmt.Fprintf(w, "  Warnings: %d (%d dropped)\n", run.Warnings, run.Dropped)
	for i := range report.Warnings {
		fmt.Fprintf(w, "    - %s\n", report.Warnings[i].Error())
	}
	fmt.Fprintf(w, "  Sync:     %s\n", run.SyncStatus)
}
