package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/synthesis-tracker/internal/app"
	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/services"
	"github.com/j-veylop/synthesis-tracker/internal/services/storage"
	"github.com/j-veylop/synthesis-tracker/internal/ui/tabs/info"
	"github.com/j-veylop/synthesis-tracker/internal/ui/tabs/overview"
	"github.com/j-veylop/synthesis-tracker/internal/ui/tabs/sessions"
	"github.com/j-veylop/synthesis-tracker/internal/ui/tabs/weekly"
)

const dashboardLogFile = "dashboard.log"

func dashboardCmd(c *cli) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Browse sessions and weekly progress in the terminal",
		Long: `Opens the terminal dashboard on synthesis_data.json in the data directory.
The dashboard reloads when the file changes. With --remote the dataset is read
from the configured S3 bucket instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDashboard(cmd, remote)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Read the dataset from the S3 bucket")

	return cmd
}

func (c *cli) runDashboard(cmd *cobra.Command, remote bool) error {
	ctx := cmd.Context()

	// The alternate screen owns the terminal; log to a file instead.
	logPath := filepath.Join(c.cfg.DataDir, dashboardLogFile)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger.Setup(logFile, c.cfg.LogLevel, c.cfg.LogFormat)

	var store storage.Store
	if remote {
		s3, err := services.NewObjectStore(ctx, c.cfg)
		if err != nil {
			return fmt.Errorf("connect to bucket: %w", err)
		}
		store = s3
	}

	dash, err := services.NewDashboard(ctx, c.cfg, store)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	defer func() {
		if err := dash.Close(); err != nil {
			logger.Warn("Error closing dashboard", "error", err)
		}
	}()

	model := app.NewModel(dash)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		overview.New(state, c.cfg),
		sessions.New(state),
		weekly.New(state, c.cfg),
		info.New(state, c.cfg),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
