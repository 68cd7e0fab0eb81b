package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

func runsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent extract and sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.manager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			runs, err := mgr.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load runs: %w", err)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max runs to show")

	return cmd
}

func printRuns(w io.Writer, runs []models.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "DURATION", "SESSIONS", "WEEKS", "WARNINGS", "SYNC", "ERROR")
	for _, run := range runs {
		t.Row(
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Duration().Round(time.Millisecond).String(),
			strconv.Itoa(run.Sessions),
			strconv.Itoa(run.Weeks),
			strconv.Itoa(run.Warnings),
			string(run.SyncStatus),
			run.Error,
		)
	}
	fmt.Fprintln(w, t.Render())
}
