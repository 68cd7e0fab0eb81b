package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/models"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, started_at, finished_at, sync_status, error,
	messages, sessions, weeks, warnings, dropped, total_minutes`

// InsertRun records a finished run. Recording the same ID twice replaces the
// earlier row.
func (db *DB) InsertRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		return errors.New("run has no id")
	}

	query := `
		INSERT OR REPLACE INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	status := run.SyncStatus
	if status == "" {
		status = models.SyncSkipped
	}

	_, err := db.ExecContext(ctx, query,
		run.ID,
		startedAt.UTC().Format(timeLayout),
		nullTime(run.FinishedAt),
		string(status),
		nullString(run.Error),
		run.Messages,
		run.Sessions,
		run.Weeks,
		run.Warnings,
		run.Dropped,
		run.TotalMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// LastRun returns the most recent run, or nil when none was recorded.
func (db *DB) LastRun(ctx context.Context) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT 1`

	run, err := scanRun(db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// LastSuccessfulRun returns the most recent run without a fatal error.
func (db *DB) LastSuccessfulRun(ctx context.Context) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE error IS NULL ORDER BY started_at DESC LIMIT 1`

	run, err := scanRun(db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// PruneRuns deletes all but the newest keep runs and returns how many were
// removed.
func (db *DB) PruneRuns(ctx context.Context, keep int) (int64, error) {
	result, err := db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run        models.Run
		startedAt  string
		finishedAt sql.NullString
		status     string
		errStr     sql.NullString
	)
	err := s.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&status,
		&errStr,
		&run.Messages,
		&run.Sessions,
		&run.Weeks,
		&run.Warnings,
		&run.Dropped,
		&run.TotalMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if finishedAt.Valid {
		run.FinishedAt, _ = time.Parse(timeLayout, finishedAt.String)
	}
	run.SyncStatus = models.SyncStatus(status)
	run.Error = errStr.String
	return &run, nil
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}
