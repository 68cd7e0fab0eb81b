package models

import "time"

// SyncStatus describes the outcome of the upload step of a run.
type SyncStatus string

const (
	// SyncSkipped means the run did not reach or did not attempt the upload.
	SyncSkipped SyncStatus = "skipped"
	// SyncOK means every object was uploaded.
	SyncOK SyncStatus = "ok"
	// SyncFailed means at least one object failed after retries.
	SyncFailed SyncStatus = "failed"
)

// Run is one execution of the extract and sync pipeline.
type Run struct {
	StartedAt    time.Time
	FinishedAt   time.Time
	ID           string
	SyncStatus   SyncStatus
	Error        string
	Messages     int
	Sessions     int
	Weeks        int
	Warnings     int
	Dropped      int
	TotalMinutes float64
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run finished without a fatal error.
func (r Run) Succeeded() bool {
	return r.Error == ""
}
