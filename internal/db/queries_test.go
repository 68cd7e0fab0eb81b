package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

func TestInsertRun(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	start := time.Date(2025, 9, 16, 6, 0, 0, 0, time.UTC)
	run := &models.Run{
		ID:           "run-1",
		StartedAt:    start,
		FinishedAt:   start.Add(42 * time.Second),
		SyncStatus:   models.SyncOK,
		Messages:     12,
		Sessions:     9,
		Weeks:        3,
		Warnings:     2,
		Dropped:      1,
		TotalMinutes: 321.5,
	}
	if err := db.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun() failed: %v", err)
	}

	got, err := db.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun() failed: %v", err)
	}
	if got == nil {
		t.Fatal("LastRun() returned nil")
	}
	if !got.StartedAt.Equal(run.StartedAt) || !got.FinishedAt.Equal(run.FinishedAt) {
		t.Errorf("times = %v..%v, want %v..%v", got.StartedAt, got.FinishedAt, run.StartedAt, run.FinishedAt)
	}
	gotRest, wantRest := *got, *run
	gotRest.StartedAt, gotRest.FinishedAt = time.Time{}, time.Time{}
	wantRest.StartedAt, wantRest.FinishedAt = time.Time{}, time.Time{}
	if gotRest != wantRest {
		t.Errorf("LastRun() = %+v, want %+v", gotRest, wantRest)
	}
	if got.Duration() != 42*time.Second {
		t.Errorf("Duration() = %v", got.Duration())
	}
}

func TestInsertRun_Defaults(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if err := db.InsertRun(ctx, &models.Run{}); err == nil {
		t.Error("InsertRun() without id should fail")
	}

	if err := db.InsertRun(ctx, &models.Run{ID: "run-1", Error: "imap login: denied"}); err != nil {
		t.Fatalf("InsertRun() failed: %v", err)
	}
	got, err := db.LastRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.SyncStatus != models.SyncSkipped {
		t.Errorf("SyncStatus = %q, want skipped", got.SyncStatus)
	}
	if got.StartedAt.IsZero() {
		t.Error("StartedAt should default to now")
	}
	if !got.FinishedAt.IsZero() {
		t.Error("FinishedAt should stay zero")
	}
	if got.Succeeded() {
		t.Error("run with error should not succeed")
	}
}

func TestInsertRun_Replace(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	run := &models.Run{ID: "run-1", StartedAt: time.Now(), SyncStatus: models.SyncSkipped}
	if err := db.InsertRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.SyncStatus = models.SyncFailed
	if err := db.InsertRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	runs, err := db.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].SyncStatus != models.SyncFailed {
		t.Errorf("RecentRuns() = %+v", runs)
	}
}

func TestRecentRuns(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC)
	for i := range 5 {
		run := &models.Run{
			ID:        fmt.Sprintf("run-%d", i),
			StartedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}
		if err := db.InsertRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}
	// Sub-second timestamps must still order after whole seconds.
	if err := db.InsertRun(ctx, &models.Run{ID: "run-late", StartedAt: base.Add(4*24*time.Hour + 500*time.Millisecond)}); err != nil {
		t.Fatal(err)
	}

	runs, err := db.RecentRuns(ctx, 3)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	want := []string{"run-late", "run-4", "run-3"}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d", len(runs), len(want))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Errorf("runs[%d] = %s, want %s", i, runs[i].ID, id)
		}
	}
}

func TestLastRun_Empty(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	run, err := db.LastRun(context.Background())
	if err != nil {
		t.Fatalf("LastRun() failed: %v", err)
	}
	if run != nil {
		t.Errorf("LastRun() = %+v, want nil", run)
	}
}

func TestLastSuccessfulRun(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC)
	_ = db.InsertRun(ctx, &models.Run{ID: "ok", StartedAt: base, Sessions: 4})
	_ = db.InsertRun(ctx, &models.Run{ID: "failed", StartedAt: base.Add(time.Hour), Error: "imap dial: timeout"})

	run, err := db.LastSuccessfulRun(ctx)
	if err != nil {
		t.Fatalf("LastSuccessfulRun() failed: %v", err)
	}
	if run == nil || run.ID != "ok" {
		t.Errorf("LastSuccessfulRun() = %+v, want ok", run)
	}
}

func TestPruneRuns(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC)
	for i := range 5 {
		_ = db.InsertRun(ctx, &models.Run{ID: fmt.Sprintf("run-%d", i), StartedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	removed, err := db.PruneRuns(ctx, 2)
	if err != nil {
		t.Fatalf("PruneRuns() failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	runs, _ := db.RecentRuns(ctx, 10)
	if len(runs) != 2 || runs[0].ID != "run-4" {
		t.Errorf("remaining runs = %+v", runs)
	}
}
