// Package services wires the mail fetcher, extractor, aggregator, persistence
// and object store sync into runs, and feeds the dashboard.
package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/synthesis-tracker/internal/config"
	"github.com/j-veylop/synthesis-tracker/internal/db"
	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/services/aggregate"
	"github.com/j-veylop/synthesis-tracker/internal/services/extract"
	"github.com/j-veylop/synthesis-tracker/internal/services/mail"
	"github.com/j-veylop/synthesis-tracker/internal/services/notify"
	"github.com/j-veylop/synthesis-tracker/internal/services/persist"
	"github.com/j-veylop/synthesis-tracker/internal/services/storage"
)

// runHistoryLimit is how many runs are kept in the database.
const runHistoryLimit = 1000

// MessageSource yields raw report emails. Err reports a fatal fetch error
// once iteration has finished.
type MessageSource interface {
	Messages() iter.Seq[models.RawMessage]
	Err() error
}

// RunReport describes the outcome of a run.
type RunReport struct {
	SyncErr  error
	Dataset  *models.Dataset
	Warnings []extract.ParseWarning
	Run      models.Run
	Fetch    mail.Stats
}

// Manager runs the extract and sync pipeline.
type Manager struct {
	cfg       *config.Config
	paths     persist.Paths
	database  *db.DB
	notifier  *notify.Notifier
	store     storage.Store
	newSource func(mail.Config) MessageSource
	now       func() time.Time
}

// NewManager creates a new pipeline manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Manager{
		cfg:      cfg,
		paths:    persist.Paths{Dir: cfg.DataDir},
		database: database,
		notifier: notify.New(cfg.Notifications, cfg.TargetWeekly),
		newSource: func(c mail.Config) MessageSource {
			return mail.New(c)
		},
		now: time.Now,
	}, nil
}

// Database returns the run history database.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Paths returns the local document locations.
func (m *Manager) Paths() persist.Paths {
	return m.paths
}

// Extract fetches, extracts and aggregates the reports and writes the local
// documents. The run is recorded with the upload skipped.
func (m *Manager) Extract(ctx context.Context) (*RunReport, error) {
	report, err := m.extract(ctx)
	m.finish(ctx, report, err)
	return report, err
}

// Run extracts and then uploads the documents. An upload failure does not
// fail the run; it is returned in RunReport.SyncErr.
func (m *Manager) Run(ctx context.Context) (*RunReport, error) {
	report, err := m.extract(ctx)
	if err == nil {
		report.SyncErr = m.Sync(ctx)
		if report.SyncErr != nil {
			report.Run.SyncStatus = models.SyncFailed
			logger.Error("Sync failed; local files are up to date", "error", report.SyncErr)
		} else {
			report.Run.SyncStatus = models.SyncOK
		}
	}
	m.finish(ctx, report, err)
	return report, err
}

// Sync uploads the documents already written to the data directory.
func (m *Manager) Sync(ctx context.Context) error {
	docs, err := m.paths.Read()
	if err != nil {
		return fmt.Errorf("nothing to sync: %w", err)
	}

	store, err := m.objectStore(ctx)
	if err != nil {
		return err
	}

	syncer := storage.NewSyncer(store, m.cfg.SyncRetries, m.cfg.SyncBackoff)
	if err := syncer.Upload(ctx, Objects(docs)); err != nil {
		return err
	}
	logger.Info("Sync complete", "bucket", m.cfg.Bucket)
	return nil
}

// Objects maps the rendered documents to object store uploads.
func Objects(docs *persist.Documents) []storage.Object {
	objects := []storage.Object{
		{Key: persist.DataFileName, Body: docs.Data, ContentType: "application/json"},
		{Key: persist.LatestFileName, Body: docs.Latest, ContentType: "application/json"},
	}
	if len(docs.HTML) > 0 {
		objects = append(objects, storage.Object{
			Key: persist.HTMLFileName, Body: docs.HTML, ContentType: "text/html; charset=utf-8",
		})
	}
	return objects
}

// RecentRuns returns the latest recorded runs, newest first.
func (m *Manager) RecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	return m.database.RecentRuns(ctx, limit)
}

// Close releases the database.
func (m *Manager) Close() error {
	if m.database != nil {
		return m.database.Close()
	}
	return nil
}

func (m *Manager) extract(ctx context.Context) (*RunReport, error) {
	report := &RunReport{Run: models.Run{
		ID:         uuid.NewString(),
		StartedAt:  m.now(),
		SyncStatus: models.SyncSkipped,
	}}

	if err := m.cfg.ValidateMail(); err != nil {
		return report, err
	}

	previous, err := persist.Load(m.paths.DataFile())
	if err != nil {
		logger.Warn("Ignoring unreadable previous dataset", "error", err)
		previous = nil
	}

	logger.Info("Fetching reports", "server", m.cfg.IMAPAddress(), "mailbox", m.cfg.Mailbox)
	src := m.newSource(MailConfig(m.cfg))
	ex := extract.New(extract.Config{
		SessionSubject:  m.cfg.SessionSubject,
		ProgressSubject: m.cfg.ProgressSubject,
	})

	goals := aggregate.Goals{Weekly: m.cfg.TargetWeekly, Stretch: m.cfg.StretchWeekly}
	ds := aggregate.Build(ex.Records(withContext(ctx, src.Messages())), goals, m.now())

	if stats, ok := src.(interface{ Stats() mail.Stats }); ok {
		report.Fetch = stats.Stats()
	}
	report.Warnings = ex.Warnings()
	report.Run.Messages = report.Fetch.Fetched
	report.Run.Warnings = len(report.Warnings)
	report.Run.Dropped = ex.Dropped()

	if err := src.Err(); err != nil {
		return report, fmt.Errorf("fetch reports: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.Dataset = ds
	report.Run.Sessions = len(ds.Sessions)
	report.Run.Weeks = len(ds.Progress)
	report.Run.TotalMinutes = ds.Summary.TotalMinutes

	docs, err := persist.Render(ds, aggregate.Latest(ds))
	if err != nil {
		return report, err
	}
	if err := m.paths.Write(docs); err != nil {
		if errors.Is(err, persist.ErrDatasetWrite) {
			return report, err
		}
		logger.Warn("Derived documents not fully written", "error", err)
	}

	logger.Info("Extraction complete",
		"sessions", report.Run.Sessions,
		"weeks", report.Run.Weeks,
		"warnings", report.Run.Warnings,
		"dropped", report.Run.Dropped,
		"path", m.paths.DataFile())

	m.notifier.WeekCompleted(previous, ds)
	return report, nil
}

// finish records the run and reports fatal errors.
func (m *Manager) finish(ctx context.Context, report *RunReport, err error) {
	report.Run.FinishedAt = m.now()
	if err != nil {
		report.Run.Error = err.Error()
		m.notifier.RunFailed(err)
	}

	// The run is recorded even when ctx was canceled.
	recordCtx := context.WithoutCancel(ctx)
	if err := m.database.InsertRun(recordCtx, &report.Run); err != nil {
		logger.Error("Failed to record run", "id", report.Run.ID, "error", err)
		return
	}
	pruned, err := m.database.PruneRuns(recordCtx, runHistoryLimit)
	if err != nil {
		logger.Warn("Failed to prune run history", "error", err)
		return
	}
	if pruned > 0 {
		if err := m.database.Vacuum(recordCtx); err != nil {
			logger.Warn("Failed to vacuum run history", "error", err)
		}
	}
}

func (m *Manager) objectStore(ctx context.Context) (storage.Store, error) {
	if m.store != nil {
		return m.store, nil
	}
	store, err := NewObjectStore(ctx, m.cfg)
	if err != nil {
		return nil, err
	}
	m.store = store
	return store, nil
}

// NewObjectStore connects to the configured bucket, creating it first when
// EnsureBucket is set.
func NewObjectStore(ctx context.Context, cfg *config.Config) (*storage.S3Store, error) {
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:   cfg.Bucket,
		Region:   cfg.Region,
		Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		return nil, err
	}
	if cfg.EnsureBucket {
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// MailConfig derives the fetcher settings from the application config.
func MailConfig(cfg *config.Config) mail.Config {
	return mail.Config{
		Server:    cfg.IMAPServer,
		Port:      cfg.IMAPPort,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Mailbox:   cfg.Mailbox,
		UseTLS:    cfg.IMAPUseTLS,
		Sender:    cfg.SenderFilter,
		Subjects:  []string{cfg.SessionSubject, cfg.ProgressSubject},
		Limit:     cfg.FetchLimit,
		BatchSize: cfg.BatchSize,
		Timeout:   cfg.IMAPTimeout,
	}
}

// withContext stops seq once ctx is done.
func withContext[T any](ctx context.Context, seq iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			if ctx.Err() != nil || !yield(v) {
				return
			}
		}
	}
}
