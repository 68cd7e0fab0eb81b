package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/synthesis-tracker/internal/config"
	"github.com/j-veylop/synthesis-tracker/internal/db"
	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/services/dataset"
	"github.com/j-veylop/synthesis-tracker/internal/services/storage"
)

// recentRunLimit is how many runs the dashboard shows.
const recentRunLimit = 10

type (
	// DatasetChangedEvent is emitted when the dataset was loaded or reloaded.
	DatasetChangedEvent struct {
		LoadedAt time.Time
		Dataset  *models.Dataset
	}

	// RunsUpdatedEvent is emitted with the latest run history.
	RunsUpdatedEvent struct {
		Runs []models.Run
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DatasetChangedEvent) isServiceEvent() {}
func (RunsUpdatedEvent) isServiceEvent()    {}
func (ErrorEvent) isServiceEvent()          {}

// Dashboard feeds the TUI with the dataset and run history.
type Dashboard struct {
	mu          sync.RWMutex
	source      *dataset.Source
	database    *db.DB
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
}

// NewDashboard loads the dataset from the data directory, or from store when
// it is non-nil, and starts routing reload events. Run history is read from
// the database when it can be opened.
func NewDashboard(ctx context.Context, cfg *config.Config, store storage.Store) (*Dashboard, error) {
	source, err := dataset.New(ctx, dataset.Options{
		Dir:   cfg.DataDir,
		Store: store,
		Watch: store == nil,
	})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		source:   source,
		stopChan: make(chan struct{}),
	}

	d.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		logger.Warn("Run history unavailable", "error", err)
		d.database = nil
	}

	go d.routeEvents()

	return d, nil
}

// routeEvents routes events from the dataset source to subscribers.
func (d *Dashboard) routeEvents() {
	for {
		select {
		case event := <-d.source.Events():
			d.handleDatasetEvent(event)

		case <-d.stopChan:
			return
		}
	}
}

func (d *Dashboard) handleDatasetEvent(event dataset.Event) {
	switch event.Type {
	case dataset.EventLoaded, dataset.EventChanged:
		d.broadcast(DatasetChangedEvent{
			Dataset:  d.source.Dataset(),
			LoadedAt: d.source.LoadedAt(),
		})
		// A rewritten dataset means a run just finished.
		if runs, err := d.Runs(context.Background()); err == nil {
			d.broadcast(RunsUpdatedEvent{Runs: runs})
		}

	case dataset.EventError:
		d.broadcast(ErrorEvent{
			Service: "dataset",
			Error:   event.Error,
		})
	}
}

// broadcast sends an event to all subscribers.
func (d *Dashboard) broadcast(event ServiceEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, sub := range d.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (d *Dashboard) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	d.mu.Lock()
	d.subscribers = append(d.subscribers, ch)
	d.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Dataset returns the current dataset.
func (d *Dashboard) Dataset() *models.Dataset {
	return d.source.Dataset()
}

// LoadedAt returns when the dataset was last loaded.
func (d *Dashboard) LoadedAt() time.Time {
	return d.source.LoadedAt()
}

// Origin describes where the dataset is read from.
func (d *Dashboard) Origin() string {
	return d.source.Origin()
}

// Reload reads the dataset again and broadcasts the result.
func (d *Dashboard) Reload(ctx context.Context) error {
	if err := d.source.Reload(ctx); err != nil {
		d.broadcast(ErrorEvent{Service: "dataset", Error: err})
		return err
	}
	d.handleDatasetEvent(dataset.Event{Type: dataset.EventChanged})
	return nil
}

// Runs returns the recent run history. Without a database it is empty.
func (d *Dashboard) Runs(ctx context.Context) ([]models.Run, error) {
	if d.database == nil {
		return nil, nil
	}
	runs, err := d.database.RecentRuns(ctx, recentRunLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load run history: %w", err)
	}
	return runs, nil
}

// Close closes the dashboard and its services.
func (d *Dashboard) Close() error {
	close(d.stopChan)

	d.mu.Lock()
	for _, sub := range d.subscribers {
		close(sub)
	}
	d.subscribers = nil
	d.mu.Unlock()

	var errs []error

	if err := d.source.Close(); err != nil {
		errs = append(errs, err)
	}

	if d.database != nil {
		if err := d.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
