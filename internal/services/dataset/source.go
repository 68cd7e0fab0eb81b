// Package dataset loads the published dataset for the dashboard and keeps it
// current while runs rewrite it.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/models"
	"github.com/j-veylop/synthesis-tracker/internal/services/persist"
	"github.com/j-veylop/synthesis-tracker/internal/services/storage"
)

// Event represents a dataset source event.
type Event struct {
	Error error
	Type  EventType
}

// EventType defines the type of dataset event.
type EventType int

const (
	EventLoaded EventType = iota
	EventChanged
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventLoaded:
		return "loaded"
	case EventChanged:
		return "changed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Options selects where the dataset is read from. When Store is set the
// dataset is downloaded and the local directory is not watched.
type Options struct {
	Store storage.Store
	Dir   string
	Watch bool
}

// Source holds the current dataset and reports reloads on its event channel.
type Source struct {
	mu            sync.RWMutex
	dataset       *models.Dataset
	loadedAt      time.Time
	store         storage.Store
	paths         persist.Paths
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// New loads the dataset and, for local sources with Watch set, starts
// watching the data file.
func New(ctx context.Context, opts Options) (*Source, error) {
	s := &Source{
		dataset:   &models.Dataset{},
		store:     opts.Store,
		paths:     persist.Paths{Dir: opts.Dir},
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if s.store == nil {
		if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	if err := s.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	if s.store == nil && opts.Watch {
		if err := s.startWatcher(); err != nil {
			return nil, fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	s.sendEvent(Event{Type: EventLoaded})

	return s, nil
}

// Events returns the event channel for subscribing to dataset changes.
func (s *Source) Events() <-chan Event {
	return s.eventChan
}

// Dataset returns the current dataset. Callers must not modify it.
func (s *Source) Dataset() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// LoadedAt returns when the dataset was last loaded.
func (s *Source) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Origin describes where the dataset comes from.
func (s *Source) Origin() string {
	if s.store != nil {
		if b, ok := s.store.(interface{ Bucket() string }); ok {
			return fmt.Sprintf("s3://%s/%s", b.Bucket(), persist.DataFileName)
		}
		return "object store"
	}
	return s.paths.DataFile()
}

// Reload reads the dataset again. A missing dataset loads as empty.
func (s *Source) Reload(ctx context.Context) error {
	ds, err := s.load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.dataset = ds
	s.loadedAt = time.Now()
	s.mu.Unlock()

	logger.Debug("Dataset loaded", "origin", s.Origin(), "sessions", len(ds.Sessions), "weeks", len(ds.Progress))
	return nil
}

func (s *Source) load(ctx context.Context) (*models.Dataset, error) {
	if s.store == nil {
		return persist.Load(s.paths.DataFile())
	}

	data, err := s.store.Get(ctx, persist.DataFileName)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.Dataset{}, nil
	}
	if err != nil {
		return nil, err
	}
	return persist.Decode(data)
}

// startWatcher starts the file system watcher.
func (s *Source) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory; runs replace the file by rename.
	if err := watcher.Add(s.paths.Dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Source) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != persist.DataFileName {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the dataset after a run rewrote it.
func (s *Source) handleFileChange() {
	if err := s.Reload(context.Background()); err != nil {
		logger.Warn("Failed to reload dataset", "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	s.sendEvent(Event{Type: EventChanged})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Source) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Source) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
