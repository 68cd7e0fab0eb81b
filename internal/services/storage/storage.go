// Package storage mirrors the published documents to an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/synthesis-tracker/internal/logger"
)

// ErrNotFound is returned by Store.Get for missing keys.
var ErrNotFound = errors.New("object not found")

// Store is the subset of an object store the tracker needs. Put overwrites
// existing objects.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Object is one document to upload.
type Object struct {
	Key         string
	ContentType string
	Body        []byte
}

// SyncError reports an object that could not be uploaded after retries.
type SyncError struct {
	Err      error
	Key      string
	Attempts int
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("upload %s failed after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Syncer uploads objects with bounded retries and exponential backoff.
type Syncer struct {
	store   Store
	sleep   func(ctx context.Context, d time.Duration) error
	retries int
	backoff time.Duration
}

// NewSyncer creates a Syncer making at most attempts tries per object,
// waiting backoff before the second try and doubling after each failure.
func NewSyncer(store Store, attempts int, backoff time.Duration) *Syncer {
	if attempts < 1 {
		attempts = 1
	}
	return &Syncer{
		store:   store,
		retries: attempts,
		backoff: backoff,
		sleep:   sleepContext,
	}
}

// Upload puts every object, continuing past failures. The returned error
// joins one *SyncError per failed object.
func (s *Syncer) Upload(ctx context.Context, objects []Object) error {
	var errs []error
	for _, obj := range objects {
		if err := s.put(ctx, obj); err != nil {
			logger.Error("Upload failed", "key", obj.Key, "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Info("Uploaded", "key", obj.Key, "bytes", len(obj.Body))
	}
	return errors.Join(errs...)
}

func (s *Syncer) put(ctx context.Context, obj Object) error {
	var err error
	backoff := s.backoff
	attempts := 0

	for i := range s.retries {
		attempts++
		err = s.store.Put(ctx, obj.Key, obj.Body, obj.ContentType)
		if err == nil {
			return nil
		}
		logger.Warn("Upload attempt failed", "key", obj.Key, "attempt", i+1, "error", err)

		if i < s.retries-1 {
			if sleepErr := s.sleep(ctx, backoff); sleepErr != nil {
				err = sleepErr
				break
			}
			backoff *= 2
		}
	}
	return &SyncError{Key: obj.Key, Attempts: attempts, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
