// Package persist writes the dataset and its derived documents to the local
// data directory.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/j-veylop/synthesis-tracker/internal/logger"
	"github.com/j-veylop/synthesis-tracker/internal/models"
)

// Fixed document names, shared with the object store keys.
const (
	DataFileName   = "synthesis_data.json"
	LatestFileName = "latest.json"
	HTMLFileName   = "index.html"
)

// ErrDatasetWrite marks a failure to write the dataset itself, as opposed to
// one of the derived documents.
var ErrDatasetWrite = errors.New("dataset not written")

// Paths resolves the document locations inside a data directory.
type Paths struct {
	Dir string
}

// DataFile returns the path of the full dataset.
func (p Paths) DataFile() string { return filepath.Join(p.Dir, DataFileName) }

// LatestFile returns the path of the abbreviated latest document.
func (p Paths) LatestFile() string { return filepath.Join(p.Dir, LatestFileName) }

// HTMLFile returns the path of the static snapshot.
func (p Paths) HTMLFile() string { return filepath.Join(p.Dir, HTMLFileName) }

// Encode serializes a dataset as indented JSON.
func Encode(ds *models.Dataset) ([]byte, error) {
	if ds == nil {
		ds = &models.Dataset{}
	}
	out := *ds
	if out.Sessions == nil {
		out.Sessions = []models.Session{}
	}
	if out.Progress == nil {
		out.Progress = []models.WeeklyProgress{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataset: %w", err)
	}
	return data, nil
}

// Decode parses a dataset document.
func Decode(data []byte) (*models.Dataset, error) {
	var ds models.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return &ds, nil
}

// EncodeLatest serializes the latest document.
func EncodeLatest(latest models.Latest) ([]byte, error) {
	data, err := json.MarshalIndent(latest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal latest: %w", err)
	}
	return data, nil
}

// Load reads a dataset file. A missing file yields an empty dataset so
// consumers can start before the first run.
func Load(path string) (*models.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &models.Dataset{}, nil
		}
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return Decode(data)
}

// WriteFile replaces path atomically: the data goes to a temp file that is
// then renamed over the target.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Documents is the rendered set of files a run publishes.
type Documents struct {
	Data   []byte
	Latest []byte
	HTML   []byte
}

// Render produces every published document for ds.
func Render(ds *models.Dataset, latest models.Latest) (*Documents, error) {
	data, err := Encode(ds)
	if err != nil {
		return nil, err
	}
	latestData, err := EncodeLatest(latest)
	if err != nil {
		return nil, err
	}
	page, err := RenderHTML(ds)
	if err != nil {
		return nil, err
	}
	return &Documents{Data: data, Latest: latestData, HTML: page}, nil
}

// Write stores the documents. The dataset is written first; its failure is
// returned immediately. Failures of the secondary documents are logged and
// returned after every write has been attempted.
func (p Paths) Write(docs *Documents) error {
	if err := WriteFile(p.DataFile(), docs.Data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrDatasetWrite, DataFileName, err)
	}

	var errs []error
	if err := WriteFile(p.LatestFile(), docs.Latest); err != nil {
		logger.Warn("Failed to write latest summary", "error", err)
		errs = append(errs, fmt.Errorf("write %s: %w", LatestFileName, err))
	}
	if len(docs.HTML) > 0 {
		if err := WriteFile(p.HTMLFile(), docs.HTML); err != nil {
			logger.Warn("Failed to write HTML snapshot", "error", err)
			errs = append(errs, fmt.Errorf("write %s: %w", HTMLFileName, err))
		}
	}
	return errors.Join(errs...)
}

// Read loads previously written documents from disk. The HTML snapshot is
// optional.
func (p Paths) Read() (*Documents, error) {
	data, err := os.ReadFile(p.DataFile())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", DataFileName, err)
	}
	latest, err := os.ReadFile(p.LatestFile())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", LatestFileName, err)
	}
	page, err := os.ReadFile(p.HTMLFile())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", HTMLFileName, err)
	}
	return &Documents{Data: data, Latest: latest, HTML: page}, nil
}
