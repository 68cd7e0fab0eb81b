package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/synthesis-tracker/internal/models"
)

func sampleDataset() *models.Dataset {
	week := models.WeeklyProgress{
		WeekStart: "2025-09-07",
		DailyMinutes: map[string]float64{
			"Sunday": 10, "Monday": 0, "Tuesday": 15, "Wednesday": 20,
			"Thursday": 0, "Friday": 5, "Saturday": 30,
		},
		Games:                []models.Game{{Name: "Fraction Pop", DurationMinutes: 3.3, Day: "Friday"}},
		LessonsInProgress:    []string{"Equivalent Fractions"},
		TotalMinutes:         80,
		ReportedTotalMinutes: 80,
	}
	return &models.Dataset{
		Sessions: []models.Session{{
			Day: "Saturday", Time: "4:44pm", Topic: "Fractions <& friends>",
			DurationMinutes: 37.8, Activities: []string{"Compared unit fractions"},
			Date: "2025-09-13T16:44:00Z",
		}},
		Progress: []models.WeeklyProgress{week},
		Summary: models.Summary{
			TotalSessions:        1,
			TotalMinutes:         37.8,
			AverageMinutes:       37.8,
			TotalWeeks:           1,
			WeeklyAverageMinutes: 80,
			DailyAverageMinutes:  80.0 / 7,
			Last4WeeksAverage:    80,
			Last7DaysTotal:       80,
			PaceVsTarget:         133.33333333333334,
			LastUpdated:          time.Date(2025, 9, 16, 6, 0, 0, 123456789, time.UTC),
		},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	ds := sampleDataset()

	data, err := Encode(ds)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if !reflect.DeepEqual(got, ds) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, ds)
	}
}

func TestEncode_Schema(t *testing.T) {
	data, err := Encode(&models.Dataset{})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"sessions", "progress", "summary"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}
	if string(raw["sessions"]) != "[]" || string(raw["progress"]) != "[]" {
		t.Errorf("empty views should encode as arrays, got %s and %s", raw["sessions"], raw["progress"])
	}

	var summary map[string]any
	if err := json.Unmarshal(raw["summary"], &summary); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"total_sessions", "total_minutes", "average_minutes", "total_weeks",
		"weekly_average_minutes", "last_updated"} {
		if _, ok := summary[key]; !ok {
			t.Errorf("summary missing %q", key)
		}
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("Decode() should fail on invalid JSON")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, DataFileName)

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of missing file failed: %v", err)
	}
	if !ds.IsEmpty() {
		t.Error("missing file should load as an empty dataset")
	}

	data, _ := Encode(sampleDataset())
	if err := WriteFile(path, data); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	ds, err = Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(ds.Sessions) != 1 || len(ds.Progress) != 1 {
		t.Errorf("unexpected dataset: %+v", ds)
	}
}

func TestWriteFile_Atomic(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "out.json")

	if err := WriteFile(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if err := WriteFile(path, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("WriteFile() overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":2}` {
		t.Errorf("content = %s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain")
	}
}

func TestPaths_WriteRead(t *testing.T) {
	paths := Paths{Dir: t.TempDir()}
	ds := sampleDataset()

	docs, err := Render(ds, models.Latest{LastUpdated: ds.Summary.LastUpdated})
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if err := paths.Write(docs); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	for _, p := range []string{paths.DataFile(), paths.LatestFile(), paths.HTMLFile()} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s not written: %v", p, err)
		}
	}

	read, err := paths.Read()
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if string(read.Data) != string(docs.Data) || string(read.Latest) != string(docs.Latest) {
		t.Error("read documents differ from written ones")
	}

	var latest map[string]json.RawMessage
	if err := json.Unmarshal(read.Latest, &latest); err != nil {
		t.Fatal(err)
	}
	if _, ok := latest["last_updated"]; !ok {
		t.Error("latest.json missing last_updated")
	}
	if _, ok := latest["recent_summary"]; !ok {
		t.Error("latest.json missing recent_summary")
	}
}

func TestPaths_ReadMissing(t *testing.T) {
	if _, err := (Paths{Dir: t.TempDir()}).Read(); err == nil {
		t.Error("Read() should fail before any run wrote the dataset")
	}
}

func TestPaths_WriteFailsOnBadDir(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := Paths{Dir: blocker}.Write(&Documents{Data: []byte("{}")})
	if err == nil || !strings.Contains(err.Error(), DataFileName) {
		t.Errorf("Write() error = %v, want dataset write failure", err)
	}
	if !errors.Is(err, ErrDatasetWrite) {
		t.Errorf("Write() error = %v, want ErrDatasetWrite", err)
	}
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML(sampleDataset())
	if err != nil {
		t.Fatalf("RenderHTML() failed: %v", err)
	}
	html := string(page)
	for _, want := range []string{"Synthesis Tracker", "2025-09-07", "Fractions &lt;&amp; friends&gt;", "37.8", "<th>Sun</th>"} {
		if !strings.Contains(html, want) {
			t.Errorf("snapshot missing %q", want)
		}
	}

	empty, err := RenderHTML(nil)
	if err != nil {
		t.Fatalf("RenderHTML(nil) failed: %v", err)
	}
	if !strings.Contains(string(empty), "No sessions yet.") || !strings.Contains(string(empty), "never") {
		t.Error("empty snapshot should render placeholders")
	}
}
