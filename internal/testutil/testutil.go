// Package testutil provides shared test fixtures for the correlation
// pipeline: canned detection files, seeded station trees, and small
// assertion helpers.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/skywatch-data/trajectory.report/internal/fsutil"
	"github.com/skywatch-data/trajectory.report/internal/julian"
	"github.com/skywatch-data/trajectory.report/internal/meteor"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// DetectionJSON builds an RMS-style detection file for a short, fully
// in-FOV track whose mean time equals meanTime. The track is linear and
// well inside a 720x576 frame so field-of-view trimming keeps all picks.
func DetectionJSON(stationID string, meanTime time.Time) []byte {
	// Four picks at 0..3 s; the mean relative time is 1.5 s.
	reference := meanTime.Add(-1500 * time.Millisecond)
	jd := julian.FromTime(reference)

	return []byte(fmt.Sprintf(`{
  "jdt_ref": %.8f,
  "fps": 25.0,
  "station": {"station_id": %q, "lat": 45.0, "lon": 13.0, "elev": 100.0},
  "x_res": 720,
  "y_res": 576,
  "centroids": [
    [0.0, 100.0, 200.0, 10.0, 20.0, 500.0, 3.5],
    [1.0, 110.0, 205.0, 10.5, 20.5, 600.0, 3.2],
    [2.0, 120.0, 210.0, 11.0, 21.0, 550.0, 3.0],
    [3.0, 130.0, 215.0, 11.5, 21.5, 450.0, 3.3]
  ]
}`, jd, stationID))
}

// SeedNight writes a dataset folder with the given files into fs and
// returns its relative path.
func SeedNight(t *testing.T, fs *fsutil.MemoryFileSystem, root, stationID, night string, files map[string][]byte) string {
	t.Helper()
	dir := filepath.Join(root, stationID, night)
	AssertNoError(t, fs.MkdirAll(dir, 0755))
	for name, data := range files {
		AssertNoError(t, fs.WriteFileAtomic(filepath.Join(dir, name), data, 0644))
	}
	return filepath.Join(stationID, night)
}

// Observation builds a valid, in-FOV observation with the given station and
// mean time, for tests that do not care about pick contents.
func Observation(t *testing.T, stationID string, meanTime time.Time) *meteor.Observation {
	t.Helper()
	// Four picks at 0..3 s; mean relative time 1.5 s.
	reference := meanTime.Add(-1500 * time.Millisecond)
	picks := []meteor.Pick{
		{Frame: 0, TimeRel: 0.0, X: 100, Y: 200},
		{Frame: 25, TimeRel: 1.0, X: 110, Y: 205},
		{Frame: 50, TimeRel: 2.0, X: 120, Y: 210},
		{Frame: 75, TimeRel: 3.0, X: 130, Y: 215},
	}
	obs, err := meteor.NewObservation(stationID, reference, picks, meteor.Geodetic{LatDeg: 45, LonDeg: 13, ElevM: 100}, 720, 576)
	AssertNoError(t, err)
	return obs
}
