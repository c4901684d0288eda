package station

import (
	"path/filepath"
	"testing"

	"github.com/skywatch-data/trajectory.report/internal/fsutil"
	"github.com/skywatch-data/trajectory.report/internal/ledger"
)

func seedUnit(t *testing.T, fs *fsutil.MemoryFileSystem, root, stationID, night string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Join(root, stationID, night), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestFindUnprocessed(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	root := "/data"

	seedUnit(t, fs, root, "HR0001", "HR0001_20190707_192835_241084_detected")
	seedUnit(t, fs, root, "HR0001", "HR0001_20190708_192000_000000_detected")
	seedUnit(t, fs, root, "SI0001", "SI0001_20190707_192900_000000_detected")

	led, err := ledger.Load(fs, filepath.Join(root, "processed_trajectories.json"))
	if err != nil {
		t.Fatal(err)
	}
	// One unit was handled by a previous run.
	led.MarkProcessed("HR0001", filepath.Join("HR0001", "HR0001_20190707_192835_241084_detected"))

	d := &Discovery{Repo: NewRepository(fs), Ledger: led}
	units, skipped, err := d.FindUnprocessed(root)
	if err != nil {
		t.Fatalf("FindUnprocessed: %v", err)
	}

	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(units) != 2 {
		t.Fatalf("found %d units, want 2", len(units))
	}
	for _, u := range units {
		if led.IsProcessed(u.StationID, u.RelPath) {
			t.Errorf("unit %s is already processed but was returned", u.RelPath)
		}
	}
}

func TestFindUnprocessedRegistersEmptyStations(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	root := "/data"

	// A station directory with no dataset folders at all.
	if err := fs.MkdirAll(filepath.Join(root, "XX9999"), 0755); err != nil {
		t.Fatal(err)
	}

	led, err := ledger.Load(fs, filepath.Join(root, "processed_trajectories.json"))
	if err != nil {
		t.Fatal(err)
	}

	d := &Discovery{Repo: NewRepository(fs), Ledger: led}
	units, skipped, err := d.FindUnprocessed(root)
	if err != nil {
		t.Fatalf("FindUnprocessed: %v", err)
	}
	if len(units) != 0 || skipped != 0 {
		t.Errorf("units = %d, skipped = %d, want 0, 0", len(units), skipped)
	}

	// The station must still appear in the ledger key space.
	stations := led.Stations()
	if len(stations) != 1 || stations[0] != "XX9999" {
		t.Errorf("ledger stations = %v, want [XX9999]", stations)
	}
}
