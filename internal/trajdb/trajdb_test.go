package trajdb

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/skywatch-data/trajectory.report/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "trajectories.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.MigrateUp("../../migrations"); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	return db
}

func sampleTrajectory(key string, refTime time.Time) *Trajectory {
	return &Trajectory{
		Key:       key,
		RefTimeNs: refTime.UnixNano(),
		Summary:   json.RawMessage(`{"v_init": 22000}`),
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.MigrateUp("../../migrations"); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}
}

func TestInsertAndGetByKey(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)

	refTime := time.Date(2019, 7, 7, 19, 28, 37, 0, time.UTC)
	wrote, err := store.Insert(sampleTrajectory("2458672.31154514", refTime))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !wrote {
		t.Error("Insert reported no write for a fresh key")
	}

	got, err := store.GetByKey("2458672.31154514")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got.ID == "" {
		t.Error("archived row has no generated ID")
	}
	if got.RefTimeNs != refTime.UnixNano() {
		t.Errorf("RefTimeNs = %d, want %d", got.RefTimeNs, refTime.UnixNano())
	}
	if string(got.Summary) != `{"v_init": 22000}` {
		t.Errorf("Summary = %s", got.Summary)
	}
	if got.ImportedAtNs == 0 {
		t.Error("ImportedAtNs was not stamped")
	}
}

func TestInsertDuplicateKeyIsNoOp(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	refTime := time.Date(2019, 7, 7, 19, 28, 37, 0, time.UTC)

	if _, err := store.Insert(sampleTrajectory("2458672.31154514", refTime)); err != nil {
		t.Fatal(err)
	}

	dup := sampleTrajectory("2458672.31154514", refTime)
	dup.Summary = json.RawMessage(`{"v_init": 99999}`)
	wrote, err := store.Insert(dup)
	if err != nil {
		t.Fatalf("duplicate Insert: %v", err)
	}
	if wrote {
		t.Error("duplicate Insert reported a write")
	}

	got, err := store.GetByKey("2458672.31154514")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Summary) != `{"v_init": 22000}` {
		t.Errorf("duplicate insert overwrote the original summary: %s", got.Summary)
	}
}

func TestGetByKeyMissing(t *testing.T) {
	store := NewStore(openTestDB(t))
	if _, err := store.GetByKey("no-such-key"); err == nil {
		t.Error("expected error for a missing key")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := NewStore(openTestDB(t))

	base := time.Date(2019, 7, 7, 19, 0, 0, 0, time.UTC)
	keys := []string{"2458672.1", "2458672.3", "2458672.2"}
	offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
	for i, key := range keys {
		if _, err := store.Insert(sampleTrajectory(key, base.Add(offsets[i]))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List returned %d rows, want 3", len(got))
	}
	wantOrder := []string{"2458672.3", "2458672.2", "2458672.1"}
	for i, want := range wantOrder {
		if got[i].Key != want {
			t.Errorf("row %d key = %s, want %s", i, got[i].Key, want)
		}
	}

	limited, err := store.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d rows", len(limited))
	}
}

func TestCount(t *testing.T) {
	store := NewStore(openTestDB(t))

	n, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Count = %d on an empty archive", n)
	}

	base := time.Date(2019, 7, 7, 19, 0, 0, 0, time.UTC)
	for i, key := range []string{"a", "b"} {
		if _, err := store.Insert(sampleTrajectory(key, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	n, err = store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}
