// Package ledger provides the durable record of processed dataset folders
// and emitted trajectories.
//
// The ledger is the single source of truth for "already done". It lives in a
// single JSON file next to the data it tracks; there is no database server.
// Saves are atomic (temp file + rename), so a crash mid-save leaves either
// the old complete file or the new complete file on disk.
package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/skywatch-data/trajectory.report/internal/fsutil"
)

// Ledger tracks which (station, relative path) units have been processed and
// which trajectories have been recorded. All methods are safe for concurrent
// use; loading units and solving groups run in parallel, and the ledger is
// the only shared mutable resource between them.
type Ledger struct {
	mu   sync.Mutex
	fs   fsutil.FileSystem
	path string

	processed    map[string]map[string]bool
	trajectories map[string]json.RawMessage
}

// diskLedger is the explicit on-disk shape. Keeping it separate from the
// in-memory representation makes the serialization mapping, and the atomic
// write discipline around it, independent of how lookups are organized.
type diskLedger struct {
	ProcessedDirs map[string][]string        `json:"processed_dirs"`
	Trajectories  map[string]json.RawMessage `json:"trajectories"`
}

// Load reads the ledger file at path, or starts an empty ledger when the
// file does not exist. A file that exists but cannot be parsed is a fatal
// error: silently dropping it would cause mass reprocessing.
func Load(fs fsutil.FileSystem, path string) (*Ledger, error) {
	l := &Ledger{
		fs:           fs,
		path:         path,
		processed:    make(map[string]map[string]bool),
		trajectories: make(map[string]json.RawMessage),
	}

	if !fs.Exists(path) {
		return l, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	var disk diskLedger
	if err := json.Unmarshal(data, &disk); err != nil {
		return nil, fmt.Errorf("ledger %s is corrupt: %w", path, err)
	}

	for stationID, paths := range disk.ProcessedDirs {
		set := make(map[string]bool, len(paths))
		for _, p := range paths {
			set[p] = true
		}
		l.processed[stationID] = set
	}
	for key, summary := range disk.Trajectories {
		l.trajectories[key] = summary
	}

	return l, nil
}

// Path returns the file path the ledger persists to.
func (l *Ledger) Path() string {
	return l.path
}

// IsProcessed reports whether the unit has already been processed.
func (l *Ledger) IsProcessed(stationID, relPath string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.processed[stationID][relPath]
}

// EnsureStation registers a station key with no processed units. Marking an
// already known station is a no-op.
func (l *Ledger) EnsureStation(stationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.processed[stationID]; !ok {
		l.processed[stationID] = make(map[string]bool)
	}
}

// MarkProcessed records a unit as processed. Idempotent: marking a unit that
// is already present is a no-op, not an error. Once marked, a unit is never
// unmarked.
func (l *Ledger) MarkProcessed(stationID, relPath string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.processed[stationID]
	if !ok {
		set = make(map[string]bool)
		l.processed[stationID] = set
	}
	set[relPath] = true
}

// RecordTrajectory records a trajectory summary under the given key. The
// insert is at-most-once: a duplicate key keeps the first recorded value.
func (l *Ledger) RecordTrajectory(key string, summary json.RawMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.trajectories[key]; ok {
		return
	}
	stored := make(json.RawMessage, len(summary))
	copy(stored, summary)
	l.trajectories[key] = stored
}

// Stations returns the registered station codes, sorted.
func (l *Ledger) Stations() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	stations := make([]string, 0, len(l.processed))
	for s := range l.processed {
		stations = append(stations, s)
	}
	sort.Strings(stations)
	return stations
}

// ProcessedCount returns the total number of processed units across all
// stations.
func (l *Ledger) ProcessedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, set := range l.processed {
		n += len(set)
	}
	return n
}

// Trajectories returns a copy of the recorded trajectory summaries.
func (l *Ledger) Trajectories() map[string]json.RawMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]json.RawMessage, len(l.trajectories))
	for k, v := range l.trajectories {
		c := make(json.RawMessage, len(v))
		copy(c, v)
		out[k] = c
	}
	return out
}

// Save writes the ledger to its file atomically. The serialized form is
// deterministic (sorted keys and path lists) so an unchanged ledger produces
// a byte-identical file.
func (l *Ledger) Save() error {
	l.mu.Lock()
	disk := diskLedger{
		ProcessedDirs: make(map[string][]string, len(l.processed)),
		Trajectories:  make(map[string]json.RawMessage, len(l.trajectories)),
	}
	for stationID, set := range l.processed {
		paths := make([]string, 0, len(set))
		for p := range set {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		disk.ProcessedDirs[stationID] = paths
	}
	for k, v := range l.trajectories {
		disk.Trajectories[k] = v
	}
	l.mu.Unlock()

	// Serialization and the file write happen outside the critical
	// section; the disk snapshot is already detached.
	data, err := json.MarshalIndent(disk, "", "    ")
	if err != nil {
		return fmt.Errorf("serialize ledger: %w", err)
	}
	data = append(data, '\n')

	if err := l.fs.WriteFileAtomic(l.path, data, 0644); err != nil {
		return fmt.Errorf("write ledger %s: %w", l.path, err)
	}
	return nil
}
