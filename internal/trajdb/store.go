package trajdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trajectory is one archived trajectory summary row.
type Trajectory struct {
	// ID is a generated row identifier.
	ID string `json:"id"`

	// Key is the ledger key (formatted reference Julian date). Unique.
	Key string `json:"key"`

	// RefTimeNs is the trajectory reference instant, unix nanoseconds.
	RefTimeNs int64 `json:"ref_time_ns"`

	// Summary is the opaque solver output copied from the ledger.
	Summary json.RawMessage `json:"summary"`

	// ImportedAtNs records when the row was archived.
	ImportedAtNs int64 `json:"imported_at_ns"`
}

// Store provides persistence for archived trajectories.
type Store struct {
	db *DB
}

// NewStore creates a Store backed by the given database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Insert archives one trajectory. Inserting a key that already exists is a
// no-op, mirroring the ledger's at-most-once recording; it reports whether a
// row was written.
func (s *Store) Insert(traj *Trajectory) (bool, error) {
	if traj.ID == "" {
		traj.ID = uuid.New().String()
	}
	if traj.ImportedAtNs == 0 {
		traj.ImportedAtNs = time.Now().UnixNano()
	}

	res, err := s.db.Exec(`
		INSERT INTO trajectories (id, key, ref_time_ns, summary_json, imported_at_ns)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, traj.ID, traj.Key, traj.RefTimeNs, string(traj.Summary), traj.ImportedAtNs)
	if err != nil {
		return false, fmt.Errorf("insert trajectory %s: %w", traj.Key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert trajectory %s: %w", traj.Key, err)
	}
	return n > 0, nil
}

// GetByKey retrieves an archived trajectory by its ledger key.
func (s *Store) GetByKey(key string) (*Trajectory, error) {
	var traj Trajectory
	var summary string
	err := s.db.QueryRow(`
		SELECT id, key, ref_time_ns, summary_json, imported_at_ns
		FROM trajectories
		WHERE key = ?
	`, key).Scan(&traj.ID, &traj.Key, &traj.RefTimeNs, &summary, &traj.ImportedAtNs)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trajectory %s not found", key)
	}
	if err != nil {
		return nil, fmt.Errorf("get trajectory %s: %w", key, err)
	}
	traj.Summary = json.RawMessage(summary)
	return &traj, nil
}

// List returns archived trajectories ordered by reference time, newest
// first, up to limit rows.
func (s *Store) List(limit int) ([]Trajectory, error) {
	rows, err := s.db.Query(`
		SELECT id, key, ref_time_ns, summary_json, imported_at_ns
		FROM trajectories
		ORDER BY ref_time_ns DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list trajectories: %w", err)
	}
	defer rows.Close()

	var trajectories []Trajectory
	for rows.Next() {
		var traj Trajectory
		var summary string
		if err := rows.Scan(&traj.ID, &traj.Key, &traj.RefTimeNs, &summary, &traj.ImportedAtNs); err != nil {
			return nil, fmt.Errorf("scan trajectory row: %w", err)
		}
		traj.Summary = json.RawMessage(summary)
		trajectories = append(trajectories, traj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trajectories: %w", err)
	}
	return trajectories, nil
}

// Count returns the number of archived trajectories.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM trajectories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trajectories: %w", err)
	}
	return n, nil
}
