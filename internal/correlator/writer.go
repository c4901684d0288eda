package correlator

import (
	"fmt"
	"path/filepath"

	"github.com/skywatch-data/trajectory.report/internal/fsutil"
)

// SummaryFileWriter persists each solved trajectory's opaque summary as a
// JSON file inside its output directory. Report and plot rendering are
// handled by external tooling reading these files.
type SummaryFileWriter struct {
	FS fsutil.FileSystem
}

// Persist writes the trajectory summary under outputDir.
func (w *SummaryFileWriter) Persist(traj *Trajectory, outputDir string) error {
	if len(traj.Summary) == 0 {
		return nil
	}
	if err := w.FS.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, "trajectory_summary.json")
	if err := w.FS.WriteFileAtomic(path, traj.Summary, 0644); err != nil {
		return fmt.Errorf("write trajectory summary %s: %w", path, err)
	}
	return nil
}
