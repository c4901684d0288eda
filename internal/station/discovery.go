package station

import (
	"github.com/skywatch-data/trajectory.report/internal/monitoring"
)

// ProcessedIndex is the view of the processing ledger that discovery needs.
type ProcessedIndex interface {
	// IsProcessed reports whether the (station, relative path) unit has
	// already been handled in a previous run.
	IsProcessed(stationID, relPath string) bool

	// EnsureStation registers a station in the ledger key space, so a
	// station appears in ledger inspections even before any of its units
	// is processed.
	EnsureStation(stationID string)
}

// Discovery cross-references the on-disk repository against the processing
// ledger to find the units that still need work.
type Discovery struct {
	Repo   *Repository
	Ledger ProcessedIndex
}

// FindUnprocessed walks every station under root and returns the units the
// ledger has not seen, along with the count of units skipped as already
// processed. Every discovered station is registered in the ledger eagerly.
func (d *Discovery) FindUnprocessed(root string) (units []Unit, skipped int, err error) {
	stations, err := d.Repo.ListStations(root)
	if err != nil {
		return nil, 0, err
	}

	for _, stationID := range stations {
		d.Ledger.EnsureStation(stationID)

		stationUnits, err := d.Repo.ListUnits(root, stationID)
		if err != nil {
			return nil, 0, err
		}

		for _, unit := range stationUnits {
			if d.Ledger.IsProcessed(unit.StationID, unit.RelPath) {
				skipped++
				continue
			}
			units = append(units, unit)
		}
	}

	if skipped > 0 {
		monitoring.Logf("skipped %d already processed dataset folders", skipped)
	}

	return units, skipped, nil
}
