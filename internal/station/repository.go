// Package station discovers observing stations and their dataset folders on
// disk.
//
// The expected layout is one directory per station under a common root, each
// containing one dataset folder per observing night:
//
//	root/
//	    HR0001/
//	        HR0001_20190707_192835_241084_detected/
//	    HR0004/
//	        HR0004_20190707_193044_498581_detected/
package station

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/skywatch-data/trajectory.report/internal/fsutil"
	"github.com/skywatch-data/trajectory.report/internal/monitoring"
)

// DefaultStationPattern matches valid station codes: two uppercase letters
// followed by four uppercase letters or digits.
const DefaultStationPattern = `^[A-Z]{2}[A-Z0-9]{4}$`

// DefaultUnitTimeLayout is the timestamp format embedded in dataset folder
// names, taken from the second and third underscore-delimited tokens.
const DefaultUnitTimeLayout = "20060102_150405"

// Unit is one schedulable dataset folder (one station, one night).
type Unit struct {
	// StationID is the station code the folder belongs to.
	StationID string

	// RelPath is the folder path relative to the data root. It is the key
	// tracked by the processing ledger.
	RelPath string

	// AbsPath is the full path used to read the folder's files.
	AbsPath string

	// Timestamp is parsed from the folder name; nil when the name does not
	// carry a parseable date. Units without a timestamp are still
	// scheduled, they just cannot be filtered by time.
	Timestamp *time.Time
}

// Repository discovers stations and dataset folders under a data root.
type Repository struct {
	FS fsutil.FileSystem

	// StationPattern decides which top-level directories count as
	// stations. Defaults to DefaultStationPattern.
	StationPattern *regexp.Regexp

	// UnitTimeLayout is the time.Parse layout for folder-name timestamps.
	// Defaults to DefaultUnitTimeLayout.
	UnitTimeLayout string
}

// NewRepository creates a Repository with the default naming conventions.
func NewRepository(fs fsutil.FileSystem) *Repository {
	return &Repository{
		FS:             fs,
		StationPattern: regexp.MustCompile(DefaultStationPattern),
		UnitTimeLayout: DefaultUnitTimeLayout,
	}
}

// ListStations returns the station codes found under root, sorted by name.
// Entries that are not directories or do not match the station pattern are
// logged and skipped; that is filtering, not an error.
func (r *Repository) ListStations(root string) ([]string, error) {
	entries, err := r.FS.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read data root %s: %w", root, err)
	}

	var stations []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if r.StationPattern.MatchString(entry.Name()) {
			monitoring.Logf("using station: %s", entry.Name())
			stations = append(stations, entry.Name())
		} else {
			monitoring.Logf("skipping directory: %s", entry.Name())
		}
	}

	return stations, nil
}

// ListUnits returns every dataset folder under the given station directory.
// A folder whose name does not parse into a timestamp is kept with a nil
// Timestamp and a diagnostic; it must never be dropped here.
func (r *Repository) ListUnits(root, stationID string) ([]Unit, error) {
	stationPath := filepath.Join(root, stationID)
	entries, err := r.FS.ReadDir(stationPath)
	if err != nil {
		return nil, fmt.Errorf("read station directory %s: %w", stationPath, err)
	}

	var units []Unit
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		units = append(units, Unit{
			StationID: stationID,
			RelPath:   filepath.Join(stationID, entry.Name()),
			AbsPath:   filepath.Join(stationPath, entry.Name()),
			Timestamp: r.parseUnitTime(entry.Name()),
		})
	}

	return units, nil
}

// parseUnitTime extracts the night timestamp from a folder name like
// "HR0001_20190707_192835_241084_detected". Returns nil on any parse
// failure.
func (r *Repository) parseUnitTime(name string) *time.Time {
	tokens := strings.Split(name, "_")
	if len(tokens) < 3 {
		monitoring.Logf("could not parse the date of the dataset folder: %s", name)
		return nil
	}
	t, err := time.Parse(r.UnitTimeLayout, tokens[1]+"_"+tokens[2])
	if err != nil {
		monitoring.Logf("could not parse the date of the dataset folder: %s", name)
		return nil
	}
	return &t
}
