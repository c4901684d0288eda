// Package rmsjson parses per-meteor RMS JSON detection files.
//
// Each detection is one flat JSON file inside a night's dataset folder,
// holding the reference Julian date, the station calibration (position and
// sensor resolution), the capture frame rate, and a centroid table. This is
// the lightweight interchange format; the heavyweight FTPdetectinfo and
// platepar formats are handled by external tooling and are not parsed here.
package rmsjson

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/skywatch-data/trajectory.report/internal/fsutil"
	"github.com/skywatch-data/trajectory.report/internal/julian"
	"github.com/skywatch-data/trajectory.report/internal/meteor"
	"github.com/skywatch-data/trajectory.report/internal/monitoring"
)

// minCentroidColumns is the minimum width of a centroid row:
// [t_rel, x, y, ra, dec, intensity_sum] with an optional trailing mag.
const minCentroidColumns = 6

// detectionFile mirrors the on-disk RMS JSON schema.
type detectionFile struct {
	JdtRef  float64 `json:"jdt_ref"`
	FPS     float64 `json:"fps"`
	Station struct {
		StationID string  `json:"station_id"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		Elev      float64 `json:"elev"`
	} `json:"station"`
	XRes      int         `json:"x_res"`
	YRes      int         `json:"y_res"`
	Centroids [][]float64 `json:"centroids"`
}

// Parser reads every detection JSON file in a dataset folder and builds
// observations from them. Implements meteor.Parser.
type Parser struct {
	FS fsutil.FileSystem
}

// NewParser creates a Parser over the given filesystem.
func NewParser(fs fsutil.FileSystem) *Parser {
	return &Parser{FS: fs}
}

// Parse loads all detections from dir. A folder with no detection files at
// all yields meteor.ErrNoDetections; an individual file that fails to parse
// is logged and skipped.
func (p *Parser) Parse(dir string) ([]*meteor.Observation, error) {
	entries, err := p.FS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset folder %s: %w", dir, err)
	}

	var observations []*meteor.Observation
	found := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		found = true

		path := filepath.Join(dir, entry.Name())
		obs, err := p.parseFile(path)
		if err != nil {
			monitoring.Logf("skipping detection file %s: %v", path, err)
			continue
		}
		observations = append(observations, obs)
	}

	if !found {
		return nil, fmt.Errorf("%s: %w", dir, meteor.ErrNoDetections)
	}
	return observations, nil
}

func (p *Parser) parseFile(path string) (*meteor.Observation, error) {
	data, err := p.FS.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var df detectionFile
	if err := json.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse detection JSON: %w", err)
	}
	if df.Station.StationID == "" {
		return nil, fmt.Errorf("detection has no station_id")
	}
	if df.FPS <= 0 {
		return nil, fmt.Errorf("detection has non-positive fps %f", df.FPS)
	}

	picks := make([]meteor.Pick, 0, len(df.Centroids))
	for i, row := range df.Centroids {
		if len(row) < minCentroidColumns {
			return nil, fmt.Errorf("centroid row %d has %d columns, want at least %d", i, len(row), minCentroidColumns)
		}
		tRel := row[0]
		pick := meteor.Pick{
			Frame:   int(math.Round(tRel * df.FPS)),
			TimeRel: tRel,
			X:       row[1],
			Y:       row[2],
			RA:      row[3],
			Dec:     row[4],
		}
		// The magnitude column is optional; detectors that do not
		// estimate one omit it.
		if len(row) > minCentroidColumns {
			if mag := row[minCentroidColumns]; !math.IsNaN(mag) {
				pick.Mag = &mag
			}
		}
		picks = append(picks, pick)
	}

	return meteor.NewObservation(
		df.Station.StationID,
		julian.Time(df.JdtRef),
		picks,
		meteor.Geodetic{LatDeg: df.Station.Lat, LonDeg: df.Station.Lon, ElevM: df.Station.Elev},
		df.XRes,
		df.YRes,
	)
}
