// Package meteor defines the per-detection observation model shared by the
// discovery, pairing and solving stages.
package meteor

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ErrNoDetections reports that a dataset folder contains no usable detection
// files. Callers treat it as a unit-level condition: the folder is marked
// processed so it is never retried, but the run continues.
var ErrNoDetections = errors.New("no detection files found")

// Pick is a single centroid measurement within a detection.
type Pick struct {
	// Frame number since the beginning of the recording.
	Frame int

	// Time relative to the observation reference time, in seconds.
	TimeRel float64

	// Image coordinates, in pixels.
	X float64
	Y float64

	// Equatorial coordinates (J2000), in degrees.
	RA  float64
	Dec float64

	// Horizontal coordinates, in degrees. Azim is +E of due N.
	Azim float64
	Alt  float64

	// Apparent magnitude; nil when the detector did not estimate one.
	Mag *float64
}

// Geodetic is a station position.
type Geodetic struct {
	LatDeg float64
	LonDeg float64
	ElevM  float64
}

// Observation is one detected event seen from one station. It is built once
// from a dataset folder and immutable afterwards; the pick sequence it
// carries has already been trimmed by the field-of-view estimate.
type Observation struct {
	// StationID is the six-character station code.
	StationID string

	// ReferenceTime marks frame zero; pick times are relative to it.
	ReferenceTime time.Time

	// Picks is the trimmed centroid sequence, ordered by strictly
	// increasing frame number.
	Picks []Pick

	// Station is the geodetic position of the observing station.
	Station Geodetic

	// FrameWidth and FrameHeight are the sensor resolution in pixels.
	FrameWidth  int
	FrameHeight int

	// BeginsInFOV and EndsInFOV report whether the track is judged to
	// start and finish inside the optical field of view.
	BeginsInFOV bool
	EndsInFOV   bool

	// SourceUnit is the relative path of the dataset folder this
	// observation came from, kept for ledger bookkeeping.
	SourceUnit string

	meanTime time.Time
}

// NewObservation validates the raw pick sequence, estimates the field-of-view
// flags (trimming edge picks as needed), and derives the mean timestamp.
//
// The mean timestamp is computed over the raw, untrimmed sequence; trimming
// an edge pick must not shift the instant used for time pairing.
func NewObservation(stationID string, reference time.Time, picks []Pick, station Geodetic, frameW, frameH int) (*Observation, error) {
	if len(picks) < 2 {
		return nil, fmt.Errorf("observation from %s needs at least 2 picks, got %d", stationID, len(picks))
	}
	for i := 1; i < len(picks); i++ {
		if picks[i].Frame <= picks[i-1].Frame {
			return nil, fmt.Errorf("observation from %s has non-increasing frame numbers at index %d", stationID, i)
		}
	}

	times := make([]float64, len(picks))
	for i, p := range picks {
		times[i] = p.TimeRel
	}
	meanRel := stat.Mean(times, nil)

	begins, ends, trimmed := estimateFOV(picks, frameW, frameH)

	return &Observation{
		StationID:     stationID,
		ReferenceTime: reference,
		Picks:         trimmed,
		Station:       station,
		FrameWidth:    frameW,
		FrameHeight:   frameH,
		BeginsInFOV:   begins,
		EndsInFOV:     ends,
		meanTime:      reference.Add(time.Duration(meanRel * float64(time.Second))),
	}, nil
}

// MeanTime returns the mean timestamp of the observation, the instant used
// for time pairing across stations.
func (o *Observation) MeanTime() time.Time {
	return o.meanTime
}

// Duration returns the time span covered by the trimmed pick sequence.
func (o *Observation) Duration() float64 {
	if len(o.Picks) == 0 {
		return 0
	}
	return o.Picks[len(o.Picks)-1].TimeRel - o.Picks[0].TimeRel
}
