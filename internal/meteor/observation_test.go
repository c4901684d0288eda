package meteor

import (
	"testing"
	"time"
)

var testStation = Geodetic{LatDeg: 45.0, LonDeg: 13.0, ElevM: 100.0}

func TestNewObservationRejectsShortSequences(t *testing.T) {
	picks := []Pick{{Frame: 0, TimeRel: 0}}
	if _, err := NewObservation("HR0001", time.Now(), picks, testStation, 720, 576); err == nil {
		t.Error("expected error for a single-pick sequence")
	}
}

func TestNewObservationRejectsNonIncreasingFrames(t *testing.T) {
	picks := []Pick{
		{Frame: 0, TimeRel: 0.0, X: 100, Y: 100},
		{Frame: 5, TimeRel: 0.2, X: 110, Y: 105},
		{Frame: 5, TimeRel: 0.4, X: 120, Y: 110},
	}
	if _, err := NewObservation("HR0001", time.Now(), picks, testStation, 720, 576); err == nil {
		t.Error("expected error for repeated frame numbers")
	}
}

func TestNewObservationMeanTime(t *testing.T) {
	reference := time.Date(2019, 7, 7, 19, 28, 35, 0, time.UTC)
	obs, err := NewObservation("HR0001", reference, linearTrack(110, 5, 110, 5), testStation, 720, 576)
	if err != nil {
		t.Fatalf("NewObservation: %v", err)
	}

	// Relative times are 0, 0.04, ..., 0.16 s; their mean is 0.08 s.
	// Allow a little float slack from the mean computation.
	want := reference.Add(80 * time.Millisecond)
	if d := obs.MeanTime().Sub(want); d < -time.Microsecond || d > time.Microsecond {
		t.Errorf("MeanTime() = %v, want %v", obs.MeanTime(), want)
	}

	first := reference.Add(time.Duration(obs.Picks[0].TimeRel * float64(time.Second)))
	last := reference.Add(time.Duration(obs.Picks[len(obs.Picks)-1].TimeRel * float64(time.Second)))
	if obs.MeanTime().Before(first) || obs.MeanTime().After(last) {
		t.Errorf("MeanTime() %v outside pick range [%v, %v]", obs.MeanTime(), first, last)
	}
}

func TestNewObservationMeanPrecedesTrimming(t *testing.T) {
	reference := time.Date(2019, 7, 7, 19, 28, 35, 0, time.UTC)

	// This track loses its first pick to the field-of-view estimate, but
	// the mean timestamp is taken over the raw sequence, before trimming.
	obs, err := NewObservation("HR0001", reference, linearTrack(55, 30, 30, 10), testStation, 720, 576)
	if err != nil {
		t.Fatalf("NewObservation: %v", err)
	}

	if obs.BeginsInFOV {
		t.Error("BeginsInFOV = true, want false")
	}
	if len(obs.Picks) != 4 {
		t.Fatalf("len(Picks) = %d, want 4", len(obs.Picks))
	}

	want := reference.Add(80 * time.Millisecond)
	if d := obs.MeanTime().Sub(want); d < -time.Microsecond || d > time.Microsecond {
		t.Errorf("MeanTime() = %v, want %v (mean over untrimmed picks)", obs.MeanTime(), want)
	}
}

func TestObservationDuration(t *testing.T) {
	reference := time.Date(2019, 7, 7, 19, 28, 35, 0, time.UTC)
	obs, err := NewObservation("HR0001", reference, linearTrack(110, 5, 110, 5), testStation, 720, 576)
	if err != nil {
		t.Fatalf("NewObservation: %v", err)
	}
	if got := obs.Duration(); got != 0.16 {
		t.Errorf("Duration() = %f, want 0.16", got)
	}
}
