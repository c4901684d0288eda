// Package correlator orchestrates a correlation run: discover unprocessed
// dataset folders, load observations per time bin, propose candidate groups,
// hand them to the trajectory solver, and persist the outcome in the ledger.
package correlator

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/skywatch-data/trajectory.report/internal/config"
	"github.com/skywatch-data/trajectory.report/internal/meteor"
)

// Constraints is the bag of limits handed to the trajectory solver along
// with each candidate group. The solver owns all numeric and orbit logic;
// this package only assembles the bag.
type Constraints struct {
	MaxTimeOffsetS   float64 `json:"max_time_offset_s"`
	MaxStationDistKm float64 `json:"max_station_dist_km"`
	MaxVelDiffPct    float64 `json:"max_vel_diff_pct"`
	VelocityPart     float64 `json:"velocity_part"`
	MinArcsecErr     float64 `json:"min_arcsec_err"`
	MaxArcsecErr     float64 `json:"max_arcsec_err"`
	MonteCarlo       bool    `json:"monte_carlo"`
}

// ConstraintsFromConfig builds the solver constraints from a run config.
func ConstraintsFromConfig(cfg *config.Config) Constraints {
	return Constraints{
		MaxTimeOffsetS:   cfg.GetMaxTimeOffsetS(),
		MaxStationDistKm: cfg.GetMaxStationDistKm(),
		MaxVelDiffPct:    cfg.GetMaxVelDiffPct(),
		VelocityPart:     cfg.GetVelocityPart(),
		MinArcsecErr:     cfg.GetMinArcsecErr(),
		MaxArcsecErr:     cfg.GetMaxArcsecErr(),
		MonteCarlo:       cfg.GetMonteCarlo(),
	}
}

// Trajectory is the solver's result for one candidate group: a reference
// instant plus an opaque summary recorded in the ledger.
type Trajectory struct {
	// RefJD is the reference Julian date of the fitted trajectory; it
	// keys the ledger entry.
	RefJD float64

	// RefTime is RefJD as a time.Time.
	RefTime time.Time

	// Stations are the station codes that contributed observations.
	Stations []string

	// Summary is the solver's serialized result, stored opaquely.
	Summary json.RawMessage
}

// Solver fits a trajectory to a candidate group of observations from
// multiple stations. Implementations may be long-running (Monte-Carlo
// resampling); the runner never holds the ledger lock across a Solve call.
type Solver interface {
	Solve(ctx context.Context, group []*meteor.Observation, c Constraints) (*Trajectory, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, group []*meteor.Observation, c Constraints) (*Trajectory, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, group []*meteor.Observation, c Constraints) (*Trajectory, error) {
	return f(ctx, group, c)
}

// ReportWriter persists a solved trajectory outside the ledger (reports,
// pickles, plots). Failures are logged by the caller but never propagate
// into ledger state.
type ReportWriter interface {
	Persist(traj *Trajectory, outputDir string) error
}

// GroupStations returns the sorted distinct station codes of a group.
func GroupStations(group []*meteor.Observation) []string {
	seen := make(map[string]bool)
	var stations []string
	for _, obs := range group {
		if !seen[obs.StationID] {
			seen[obs.StationID] = true
			stations = append(stations, obs.StationID)
		}
	}
	sort.Strings(stations)
	return stations
}
