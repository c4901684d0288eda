package correlator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skywatch-data/trajectory.report/internal/config"
	"github.com/skywatch-data/trajectory.report/internal/julian"
	"github.com/skywatch-data/trajectory.report/internal/ledger"
	"github.com/skywatch-data/trajectory.report/internal/meteor"
	"github.com/skywatch-data/trajectory.report/internal/monitoring"
	"github.com/skywatch-data/trajectory.report/internal/pairing"
	"github.com/skywatch-data/trajectory.report/internal/station"
	"github.com/skywatch-data/trajectory.report/internal/timebin"
	"github.com/skywatch-data/trajectory.report/internal/timeutil"
)

// minUnitTime filters out dataset folders whose parsed timestamp is
// obviously bogus (camera clock never set) when computing the bin range.
var minUnitTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Summary is the user-visible outcome of a run.
type Summary struct {
	RunID                 string
	UnitsDiscovered       int
	UnitsSkippedProcessed int
	UnitsSkippedBroken    int
	GroupsSolved          int
	GroupsFailed          int
	Duration              time.Duration
}

// Runner drives one correlation run over a data root. Bins are processed
// strictly in sequence: the ledger checkpoint at the end of a bin must be
// durable before the next bin starts, which is what makes a mid-run crash
// replay at most the current bin. Within a bin, unit loading and group
// solving fan out across a bounded worker pool.
type Runner struct {
	Root   string
	Repo   *station.Repository
	Ledger *ledger.Ledger
	Loader *Loader
	Solver Solver

	// Writer persists solved trajectories outside the ledger; may be nil.
	// Writer failures are logged and never affect ledger state.
	Writer ReportWriter

	Config *config.Config
	Clock  timeutil.Clock
}

// Run executes the full state machine:
// DISCOVER, then per bin LOAD / PAIR / DISPATCH / PERSIST.
// It returns a fatal error only when the root is unreadable or a ledger
// checkpoint fails; unit- and group-level failures are absorbed into the
// summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := r.Clock.Now()
	summary := &Summary{RunID: uuid.New().String()}

	monitoring.Logf("run %s: using directory %s", summary.RunID, r.Root)

	// DISCOVER
	discovery := &station.Discovery{Repo: r.Repo, Ledger: r.Ledger}
	units, skipped, err := discovery.FindUnprocessed(r.Root)
	if err != nil {
		return summary, err
	}
	summary.UnitsDiscovered = len(units)
	summary.UnitsSkippedProcessed = skipped

	if len(units) == 0 {
		monitoring.Logf("run %s: nothing to process", summary.RunID)
		summary.Duration = r.Clock.Since(start)
		return summary, nil
	}

	constraints := ConstraintsFromConfig(r.Config)

	for _, bin := range r.generateBins(units) {
		binUnits := r.unitsInBin(units, bin)
		if len(binUnits) == 0 {
			continue
		}
		monitoring.Logf("run %s: processing time bin [%s, %s): %d units",
			summary.RunID, bin.Begin.Format(time.RFC3339), bin.End.Format(time.RFC3339), len(binUnits))

		if err := r.processBin(ctx, binUnits, constraints, summary); err != nil {
			return summary, err
		}

		// Cancellation is honored only at bin boundaries, right after a
		// checkpoint, so stopping never leaves in-flight ledger state.
		if err := ctx.Err(); err != nil {
			summary.Duration = r.Clock.Since(start)
			return summary, err
		}
	}

	if err := r.Ledger.Save(); err != nil {
		return summary, err
	}

	summary.Duration = r.Clock.Since(start)
	monitoring.Logf("run %s: %d discovered, %d already processed, %d broken, %d groups solved, %d groups failed in %s",
		summary.RunID, summary.UnitsDiscovered, summary.UnitsSkippedProcessed, summary.UnitsSkippedBroken,
		summary.GroupsSolved, summary.GroupsFailed, summary.Duration)
	return summary, nil
}

// generateBins covers the timestamp range of the discovered units with
// fixed-width bins. Units without a parseable timestamp do not influence the
// range; they are folded into every bin by unitsInBin.
func (r *Runner) generateBins(units []station.Unit) []timebin.Bin {
	var begin, end time.Time
	found := false
	for _, unit := range units {
		if unit.Timestamp == nil || unit.Timestamp.Before(minUnitTime) {
			continue
		}
		t := *unit.Timestamp
		if !found || t.Before(begin) {
			begin = t
		}
		if !found || t.After(end) {
			end = t
		}
		found = true
	}

	if !found {
		// Only timestampless units exist; a single degenerate bin still
		// schedules them all.
		return []timebin.Bin{{Final: true}}
	}
	return timebin.Generate(begin, end, r.Config.GetBinWidthDays())
}

// unitsInBin selects the units to load for one bin: those whose timestamp
// falls in the bin and inside the configured time range, plus every unit
// with no timestamp at all, so unparseable-but-unprocessed folders are never
// silently skipped.
func (r *Runner) unitsInBin(units []station.Unit, bin timebin.Bin) []station.Unit {
	timeRange := r.Config.GetTimeRange()

	var selected []station.Unit
	for _, unit := range units {
		if unit.Timestamp == nil {
			selected = append(selected, unit)
			continue
		}
		t := *unit.Timestamp
		if !bin.Contains(t) {
			continue
		}
		if timeRange != nil && (t.Before(timeRange.Begin) || t.After(timeRange.End)) {
			continue
		}
		selected = append(selected, unit)
	}
	return selected
}

// processBin runs LOAD, PAIR, DISPATCH and PERSIST for one bin.
func (r *Runner) processBin(ctx context.Context, binUnits []station.Unit, constraints Constraints, summary *Summary) error {
	loaded, broken := r.loadUnits(binUnits)

	// Broken units are terminal: mark them processed and checkpoint
	// immediately so no later run, or a crash later in this bin, retries
	// them.
	if len(broken) > 0 {
		for _, unit := range broken {
			r.Ledger.MarkProcessed(unit.StationID, unit.RelPath)
		}
		summary.UnitsSkippedBroken += len(broken)
		if err := r.Ledger.Save(); err != nil {
			return err
		}
	}

	var pool []*meteor.Observation
	for _, lu := range loaded {
		pool = append(pool, lu.observations...)
	}

	// PAIR: connected components of the pairwise time-match graph.
	groups := pairing.GroupByTime(pool, r.Config.GetMaxTimeOffsetS())

	// DISPATCH
	solved, failed := r.dispatchGroups(ctx, groups, constraints)
	summary.GroupsSolved += solved
	summary.GroupsFailed += failed

	// PERSIST: a loaded unit is processed whether or not any of its
	// observations ended up in a solvable group; the attempt happened.
	for _, lu := range loaded {
		r.Ledger.MarkProcessed(lu.unit.StationID, lu.unit.RelPath)
	}
	return r.Ledger.Save()
}

type loadedUnit struct {
	unit         station.Unit
	observations []*meteor.Observation
}

// loadUnits parses the bin's units across a bounded worker pool and splits
// them into loaded and broken. Results keep the input order so downstream
// grouping is deterministic.
func (r *Runner) loadUnits(binUnits []station.Unit) (loaded []loadedUnit, broken []station.Unit) {
	type result struct {
		observations []*meteor.Observation
		err          error
	}
	results := make([]result, len(binUnits))

	sem := make(chan struct{}, r.Config.GetConcurrency())
	var wg sync.WaitGroup
	for i, unit := range binUnits {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, unit station.Unit) {
			defer wg.Done()
			defer func() { <-sem }()
			obs, err := r.Loader.Load(unit)
			results[i] = result{observations: obs, err: err}
		}(i, unit)
	}
	wg.Wait()

	for i, unit := range binUnits {
		if err := results[i].err; err != nil {
			monitoring.Logf("skipping %s due to missing data files: %v", unit.RelPath, err)
			broken = append(broken, unit)
			continue
		}
		for _, obs := range results[i].observations {
			monitoring.Logf("%s %s %s", obs.StationID, obs.MeanTime().Format(time.RFC3339), unit.RelPath)
		}
		loaded = append(loaded, loadedUnit{unit: unit, observations: results[i].observations})
	}
	return loaded, broken
}

// dispatchGroups hands each candidate group to the solver across a bounded
// worker pool. A failed group is logged and counted; it never aborts the
// bin. The ledger's own mutex serializes the RecordTrajectory calls.
func (r *Runner) dispatchGroups(ctx context.Context, groups [][]*meteor.Observation, constraints Constraints) (solved, failed int) {
	sem := make(chan struct{}, r.Config.GetConcurrency())
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, group := range groups {
		wg.Add(1)
		sem <- struct{}{}
		go func(group []*meteor.Observation) {
			defer wg.Done()
			defer func() { <-sem }()

			traj, err := r.Solver.Solve(ctx, group, constraints)
			if err != nil {
				monitoring.Logf("solver failed for group %s: %v", strings.Join(GroupStations(group), "/"), err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			if traj.RefTime.IsZero() {
				traj.RefTime = julian.Time(traj.RefJD)
			}
			if len(traj.Stations) == 0 {
				traj.Stations = GroupStations(group)
			}

			r.Ledger.RecordTrajectory(julian.Key(traj.RefJD), traj.Summary)

			if r.Writer != nil {
				if err := r.Writer.Persist(traj, r.outputDirFor(traj)); err != nil {
					monitoring.Logf("failed to persist trajectory %s: %v", julian.Key(traj.RefJD), err)
				}
			}

			mu.Lock()
			solved++
			mu.Unlock()
		}(group)
	}
	wg.Wait()
	return solved, failed
}

// outputDirFor names the trajectory's output directory after its reference
// time plus the distinct country prefixes of the contributing stations, e.g.
// trajectories/20190707_192835.241_HR_SI.
func (r *Runner) outputDirFor(traj *Trajectory) string {
	seen := make(map[string]bool)
	var prefixes []string
	for _, s := range traj.Stations {
		if len(s) < 2 {
			continue
		}
		p := s[:2]
		if !seen[p] {
			seen[p] = true
			prefixes = append(prefixes, p)
		}
	}

	name := traj.RefTime.Format("20060102_150405.000")
	if len(prefixes) > 0 {
		name = fmt.Sprintf("%s_%s", name, strings.Join(prefixes, "_"))
	}
	return filepath.Join(r.Root, r.Config.GetOutputDir(), name)
}
