// Command correlate discovers newly recorded meteor detections under a data
// root, pairs observations across stations in time, and hands candidate
// groups to the configured trajectory solver. Processed folders are tracked
// in a flat-file ledger inside the data root, so repeated runs only touch
// new data.
//
// Expected directory layout:
//
//	root/
//	    HR0001/
//	        HR0001_20190707_192835_241084_detected/
//	            *.json detection files
//	    HR0004/
//	        ...
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/skywatch-data/trajectory.report/internal/config"
	"github.com/skywatch-data/trajectory.report/internal/correlator"
	"github.com/skywatch-data/trajectory.report/internal/extsolve"
	"github.com/skywatch-data/trajectory.report/internal/fsutil"
	"github.com/skywatch-data/trajectory.report/internal/ledger"
	"github.com/skywatch-data/trajectory.report/internal/rmsjson"
	"github.com/skywatch-data/trajectory.report/internal/station"
	"github.com/skywatch-data/trajectory.report/internal/timeutil"
)

var (
	configPath     = flag.String("config", "", "Path to a JSON config file")
	maxTOffset     = flag.Float64("maxtoffset", 10.0, "Maximum time offset between stations in seconds")
	maxStationDist = flag.Float64("maxstationdist", 300.0, "Maximum distance (km) between stations of paired meteors")
	maxVelDiff     = flag.Float64("maxveldiff", 25.0, "Maximum velocity difference between stations in percent")
	velPart        = flag.Float64("velpart", 0.4, "Fraction of the track used for initial velocity estimation")
	minErr         = flag.Float64("minerr", 30.0, "Minimum astrometric error in arcsec below which a station is never rejected")
	maxErr         = flag.Float64("maxerr", 180.0, "Maximum astrometric error in arcsec above which a station is rejected")
	disableMC      = flag.Bool("disablemc", false, "Disable Monte Carlo uncertainty estimation")
	timeRange      = flag.String("timerange", "", `Only process the given range of time, "(YYYYMMDD-HHMMSS,YYYYMMDD-HHMMSS)"`)
	binWidth       = flag.Int("binwidth", 30, "Width of a processing time bin in days")
	concurrency    = flag.Int("concurrency", 4, "Number of parallel workers for loading and solving")
	solverCommand  = flag.String("solver", "", "External trajectory solver command")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] DATA_ROOT\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	root := flag.Arg(0)

	cfg, err := buildConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if cfg.GetSolverCommand() == "" {
		log.Fatalf("no solver command configured; pass -solver or set solver_command in the config file")
	}

	fs := fsutil.OSFileSystem{}

	led, err := ledger.Load(fs, filepath.Join(root, cfg.GetLedgerName()))
	if err != nil {
		log.Fatalf("failed to load ledger: %v", err)
	}

	runner := &correlator.Runner{
		Root:   root,
		Repo:   station.NewRepository(fs),
		Ledger: led,
		Loader: &correlator.Loader{Parser: rmsjson.NewParser(fs)},
		Solver: &extsolve.CommandSolver{Command: cfg.GetSolverCommand()},
		Writer: &correlator.SummaryFileWriter{FS: fs},
		Config: cfg,
		Clock:  timeutil.RealClock{},
	}

	// A signal stops the run at the next bin boundary, after the
	// checkpoint; no state is lost.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	fmt.Printf("units discovered:          %d\n", summary.UnitsDiscovered)
	fmt.Printf("units already processed:   %d\n", summary.UnitsSkippedProcessed)
	fmt.Printf("units skipped as broken:   %d\n", summary.UnitsSkippedBroken)
	fmt.Printf("groups solved:             %d\n", summary.GroupsSolved)
	fmt.Printf("groups failed:             %d\n", summary.GroupsFailed)
	fmt.Printf("total run time:            %s\n", summary.Duration)
}

// buildConfig loads the optional config file and lets explicitly-set command
// line flags override it.
func buildConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["maxtoffset"] {
		cfg.MaxTimeOffsetS = maxTOffset
	}
	if set["maxstationdist"] {
		cfg.MaxStationDistKm = maxStationDist
	}
	if set["maxveldiff"] {
		cfg.MaxVelDiffPct = maxVelDiff
	}
	if set["velpart"] {
		cfg.VelocityPart = velPart
	}
	if set["minerr"] {
		cfg.MinArcsecErr = minErr
	}
	if set["maxerr"] {
		cfg.MaxArcsecErr = maxErr
	}
	if set["disablemc"] {
		mc := !*disableMC
		cfg.MonteCarlo = &mc
	}
	if set["timerange"] {
		cfg.TimeRange = timeRange
	}
	if set["binwidth"] {
		cfg.BinWidthDays = binWidth
	}
	if set["concurrency"] {
		cfg.Concurrency = concurrency
	}
	if set["solver"] {
		cfg.SolverCommand = solverCommand
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
