// Package extsolve runs the geometric trajectory solver as an external
// command.
//
// The solver owns every piece of numeric and orbital logic; this package
// only serializes a candidate group plus its constraints to the command's
// stdin and reads a trajectory summary JSON back from stdout. Keeping the
// solver out of process means a crash or hang in a Monte-Carlo fit can never
// take the correlation run down with it.
package extsolve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/skywatch-data/trajectory.report/internal/correlator"
	"github.com/skywatch-data/trajectory.report/internal/julian"
	"github.com/skywatch-data/trajectory.report/internal/meteor"
)

// request is the JSON document written to the solver's stdin.
type request struct {
	Constraints  correlator.Constraints `json:"constraints"`
	Observations []requestObservation   `json:"observations"`
}

type requestObservation struct {
	StationID  string        `json:"station_id"`
	JdtRef     float64       `json:"jdt_ref"`
	Lat        float64       `json:"lat"`
	Lon        float64       `json:"lon"`
	Elev       float64       `json:"elev"`
	XRes       int           `json:"x_res"`
	YRes       int           `json:"y_res"`
	FOVBeg     bool          `json:"fov_beg"`
	FOVEnd     bool          `json:"fov_end"`
	Picks      []requestPick `json:"picks"`
	SourceUnit string        `json:"source_unit"`
}

type requestPick struct {
	Frame   int      `json:"frame"`
	TimeRel float64  `json:"time_rel"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	RA      float64  `json:"ra"`
	Dec     float64  `json:"dec"`
	Azim    float64  `json:"azim"`
	Alt     float64  `json:"alt"`
	Mag     *float64 `json:"mag,omitempty"`
}

// response is the minimal shape expected back on stdout; the full document
// is kept verbatim as the opaque trajectory summary.
type response struct {
	JdtRef float64 `json:"jdt_ref"`
}

// CommandSolver invokes an external solver command for each candidate group.
// Implements correlator.Solver.
type CommandSolver struct {
	// Command is the solver executable; Args are prepended to every
	// invocation.
	Command string
	Args    []string
}

// Solve serializes the group, runs the command, and parses its output. Any
// command failure, including a non-zero exit, surfaces as an error; the
// caller treats it as a group-level failure and moves on.
func (s *CommandSolver) Solve(ctx context.Context, group []*meteor.Observation, c correlator.Constraints) (*correlator.Trajectory, error) {
	req := request{Constraints: c}
	for _, obs := range group {
		ro := requestObservation{
			StationID:  obs.StationID,
			JdtRef:     julian.FromTime(obs.ReferenceTime),
			Lat:        obs.Station.LatDeg,
			Lon:        obs.Station.LonDeg,
			Elev:       obs.Station.ElevM,
			XRes:       obs.FrameWidth,
			YRes:       obs.FrameHeight,
			FOVBeg:     obs.BeginsInFOV,
			FOVEnd:     obs.EndsInFOV,
			SourceUnit: obs.SourceUnit,
		}
		for _, p := range obs.Picks {
			ro.Picks = append(ro.Picks, requestPick{
				Frame:   p.Frame,
				TimeRel: p.TimeRel,
				X:       p.X,
				Y:       p.Y,
				RA:      p.RA,
				Dec:     p.Dec,
				Azim:    p.Azim,
				Alt:     p.Alt,
				Mag:     p.Mag,
			})
		}
		req.Observations = append(req.Observations, ro)
	}

	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("serialize solver request: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("solver command %s: %w: %s", s.Command, err, msg)
		}
		return nil, fmt.Errorf("solver command %s: %w", s.Command, err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	var resp response
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("parse solver output: %w", err)
	}
	if resp.JdtRef == 0 {
		return nil, fmt.Errorf("solver output has no jdt_ref")
	}

	return &correlator.Trajectory{
		RefJD:   resp.JdtRef,
		RefTime: julian.Time(resp.JdtRef),
		Summary: json.RawMessage(out),
	}, nil
}
