// Package config holds the typed configuration for a correlation run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// timeRangeLayout is the timestamp format used inside the time_range value.
const timeRangeLayout = "20060102-150405"

// Config represents the configuration bag for a correlation run. All fields
// are optional pointers so that a partial JSON file only overrides what it
// names; the Get* methods supply defaults for everything else.
type Config struct {
	// Pairing and solver constraints
	MaxTimeOffsetS   *float64 `json:"max_time_offset_s,omitempty"`
	MaxStationDistKm *float64 `json:"max_station_dist_km,omitempty"`
	MaxVelDiffPct    *float64 `json:"max_vel_diff_pct,omitempty"`
	VelocityPart     *float64 `json:"velocity_part,omitempty"`
	MinArcsecErr     *float64 `json:"min_arcsec_err,omitempty"`
	MaxArcsecErr     *float64 `json:"max_arcsec_err,omitempty"`
	MonteCarlo       *bool    `json:"monte_carlo,omitempty"`

	// Scheduling params
	BinWidthDays *int    `json:"bin_width_days,omitempty"`
	Concurrency  *int    `json:"concurrency,omitempty"`
	TimeRange    *string `json:"time_range,omitempty"` // "(YYYYMMDD-HHMMSS,YYYYMMDD-HHMMSS)"

	// Output params
	OutputDir     *string `json:"output_dir,omitempty"`
	LedgerName    *string `json:"ledger_name,omitempty"`
	SolverCommand *string `json:"solver_command,omitempty"`
}

// TimeRange is a parsed inclusive time interval.
type TimeRange struct {
	Begin time.Time
	End   time.Time
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultConfig returns a Config with every field populated with its
// default value.
func DefaultConfig() *Config {
	return &Config{
		MaxTimeOffsetS:   ptrFloat64(10.0),
		MaxStationDistKm: ptrFloat64(300.0),
		MaxVelDiffPct:    ptrFloat64(25.0),
		VelocityPart:     ptrFloat64(0.4),
		MinArcsecErr:     ptrFloat64(30.0),
		MaxArcsecErr:     ptrFloat64(180.0),
		MonteCarlo:       ptrBool(true),
		BinWidthDays:     ptrInt(30),
		Concurrency:      ptrInt(4),
		OutputDir:        ptrString("trajectories"),
		LedgerName:       ptrString("processed_trajectories.json"),
		SolverCommand:    ptrString(""),
	}
}

// Load loads a Config from a JSON file. Fields omitted from the file retain
// their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.MaxTimeOffsetS != nil && *c.MaxTimeOffsetS <= 0 {
		return fmt.Errorf("max_time_offset_s must be positive, got %f", *c.MaxTimeOffsetS)
	}
	if c.MaxStationDistKm != nil && *c.MaxStationDistKm <= 0 {
		return fmt.Errorf("max_station_dist_km must be positive, got %f", *c.MaxStationDistKm)
	}
	if c.VelocityPart != nil && (*c.VelocityPart <= 0 || *c.VelocityPart > 1) {
		return fmt.Errorf("velocity_part must be in (0, 1], got %f", *c.VelocityPart)
	}
	if c.BinWidthDays != nil && *c.BinWidthDays < 1 {
		return fmt.Errorf("bin_width_days must be at least 1, got %d", *c.BinWidthDays)
	}
	if c.Concurrency != nil && *c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", *c.Concurrency)
	}
	if c.TimeRange != nil && *c.TimeRange != "" {
		if _, err := parseTimeRange(*c.TimeRange); err != nil {
			return fmt.Errorf("invalid time_range %q: %w", *c.TimeRange, err)
		}
	}
	return nil
}

// parseTimeRange parses "(YYYYMMDD-HHMMSS,YYYYMMDD-HHMMSS)".
func parseTimeRange(s string) (*TimeRange, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected two comma-separated timestamps")
	}
	begin, err := time.Parse(timeRangeLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("bad range start: %w", err)
	}
	end, err := time.Parse(timeRangeLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("bad range end: %w", err)
	}
	if end.Before(begin) {
		return nil, fmt.Errorf("range end precedes range start")
	}
	return &TimeRange{Begin: begin, End: end}, nil
}

// GetMaxTimeOffsetS returns the max_time_offset_s value or the default.
func (c *Config) GetMaxTimeOffsetS() float64 {
	if c.MaxTimeOffsetS == nil {
		return 10.0
	}
	return *c.MaxTimeOffsetS
}

// GetMaxStationDistKm returns the max_station_dist_km value or the default.
func (c *Config) GetMaxStationDistKm() float64 {
	if c.MaxStationDistKm == nil {
		return 300.0
	}
	return *c.MaxStationDistKm
}

// GetMaxVelDiffPct returns the max_vel_diff_pct value or the default.
func (c *Config) GetMaxVelDiffPct() float64 {
	if c.MaxVelDiffPct == nil {
		return 25.0
	}
	return *c.MaxVelDiffPct
}

// GetVelocityPart returns the velocity_part value or the default.
func (c *Config) GetVelocityPart() float64 {
	if c.VelocityPart == nil {
		return 0.4
	}
	return *c.VelocityPart
}

// GetMinArcsecErr returns the min_arcsec_err value or the default.
func (c *Config) GetMinArcsecErr() float64 {
	if c.MinArcsecErr == nil {
		return 30.0
	}
	return *c.MinArcsecErr
}

// GetMaxArcsecErr returns the max_arcsec_err value or the default.
func (c *Config) GetMaxArcsecErr() float64 {
	if c.MaxArcsecErr == nil {
		return 180.0
	}
	return *c.MaxArcsecErr
}

// GetMonteCarlo returns the monte_carlo value or the default.
func (c *Config) GetMonteCarlo() bool {
	if c.MonteCarlo == nil {
		return true
	}
	return *c.MonteCarlo
}

// GetBinWidthDays returns the bin_width_days value or the default.
func (c *Config) GetBinWidthDays() int {
	if c.BinWidthDays == nil {
		return 30
	}
	return *c.BinWidthDays
}

// GetConcurrency returns the concurrency value or the default.
func (c *Config) GetConcurrency() int {
	if c.Concurrency == nil {
		return 4
	}
	return *c.Concurrency
}

// GetTimeRange returns the parsed time_range, or nil when no range is
// configured. Validate catches malformed values, so parse errors here only
// occur for configs that bypassed validation.
func (c *Config) GetTimeRange() *TimeRange {
	if c.TimeRange == nil || *c.TimeRange == "" {
		return nil
	}
	tr, err := parseTimeRange(*c.TimeRange)
	if err != nil {
		return nil
	}
	return tr
}

// GetOutputDir returns the output_dir value or the default.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "trajectories"
	}
	return *c.OutputDir
}

// GetLedgerName returns the ledger_name value or the default.
func (c *Config) GetLedgerName() string {
	if c.LedgerName == nil || *c.LedgerName == "" {
		return "processed_trajectories.json"
	}
	return *c.LedgerName
}

// GetSolverCommand returns the solver_command value or an empty string when
// no external solver is configured.
func (c *Config) GetSolverCommand() string {
	if c.SolverCommand == nil {
		return ""
	}
	return *c.SolverCommand
}
