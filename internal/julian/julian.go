// Package julian converts between Julian dates and time.Time values.
//
// Meteor detection files and trajectory records reference events by Julian
// date, while the rest of the pipeline works in time.Time. The conversion
// here is anchored on the Unix epoch (JD 2440587.5), which is exact for the
// contemporary date range the pipeline handles.
package julian

import (
	"fmt"
	"time"
)

// unixEpochJD is the Julian date of 1970-01-01T00:00:00 UTC.
const unixEpochJD = 2440587.5

const nsPerDay = 86400e9

// FromTime returns the Julian date of t.
func FromTime(t time.Time) float64 {
	return float64(t.UnixNano())/nsPerDay + unixEpochJD
}

// Time returns the UTC time corresponding to the Julian date jd.
func Time(jd float64) time.Time {
	ns := (jd - unixEpochJD) * nsPerDay
	return time.Unix(0, int64(ns)).UTC()
}

// Key formats a Julian date as a stable map key with sub-millisecond
// precision. Ledger trajectory entries are keyed this way.
func Key(jd float64) string {
	return fmt.Sprintf("%.8f", jd)
}
