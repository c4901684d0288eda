// Package timebin splits an unbounded timeline into bounded processing
// windows so a single run operates on a fixed memory budget.
package timebin

import "time"

// Bin is a half-open time window [Begin, End). The final bin of a generated
// sequence additionally includes its End instant, so the sequence covers the
// requested range inclusively.
type Bin struct {
	Begin time.Time
	End   time.Time

	// Final marks the last bin of a sequence; only a final bin treats its
	// End as inclusive.
	Final bool
}

// Contains reports whether t falls inside the bin.
func (b Bin) Contains(t time.Time) bool {
	if t.Before(b.Begin) {
		return false
	}
	if t.Before(b.End) {
		return true
	}
	return b.Final && t.Equal(b.End)
}

// Generate splits [begin, end] into contiguous, non-overlapping bins of
// widthDays each; the final bin may be shorter so the sequence ends exactly
// at end. At least one bin is always produced, and identical inputs always
// yield an identical sequence.
func Generate(begin, end time.Time, widthDays int) []Bin {
	width := time.Duration(widthDays) * 24 * time.Hour

	var bins []Bin
	for cursor := begin; ; {
		next := cursor.Add(width)
		if !next.Before(end) {
			bins = append(bins, Bin{Begin: cursor, End: end, Final: true})
			return bins
		}
		bins = append(bins, Bin{Begin: cursor, End: next})
		cursor = next
	}
}
