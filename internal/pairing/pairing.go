// Package pairing proposes candidate groupings of observations from
// different stations that are close enough in time to plausibly be the same
// event.
//
// Only time is considered here. Spatial constraints (station baselines,
// velocity agreement) belong to the trajectory solver, which keeps the time
// pairing reusable independent of geometry.
package pairing

import (
	"math"

	"github.com/skywatch-data/trajectory.report/internal/meteor"
)

// FindTimePairs returns every member of pool whose station differs from the
// station of obs and whose mean timestamp is within maxOffsetS seconds of
// the mean timestamp of obs. The relation is symmetric, but each call
// returns only one direction; callers deduplicate unordered pairs.
func FindTimePairs(obs *meteor.Observation, pool []*meteor.Observation, maxOffsetS float64) []*meteor.Observation {
	var pairs []*meteor.Observation
	for _, other := range pool {
		if other.StationID == obs.StationID {
			continue
		}
		offset := math.Abs(obs.MeanTime().Sub(other.MeanTime()).Seconds())
		if offset <= maxOffsetS {
			pairs = append(pairs, other)
		}
	}
	return pairs
}

// GroupByTime partitions the pool into candidate groups: connected
// components of the pairwise time-match graph, computed with union-find so
// transitive matches (A-B and B-C implies A, B, C together) land in one
// group. Observations that pair with nothing are omitted, since a trajectory
// needs at least two stations.
//
// Group order and member order follow pool order, so identical input yields
// identical output.
func GroupByTime(pool []*meteor.Observation, maxOffsetS float64) [][]*meteor.Observation {
	parent := make([]int, len(pool))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	for i, obs := range pool {
		for j := i + 1; j < len(pool); j++ {
			other := pool[j]
			if other.StationID == obs.StationID {
				continue
			}
			if math.Abs(obs.MeanTime().Sub(other.MeanTime()).Seconds()) <= maxOffsetS {
				union(i, j)
			}
		}
	}

	// Collect components in first-seen order.
	groupIndex := make(map[int]int)
	var groups [][]*meteor.Observation
	for i, obs := range pool {
		root := find(i)
		gi, ok := groupIndex[root]
		if !ok {
			gi = len(groups)
			groupIndex[root] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], obs)
	}

	// Drop singletons.
	var candidates [][]*meteor.Observation
	for _, g := range groups {
		if len(g) >= 2 {
			candidates = append(candidates, g)
		}
	}
	return candidates
}
