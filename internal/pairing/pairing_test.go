package pairing

import (
	"testing"
	"time"

	"github.com/skywatch-data/trajectory.report/internal/meteor"
	"github.com/skywatch-data/trajectory.report/internal/testutil"
)

var t0 = time.Date(2019, 7, 7, 19, 28, 0, 0, time.UTC)

func TestFindTimePairs(t *testing.T) {
	a := testutil.Observation(t, "HR0001", t0.Add(100*time.Second))
	b := testutil.Observation(t, "SI0001", t0.Add(104*time.Second))
	c := testutil.Observation(t, "CZ0001", t0.Add(200*time.Second))

	pairs := FindTimePairs(a, []*meteor.Observation{b, c}, 5.0)
	if len(pairs) != 1 || pairs[0] != b {
		t.Errorf("FindTimePairs matched %d observations, want just the 4 s neighbour", len(pairs))
	}
}

func TestFindTimePairsExcludesSameStation(t *testing.T) {
	a := testutil.Observation(t, "HR0001", t0)
	b := testutil.Observation(t, "HR0001", t0.Add(1*time.Second))

	if pairs := FindTimePairs(a, []*meteor.Observation{b}, 5.0); len(pairs) != 0 {
		t.Errorf("same-station observations must never pair, got %d", len(pairs))
	}
}

func TestFindTimePairsBoundary(t *testing.T) {
	a := testutil.Observation(t, "HR0001", t0)
	exact := testutil.Observation(t, "SI0001", t0.Add(5*time.Second))

	// The offset limit is inclusive.
	if pairs := FindTimePairs(a, []*meteor.Observation{exact}, 5.0); len(pairs) != 1 {
		t.Errorf("an offset of exactly the limit should match, got %d pairs", len(pairs))
	}
}

func TestGroupByTimeTransitive(t *testing.T) {
	// A matches B and B matches C, but A and C are 8 s apart. The chain
	// still puts all three in one group.
	a := testutil.Observation(t, "HR0001", t0)
	b := testutil.Observation(t, "SI0001", t0.Add(4*time.Second))
	c := testutil.Observation(t, "CZ0001", t0.Add(8*time.Second))

	groups := GroupByTime([]*meteor.Observation{a, b, c}, 5.0)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if len(groups[0]) != 3 {
		t.Errorf("group has %d members, want 3", len(groups[0]))
	}
}

func TestGroupByTimeDropsSingletons(t *testing.T) {
	a := testutil.Observation(t, "HR0001", t0)
	b := testutil.Observation(t, "SI0001", t0.Add(2*time.Second))
	lone := testutil.Observation(t, "CZ0001", t0.Add(1000*time.Second))

	groups := GroupByTime([]*meteor.Observation{a, b, lone}, 5.0)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	for _, member := range groups[0] {
		if member == lone {
			t.Error("unmatched observation ended up in a group")
		}
	}
}

func TestGroupByTimeSameStationNeverUnions(t *testing.T) {
	// Two same-station observations at the same instant, each close in
	// time to a distinct partner station. Same-station pairs are skipped,
	// so the four form two groups, not one.
	a1 := testutil.Observation(t, "HR0001", t0)
	b := testutil.Observation(t, "SI0001", t0.Add(1*time.Second))
	a2 := testutil.Observation(t, "HR0001", t0.Add(100*time.Second))
	c := testutil.Observation(t, "CZ0001", t0.Add(101*time.Second))

	groups := GroupByTime([]*meteor.Observation{a1, b, a2, c}, 5.0)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
}

func TestGroupByTimeDeterministicOrder(t *testing.T) {
	pool := []*meteor.Observation{
		testutil.Observation(t, "HR0001", t0),
		testutil.Observation(t, "SI0001", t0.Add(2*time.Second)),
		testutil.Observation(t, "CZ0001", t0.Add(3*time.Second)),
	}

	first := GroupByTime(pool, 5.0)
	second := GroupByTime(pool, 5.0)

	if len(first) != len(second) {
		t.Fatalf("group counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if len(first[i]) != len(second[i]) {
			t.Fatalf("group %d sizes differ", i)
		}
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Errorf("group %d member %d differs between runs", i, j)
			}
		}
	}
}
