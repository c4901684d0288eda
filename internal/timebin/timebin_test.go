package timebin

import (
	"testing"
	"time"
)

var day0 = time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)

func TestGenerateSplitsRange(t *testing.T) {
	end := day0.AddDate(0, 0, 65)
	bins := Generate(day0, end, 30)

	if len(bins) != 3 {
		t.Fatalf("got %d bins, want 3", len(bins))
	}

	wantBounds := []struct{ begin, end time.Time }{
		{day0, day0.AddDate(0, 0, 30)},
		{day0.AddDate(0, 0, 30), day0.AddDate(0, 0, 60)},
		{day0.AddDate(0, 0, 60), end},
	}
	for i, want := range wantBounds {
		if !bins[i].Begin.Equal(want.begin) || !bins[i].End.Equal(want.end) {
			t.Errorf("bin %d = [%v, %v), want [%v, %v)", i, bins[i].Begin, bins[i].End, want.begin, want.end)
		}
	}

	// Contiguous: each bin starts where the previous one ends.
	for i := 1; i < len(bins); i++ {
		if !bins[i].Begin.Equal(bins[i-1].End) {
			t.Errorf("gap or overlap between bin %d and %d", i-1, i)
		}
	}

	if bins[0].Final || bins[1].Final || !bins[2].Final {
		t.Error("only the last bin should be final")
	}
}

func TestGenerateShortRange(t *testing.T) {
	end := day0.AddDate(0, 0, 3)
	bins := Generate(day0, end, 30)

	if len(bins) != 1 {
		t.Fatalf("got %d bins, want 1", len(bins))
	}
	if !bins[0].Begin.Equal(day0) || !bins[0].End.Equal(end) || !bins[0].Final {
		t.Errorf("bin = %+v, want final [%v, %v]", bins[0], day0, end)
	}
}

func TestGenerateEmptyRange(t *testing.T) {
	bins := Generate(day0, day0, 30)
	if len(bins) != 1 {
		t.Fatalf("got %d bins, want 1 even for an empty range", len(bins))
	}
}

func TestContains(t *testing.T) {
	end := day0.AddDate(0, 0, 65)
	bins := Generate(day0, end, 30)

	boundary := day0.AddDate(0, 0, 30)

	// Half-open: the boundary instant belongs to the next bin.
	if bins[0].Contains(boundary) {
		t.Error("bin 0 should not contain its end instant")
	}
	if !bins[1].Contains(boundary) {
		t.Error("bin 1 should contain its begin instant")
	}

	// The final bin includes its end, so the sequence covers the whole
	// range inclusively.
	if !bins[2].Contains(end) {
		t.Error("final bin should contain the range end")
	}
	if bins[2].Contains(end.Add(time.Second)) {
		t.Error("final bin should not extend past the range end")
	}
	if bins[0].Contains(day0.Add(-time.Second)) {
		t.Error("no bin should contain instants before the range")
	}
}

func TestGenerateDeterminism(t *testing.T) {
	end := day0.AddDate(0, 0, 100)
	a := Generate(day0, end, 30)
	b := Generate(day0, end, 30)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("bin %d differs between identical invocations", i)
		}
	}
}
