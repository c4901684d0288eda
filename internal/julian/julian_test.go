package julian

import (
	"math"
	"testing"
	"time"
)

func TestTimeJ2000Epoch(t *testing.T) {
	got := Time(2451545.0)
	want := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Time(2451545.0) = %v, want %v", got, want)
	}
}

func TestFromTimeUnixEpoch(t *testing.T) {
	got := FromTime(time.Unix(0, 0))
	if got != 2440587.5 {
		t.Errorf("FromTime(unix epoch) = %f, want 2440587.5", got)
	}
}

func TestRoundTrip(t *testing.T) {
	original := time.Date(2019, 7, 7, 19, 28, 35, 241000000, time.UTC)
	back := Time(FromTime(original))

	// Float64 Julian dates resolve to roughly 20 microseconds for
	// contemporary dates.
	diff := math.Abs(float64(back.Sub(original)))
	if diff > float64(100*time.Microsecond) {
		t.Errorf("round trip drifted by %v", back.Sub(original))
	}
}

func TestKey(t *testing.T) {
	got := Key(2458672.31154514)
	want := "2458672.31154514"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}
