package shuffle

import (
	"math"
	"testing"

	"bpmshuffle/model"
)

func TestArtistPenalty(t *testing.T) {
	a := model.Track{Title: "1", Artist: "a"}
	b := model.Track{Title: "2", Artist: "b"}

	tests := []struct {
		name      string
		candidate model.Track
		count     int
		playlist  []model.Track
		want      float64
	}{
		{"empty playlist", a, 3, nil, 0},
		{"same artist as last", a, 1, []model.Track{a}, 0.7 + 0.3},
		{"different artist unused", b, 0, []model.Track{a}, 0},
		{"different artist used once in four", b, 1, []model.Track{b, a, a, a}, 0.3 * 0.25},
		{"same artist used twice in four", a, 2, []model.Track{b, b, a, a}, 0.7 + 0.3*0.5},
	}

	for _, tt := range tests {
		got := ArtistPenalty(tt.candidate, tt.count, tt.playlist)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: ArtistPenalty = %f; want %f", tt.name, got, tt.want)
		}
	}
}

func TestTempoRank(t *testing.T) {
	inside := TempoRank(103, 100)
	outside := TempoRank(96, 120)
	if inside.OutOfWindow || !outside.OutOfWindow {
		t.Fatalf("unexpected partition: inside=%+v outside=%+v", inside, outside)
	}

	// An in-window bucket beats any out-of-window bucket regardless of key.
	if TempoRank(104, 100).Compare(TempoRank(60, 100)) >= 0 {
		t.Error("in-window key should rank before out-of-window key")
	}
	// Within a partition the lower key wins.
	if TempoRank(97, 100).Compare(TempoRank(103, 100)) >= 0 {
		t.Error("lower key should win a tie inside the window")
	}
	if TempoRank(50, 100).Compare(TempoRank(200, 100)) >= 0 {
		t.Error("lower key should win a tie outside the window")
	}
	if TempoRank(100, 100).Compare(TempoRank(100, 100)) != 0 {
		t.Error("equal ranks should compare equal")
	}
}
