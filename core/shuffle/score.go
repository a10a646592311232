package shuffle

import (
	"cmp"

	"bpmshuffle/model"
)

const (
	repeatArtistWeight = 0.7
	frequencyWeight    = 0.3
)

// ArtistPenalty scores a candidate against the playlist built so far.
// Lower is better: a candidate repeating the previous artist is pushed back,
// and among the rest the least used artist wins. count is the number of times
// the candidate's artist already appears in playlist.
func ArtistPenalty(candidate model.Track, count int, playlist []model.Track) float64 {
	if len(playlist) == 0 {
		return 0
	}
	score := 0.0
	if candidate.Artist == playlist[len(playlist)-1].Artist {
		score += repeatArtistWeight
	}
	score += frequencyWeight * float64(count) / float64(len(playlist))
	return score
}

// Rank orders candidate buckets when choosing where to continue.
type Rank struct {
	OutOfWindow bool
	Key         int
}

// TempoRank ranks bucket key against the tempo of the last appended track.
// Keys inside the tempo window come first, then ascending key.
func TempoRank(key, lastTempo int) Rank {
	return Rank{OutOfWindow: !InWindow(lastTempo, key), Key: key}
}

// Compare returns -1, 0 or +1 depending on whether r ranks before, with or after o.
func (r Rank) Compare(o Rank) int {
	if r.OutOfWindow != o.OutOfWindow {
		if r.OutOfWindow {
			return 1
		}
		return -1
	}
	return cmp.Compare(r.Key, o.Key)
}

// compareTracks is the fixed secondary order used when penalties tie.
func compareTracks(a, b model.Track) int {
	return cmp.Or(
		cmp.Compare(a.Artist, b.Artist),
		cmp.Compare(a.Title, b.Title),
		cmp.Compare(a.Album, b.Album),
		cmp.Compare(a.Tempo, b.Tempo),
		cmp.Compare(a.Length, b.Length),
	)
}
