package shuffle

import (
	"bpmshuffle/model"
)

// Options controls a playlist build.
type Options struct {
	// Duration is the target playlist length in seconds. Nil means the whole
	// library is used. The build stops once the running total reaches it, so
	// the result can overshoot by at most one track.
	Duration *int
}

// Seconds is a helper for building Options literals.
func Seconds(n int) *int {
	return &n
}

// Stats describes a finished build.
type Stats struct {
	Buckets      int `json:"buckets"`
	Edges        int `json:"edges"`
	Drains       int `json:"drains"`
	TotalSeconds int `json:"totalSeconds"`
	Remaining    int `json:"remaining"`
}

// Result is the ordered playlist together with build statistics.
type Result struct {
	Tracks []model.Track
	Stats  Stats
}

// CreatePlaylist orders library into a playlist.
func CreatePlaylist(library []model.Track, opts Options) Result {
	return Traverse(BuildGraph(library), opts)
}

// Traverse drains g into a playlist. It starts from the lower-median bucket
// and, whenever a drain runs out of reachable tracks, continues from the
// bucket whose tempo ranks best against the last track played. The pools of g
// are consumed.
func Traverse(g *Graph, opts Options) Result {
	b := newBuilder(g, opts.Duration)

	keys := g.Keys()
	if len(keys) > 0 {
		start := g.index[keys[len(keys)/2]]
		first := true
		for g.Remaining() > 0 && !b.budgetMet() {
			next := start
			if !first {
				next = b.nextVertex()
			}
			first = false
			b.drain(next)
		}
	}

	return Result{
		Tracks: b.playlist,
		Stats: Stats{
			Buckets:      g.Len(),
			Edges:        g.EdgeCount(),
			Drains:       b.drains,
			TotalSeconds: b.total,
			Remaining:    g.Remaining(),
		},
	}
}

// nextVertex picks the non-exhausted vertex ranking best against the tempo of
// the last appended track. Without a last track, the lowest key wins.
func (b *builder) nextVertex() int {
	best := -1
	var bestRank Rank
	for i, v := range b.graph.vertices {
		if v.Exhausted() {
			continue
		}
		rank := Rank{Key: v.key}
		if len(b.playlist) > 0 {
			rank = TempoRank(v.key, b.playlist[len(b.playlist)-1].Tempo)
		}
		if best < 0 || rank.Compare(bestRank) < 0 {
			best, bestRank = i, rank
		}
	}
	return best
}
