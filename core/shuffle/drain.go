package shuffle

import (
	"slices"

	"bpmshuffle/model"
)

// builder carries the running state of one playlist build.
type builder struct {
	graph    *Graph
	budget   *int
	playlist []model.Track
	counts   map[string]int
	total    int
	drains   int
}

func newBuilder(g *Graph, budget *int) *builder {
	return &builder{
		graph:  g,
		budget: budget,
		counts: make(map[string]int),
	}
}

func (b *builder) budgetMet() bool {
	return b.budget != nil && b.total >= *b.budget
}

// take removes the lowest-penalty track from v and appends it.
func (b *builder) take(v *Vertex) {
	best := 0
	bestScore := ArtistPenalty(v.pool[0], b.counts[v.pool[0].Artist], b.playlist)
	for i := 1; i < len(v.pool); i++ {
		t := v.pool[i]
		score := ArtistPenalty(t, b.counts[t.Artist], b.playlist)
		if score < bestScore || (score == bestScore && compareTracks(t, v.pool[best]) < 0) {
			best, bestScore = i, score
		}
	}

	track := v.pool[best]
	v.pool = slices.Delete(v.pool, best, best+1)
	b.playlist = append(b.playlist, track)
	b.total += track.Length
	b.counts[track.Artist]++
}

// visit performs one drain step on v and reports whether v should stay on
// the stack to have its neighbors explored.
func (b *builder) visit(v *Vertex) bool {
	if b.budgetMet() {
		return false
	}
	if !v.Exhausted() {
		b.take(v)
	}
	return !v.Exhausted()
}

type frame struct {
	vertex int
	next   int
}

// drain empties the buckets reachable from start depth-first. Each frame
// remembers which neighbor to descend into next; a frame is dropped once its
// own pool runs dry, so an exhausted vertex never leads anywhere.
func (b *builder) drain(start int) {
	b.drains++
	if !b.visit(b.graph.vertices[start]) {
		return
	}

	stack := []frame{{vertex: start}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		v := b.graph.vertices[top.vertex]
		if v.Exhausted() || top.next >= len(v.neighbors) {
			stack = stack[:len(stack)-1]
			continue
		}

		n := v.neighbors[top.next]
		top.next++
		if b.visit(b.graph.vertices[n]) {
			stack = append(stack, frame{vertex: n})
		}
	}
}
