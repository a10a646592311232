// Package shuffle orders a track library into a playlist that walks between
// similar tempos while keeping consecutive artists apart.
package shuffle

import (
	"cmp"
	"slices"

	"bpmshuffle/model"
)

// Threshold is the relative tempo window used for both graph edges and
// bucket ranking: two tempos are close when they differ by at most 5%.
const Threshold = 0.05

// InWindow reports whether tempo b lies within ±Threshold of tempo a.
//
// The relation is evaluated on a's scale only, so it is not symmetric:
// InWindow(41, 39) holds while InWindow(39, 41) does not.
func InWindow(a, b int) bool {
	fa, fb := float64(a), float64(b)
	return fa*(1-Threshold) <= fb && fb <= fa*(1+Threshold)
}

// BucketKey returns the bucket a tempo falls into. Tempos are integers
// already, truncated toward zero by the library codec.
func BucketKey(tempo int) int {
	return tempo
}

// Vertex owns the remaining tracks of one tempo bucket.
type Vertex struct {
	key       int
	pool      []model.Track
	neighbors []int // indices into Graph.vertices, ascending by key
}

// Key returns the bucket key of the vertex.
func (v *Vertex) Key() int { return v.key }

// Len returns the number of tracks still in the pool.
func (v *Vertex) Len() int { return len(v.pool) }

// Exhausted reports whether the pool is empty.
func (v *Vertex) Exhausted() bool { return len(v.pool) == 0 }

// Graph is the tempo proximity graph. Vertices live in a contiguous slice and
// reference each other by index.
type Graph struct {
	vertices []*Vertex
	index    map[int]int
	edges    int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[int]int)}
}

// BuildGraph partitions library into tempo buckets and links every ordered
// pair of distinct bucket keys that lie within the tempo window.
func BuildGraph(library []model.Track) *Graph {
	buckets := make(map[int][]model.Track)
	for _, t := range library {
		key := BucketKey(t.Tempo)
		buckets[key] = append(buckets[key], t)
	}

	keys := make([]int, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	g := NewGraph()
	for _, key := range keys {
		g.AddVertex(key, buckets[key])
	}
	for _, a := range keys {
		for _, b := range keys {
			if a != b && InWindow(a, b) {
				g.AddEdge(a, b)
			}
		}
	}
	return g
}

// AddVertex sets the pool of the vertex for key, creating it if needed.
// Re-adding an existing key replaces its pool and keeps its edges.
func (g *Graph) AddVertex(key int, tracks []model.Track) {
	pool := slices.Clone(tracks)
	if i, ok := g.index[key]; ok {
		g.vertices[i].pool = pool
		return
	}
	g.index[key] = len(g.vertices)
	g.vertices = append(g.vertices, &Vertex{key: key, pool: pool})
}

// AddEdge adds the directed edge from → to, creating empty vertices on demand.
// Self edges and duplicate edges are ignored.
func (g *Graph) AddEdge(from, to int) {
	if from == to {
		return
	}
	if _, ok := g.index[from]; !ok {
		g.AddVertex(from, nil)
	}
	if _, ok := g.index[to]; !ok {
		g.AddVertex(to, nil)
	}

	src := g.vertices[g.index[from]]
	dst := g.index[to]
	pos, found := slices.BinarySearchFunc(src.neighbors, to, func(n int, key int) int {
		return cmp.Compare(g.vertices[n].key, key)
	})
	if found {
		return
	}
	src.neighbors = slices.Insert(src.neighbors, pos, dst)
	g.edges++
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Keys returns all bucket keys in ascending order.
func (g *Graph) Keys() []int {
	keys := make([]int, 0, len(g.vertices))
	for _, v := range g.vertices {
		keys = append(keys, v.key)
	}
	slices.Sort(keys)
	return keys
}

// Vertex returns the vertex for key.
func (g *Graph) Vertex(key int) (*Vertex, bool) {
	i, ok := g.index[key]
	if !ok {
		return nil, false
	}
	return g.vertices[i], true
}

// Neighbors returns the keys reachable from key by one edge, ascending.
func (g *Graph) Neighbors(key int) []int {
	i, ok := g.index[key]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(g.vertices[i].neighbors))
	for _, n := range g.vertices[i].neighbors {
		out = append(out, g.vertices[n].key)
	}
	return out
}

// HasEdge reports whether the directed edge from → to exists.
func (g *Graph) HasEdge(from, to int) bool {
	return slices.Contains(g.Neighbors(from), to)
}

// Pool returns a copy of the tracks still held by the vertex for key.
func (g *Graph) Pool(key int) []model.Track {
	v, ok := g.Vertex(key)
	if !ok {
		return nil
	}
	return slices.Clone(v.pool)
}

// Remaining returns the number of tracks left across all vertices.
func (g *Graph) Remaining() int {
	n := 0
	for _, v := range g.vertices {
		n += len(v.pool)
	}
	return n
}
