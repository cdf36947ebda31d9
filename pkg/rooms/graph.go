package rooms

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/plan"
)

type edgeKey struct {
	a, b int // a < b
}

func newEdgeKey(u, v int) edgeKey {
	if u > v {
		u, v = v, u
	}
	return edgeKey{a: u, b: v}
}

// wallGraph is an undirected planar graph built from plan segments.
type wallGraph struct {
	snap    float64
	nodes   []v2.Vec
	adj     [][]int
	sources map[edgeKey][]plan.EntityID
}

// buildGraph splits segments at junctions and crossings, snaps endpoints
// together and deduplicates edges.
func buildGraph(segs []plan.Segment, snap float64) *wallGraph {
	g := &wallGraph{snap: snap, sources: make(map[edgeKey][]plan.EntityID)}

	for _, s := range splitSegments(segs, snap) {
		u, v := g.node(s.Start), g.node(s.End)
		if u == v {
			continue
		}
		k := newEdgeKey(u, v)
		if _, exists := g.sources[k]; !exists {
			g.adj[u] = append(g.adj[u], v)
			g.adj[v] = append(g.adj[v], u)
		}
		g.sources[k] = appendUnique(g.sources[k], s.Source)
	}
	return g
}

// node returns the id of the node within snap of p, creating one if none.
func (g *wallGraph) node(p v2.Vec) int {
	for i, n := range g.nodes {
		if n.Sub(p).Length() <= g.snap {
			return i
		}
	}
	g.nodes = append(g.nodes, p)
	g.adj = append(g.adj, nil)
	return len(g.nodes) - 1
}

// splitSegments cuts every segment where another segment's endpoint lies
// on its interior or where two segments cross.
func splitSegments(segs []plan.Segment, snap float64) []plan.Segment {
	var live []plan.Segment
	for _, s := range segs {
		if s.Length() > snap {
			live = append(live, s)
		}
	}

	cuts := make([][]float64, len(live))
	addCut := func(i int, p v2.Vec) {
		s := live[i]
		if p.Sub(s.Start).Length() <= snap || p.Sub(s.End).Length() <= snap {
			return
		}
		t, _ := geom.ClosestOnSegment(p, s.Start, s.End)
		cuts[i] = append(cuts[i], t)
	}

	for i := range live {
		for j := range live {
			if i == j {
				continue
			}
			a, b := live[i], live[j]
			for _, e := range []v2.Vec{b.Start, b.End} {
				if _, q := geom.ClosestOnSegment(e, a.Start, a.End); q.Sub(e).Length() <= snap {
					addCut(i, q)
				}
			}
			if j > i {
				if t, _, ok := geom.SegmentIntersection(a.Start, a.End, b.Start, b.End); ok {
					p := a.Start.Add(a.End.Sub(a.Start).MulScalar(t))
					addCut(i, p)
					addCut(j, p)
				}
			}
		}
	}

	var out []plan.Segment
	for i, s := range live {
		if len(cuts[i]) == 0 {
			out = append(out, s)
			continue
		}
		ts := append([]float64{0}, cuts[i]...)
		ts = append(ts, 1)
		sort.Float64s(ts)
		d := s.End.Sub(s.Start)
		for k := 0; k+1 < len(ts); k++ {
			p0 := s.Start.Add(d.MulScalar(ts[k]))
			p1 := s.Start.Add(d.MulScalar(ts[k+1]))
			if p1.Sub(p0).Length() <= snap {
				continue
			}
			out = append(out, plan.Segment{Start: p0, End: p1, Source: s.Source})
		}
	}
	return out
}

// prune removes degree-1 nodes until none are left, so chains that lead
// nowhere cannot take part in a face.
func (g *wallGraph) prune() {
	var queue []int
	for i, nbrs := range g.adj {
		if len(nbrs) == 1 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if len(g.adj[u]) != 1 {
			continue
		}
		v := g.adj[u][0]
		g.adj[u] = nil
		g.adj[v] = remove(g.adj[v], u)
		delete(g.sources, newEdgeKey(u, v))
		if len(g.adj[v]) == 1 {
			queue = append(queue, v)
		}
	}
}

// sortAdjacency orders each node's neighbours counter-clockwise by angle.
func (g *wallGraph) sortAdjacency() {
	for u, nbrs := range g.adj {
		origin := g.nodes[u]
		sort.Slice(nbrs, func(i, j int) bool {
			return angle(origin, g.nodes[nbrs[i]]) < angle(origin, g.nodes[nbrs[j]])
		})
	}
}

func angle(from, to v2.Vec) float64 {
	d := to.Sub(from)
	return math.Atan2(d.Y, d.X)
}

// face is a closed walk of node ids.
type face struct {
	nodes []int
	ring  []v2.Vec
	area  float64
}

// faces walks every half-edge once. From half-edge u->v the walk continues
// along the edge immediately clockwise of v->u, which keeps the face on the
// left: bounded faces come out counter-clockwise, the outer face clockwise.
func (g *wallGraph) faces() []face {
	g.sortAdjacency()

	visited := make(map[[2]int]bool)
	halfEdges := 0
	for _, nbrs := range g.adj {
		halfEdges += len(nbrs)
	}

	var out []face
	for u0, nbrs := range g.adj {
		for _, v0 := range nbrs {
			if visited[[2]int{u0, v0}] {
				continue
			}
			var f face
			u, v := u0, v0
			for steps := 0; steps <= halfEdges; steps++ {
				visited[[2]int{u, v}] = true
				f.nodes = append(f.nodes, u)
				f.ring = append(f.ring, g.nodes[u])
				u, v = v, g.nextAround(v, u)
				if u == u0 && v == v0 {
					break
				}
				if visited[[2]int{u, v}] {
					// Walk re-entered another face; drop it.
					f.nodes = nil
					break
				}
			}
			if len(f.nodes) < 3 {
				continue
			}
			f.area = geom.SignedArea(f.ring)
			out = append(out, f)
		}
	}
	return out
}

// nextAround returns the neighbour of v that precedes u in v's
// counter-clockwise ordering.
func (g *wallGraph) nextAround(v, u int) int {
	nbrs := g.adj[v]
	for i, n := range nbrs {
		if n == u {
			return nbrs[(i-1+len(nbrs))%len(nbrs)]
		}
	}
	return u
}

// wallIDs returns the distinct entities along a face, in walk order.
func (g *wallGraph) wallIDs(f face) []plan.EntityID {
	var ids []plan.EntityID
	for i, u := range f.nodes {
		v := f.nodes[(i+1)%len(f.nodes)]
		for _, id := range g.sources[newEdgeKey(u, v)] {
			ids = appendUnique(ids, id)
		}
	}
	return ids
}

// perimeter sums the face's edges, counting an edge walked on both sides
// (a wall reaching into the face from its boundary) once.
func (g *wallGraph) perimeter(f face) float64 {
	seen := make(map[edgeKey]bool, len(f.nodes))
	var total float64
	for i, u := range f.nodes {
		v := f.nodes[(i+1)%len(f.nodes)]
		k := newEdgeKey(u, v)
		if seen[k] {
			continue
		}
		seen[k] = true
		total += g.nodes[v].Sub(g.nodes[u]).Length()
	}
	return total
}

// simplify drops vertices that lie on the straight line through their
// neighbours, such as junction nodes left by splitting.
func simplify(ring []v2.Vec, tol float64) []v2.Vec {
	if len(ring) <= 3 {
		return ring
	}
	out := make([]v2.Vec, 0, len(ring))
	for i, p := range ring {
		prev := ring[(i-1+len(ring))%len(ring)]
		next := ring[(i+1)%len(ring)]
		if _, q := geom.ClosestOnSegment(p, prev, next); q.Sub(p).Length() <= tol {
			if p.Sub(prev).Dot(next.Sub(p)) > 0 {
				continue
			}
		}
		out = append(out, p)
	}
	if len(out) < 3 {
		return ring
	}
	return out
}

func appendUnique(ids []plan.EntityID, id plan.EntityID) []plan.EntityID {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

func remove(nbrs []int, u int) []int {
	for i, n := range nbrs {
		if n == u {
			return append(nbrs[:i], nbrs[i+1:]...)
		}
	}
	return nbrs
}
