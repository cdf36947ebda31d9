package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// SignedArea is the shoelace area of a ring; positive for
// counter-clockwise vertex order. The ring must not repeat its first vertex.
func SignedArea(ring []v2.Vec) float64 {
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// Centroid returns the area-weighted centroid of a ring, falling back to
// the vertex average for degenerate rings.
func Centroid(ring []v2.Vec) v2.Vec {
	if len(ring) == 0 {
		return v2.Vec{}
	}
	a := SignedArea(ring)
	if math.Abs(a) < 1e-12 {
		var c v2.Vec
		for _, p := range ring {
			c = c.Add(p)
		}
		return c.MulScalar(1 / float64(len(ring)))
	}
	var cx, cy float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		cross := p.X*q.Y - q.X*p.Y
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	return v2.Vec{X: cx / (6 * a), Y: cy / (6 * a)}
}

// Bounds2 returns the 2D bounding box of a ring.
func Bounds2(ring []v2.Vec) sdf.Box2 {
	if len(ring) == 0 {
		return sdf.Box2{}
	}
	b := sdf.Box2{Min: ring[0], Max: ring[0]}
	for _, p := range ring[1:] {
		b = b.Include(p)
	}
	return b
}

// ClosestOnSegment returns the parameter t in [0,1] and the point on
// segment ab nearest to p.
func ClosestOnSegment(p, a, b v2.Vec) (float64, v2.Vec) {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return 0, a
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return t, a.Add(ab.MulScalar(t))
}

// SegmentIntersection returns the parameters (t on ab, u on cd) at which
// two segments properly cross. Parallel or non-crossing segments report
// ok=false.
func SegmentIntersection(a, b, c, d v2.Vec) (t, u float64, ok bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	denom := r.Cross(s)
	if math.Abs(denom) < 1e-12 {
		return 0, 0, false
	}
	ca := c.Sub(a)
	t = ca.Cross(s) / denom
	u = ca.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, 0, false
	}
	return t, u, true
}
