package geom

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func box(x0, y0, z0, x1, y1, z1 float64) sdf.Box3 {
	return sdf.Box3{Min: v3.Vec{X: x0, Y: y0, Z: z0}, Max: v3.Vec{X: x1, Y: y1, Z: z1}}
}

func TestIntersectsClosedBounds(t *testing.T) {
	a := box(0, 0, 0, 1, 1, 1)
	tests := []struct {
		name string
		b    sdf.Box3
		want bool
	}{
		{"overlap", box(0.5, 0.5, 0.5, 2, 2, 2), true},
		{"touching face", box(1, 0, 0, 2, 1, 1), true},
		{"separated", box(1.01, 0, 0, 2, 1, 1), false},
		{"contained", box(0.2, 0.2, 0.2, 0.3, 0.3, 0.3), true},
		{"flat inside", box(0.5, 0, 0, 0.5, 1, 1), true},
		{"empty", EmptyBox(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intersects(a, tt.b))
			assert.Equal(t, tt.want, Intersects(tt.b, a))
		})
	}
}

func TestOverlapVolumeCenter(t *testing.T) {
	a := box(0, 0, 0, 2, 2, 2)
	b := box(1, 1, 1, 3, 3, 3)
	o := Overlap(a, b)
	assert.Equal(t, box(1, 1, 1, 2, 2, 2), o)
	assert.InDelta(t, 1.0, Volume(o), 1e-12)
	assert.Equal(t, v3.Vec{X: 1.5, Y: 1.5, Z: 1.5}, Center(o))

	assert.True(t, IsEmpty(Overlap(a, box(5, 5, 5, 6, 6, 6))))
	assert.Zero(t, Volume(EmptyBox()))
}

func TestExpandAndGap(t *testing.T) {
	a := box(0, 0, 0, 1, 1, 1)
	b := box(1.5, 0, 0, 2, 1, 1)
	assert.InDelta(t, 0.5, Gap(a, b), 1e-12)
	assert.False(t, Intersects(a, b))
	assert.True(t, Intersects(Expand(a, 0.5), b))
	assert.False(t, Intersects(Expand(a, 0.49), b))
	assert.True(t, IsEmpty(Expand(EmptyBox(), 10)))
	assert.Less(t, Gap(a, box(0.5, 0.5, 0.5, 2, 2, 2)), 0.0)
}

func TestTransformNilIsIdentity(t *testing.T) {
	a := box(1, 2, 3, 4, 5, 6)
	assert.Equal(t, a, Transform(a, nil))

	m := sdf.Translate3d(v3.Vec{X: 10})
	got := Transform(a, &m)
	assert.InDelta(t, 11.0, got.Min.X, 1e-12)
	assert.InDelta(t, 14.0, got.Max.X, 1e-12)
}

func TestPolygonMeasures(t *testing.T) {
	square := []v2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	assert.InDelta(t, 1.0, SignedArea(square), 1e-12)
	c := Centroid(square)
	assert.InDelta(t, 0.5, c.X, 1e-12)
	assert.InDelta(t, 0.5, c.Y, 1e-12)

	reversed := []v2.Vec{square[3], square[2], square[1], square[0]}
	assert.InDelta(t, -1.0, SignedArea(reversed), 1e-12)

	lshape := []v2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 2}, {X: 0, Y: 2}}
	assert.InDelta(t, 3.0, SignedArea(lshape), 1e-12)

	b := Bounds2(lshape)
	assert.Equal(t, v2.Vec{X: 0, Y: 0}, b.Min)
	assert.Equal(t, v2.Vec{X: 2, Y: 2}, b.Max)

	assert.Zero(t, SignedArea(square[:2]))
}

func TestSegmentHelpers(t *testing.T) {
	tt, p := ClosestOnSegment(v2.Vec{X: 0.5, Y: 1}, v2.Vec{}, v2.Vec{X: 1})
	assert.InDelta(t, 0.5, tt, 1e-12)
	assert.Equal(t, v2.Vec{X: 0.5}, p)

	tc, u, ok := SegmentIntersection(v2.Vec{X: 0, Y: 0}, v2.Vec{X: 2, Y: 2}, v2.Vec{X: 0, Y: 2}, v2.Vec{X: 2, Y: 0})
	assert.True(t, ok)
	assert.InDelta(t, 0.5, tc, 1e-12)
	assert.InDelta(t, 0.5, u, 1e-12)

	_, _, ok = SegmentIntersection(v2.Vec{}, v2.Vec{X: 1}, v2.Vec{Y: 1}, v2.Vec{X: 1, Y: 1})
	assert.False(t, ok, "parallel segments do not cross")
}

func TestBoxProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	coord := gen.Float64Range(-1000, 1000)
	size := gen.Float64Range(0, 100)

	properties.Property("intersection is symmetric", prop.ForAll(
		func(x0, y0, s0, x1, y1, s1 float64) bool {
			a := box(x0, y0, 0, x0+s0, y0+s0, s0)
			b := box(x1, y1, 0, x1+s1, y1+s1, s1)
			return Intersects(a, b) == Intersects(b, a)
		},
		coord, coord, size, coord, coord, size,
	))

	properties.Property("overlap fits in both boxes", prop.ForAll(
		func(x0, y0, s0, x1, y1, s1 float64) bool {
			a := box(x0, y0, 0, x0+s0, y0+s0, s0)
			b := box(x1, y1, 0, x1+s1, y1+s1, s1)
			v := Volume(Overlap(a, b))
			return v >= 0 && v <= Volume(a)+1e-9 && v <= Volume(b)+1e-9
		},
		coord, coord, size, coord, coord, size,
	))

	properties.Property("expanding by the gap makes boxes touch", prop.ForAll(
		func(x0, s0, dx float64) bool {
			a := box(x0, 0, 0, x0+s0, 1, 1)
			b := box(x0+s0+dx, 0, 0, x0+s0+dx+1, 1, 1)
			return Intersects(Expand(a, Gap(a, b)+1e-9), b)
		},
		coord, size, gen.Float64Range(0.001, 50),
	))

	properties.Property("area is translation invariant", prop.ForAll(
		func(w, h, dx, dy float64) bool {
			ring := []v2.Vec{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
			moved := make([]v2.Vec, len(ring))
			for i, p := range ring {
				moved[i] = p.Add(v2.Vec{X: dx, Y: dy})
			}
			return math.Abs(SignedArea(ring)-SignedArea(moved)) < 1e-6*math.Max(1, w*h)
		},
		gen.Float64Range(0.1, 50), gen.Float64Range(0.1, 50), coord, coord,
	))

	properties.TestingRun(t)
}
