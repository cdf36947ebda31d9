// Package geom holds the small amount of 2D/3D arithmetic shared by room
// and clash detection, expressed on sdfx vector and box types.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EmptyBox returns an inverted box (min = +Inf, max = -Inf). It contains
// nothing, intersects nothing and has zero volume.
func EmptyBox() sdf.Box3 {
	inf := math.Inf(1)
	return sdf.Box3{
		Min: v3.Vec{X: inf, Y: inf, Z: inf},
		Max: v3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// BoxFromArrays converts the [3]float64 pair reported by kernel.Bounded.
func BoxFromArrays(min, max [3]float64) sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: min[0], Y: min[1], Z: min[2]},
		Max: v3.Vec{X: max[0], Y: max[1], Z: max[2]},
	}
}

// IsEmpty reports whether b is inverted on any axis or has NaN bounds.
func IsEmpty(b sdf.Box3) bool {
	return !(b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z)
}

// Intersects reports whether a and b share at least one point. Bounds are
// closed, so boxes that only touch intersect.
func Intersects(a, b sdf.Box3) bool {
	if IsEmpty(a) || IsEmpty(b) {
		return false
	}
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

// Overlap returns the intersection box of a and b, or an empty box.
func Overlap(a, b sdf.Box3) sdf.Box3 {
	if !Intersects(a, b) {
		return EmptyBox()
	}
	return sdf.Box3{
		Min: v3.Vec{
			X: math.Max(a.Min.X, b.Min.X),
			Y: math.Max(a.Min.Y, b.Min.Y),
			Z: math.Max(a.Min.Z, b.Min.Z),
		},
		Max: v3.Vec{
			X: math.Min(a.Max.X, b.Max.X),
			Y: math.Min(a.Max.Y, b.Max.Y),
			Z: math.Min(a.Max.Z, b.Max.Z),
		},
	}
}

// Volume returns the box volume; empty boxes have zero volume.
func Volume(b sdf.Box3) float64 {
	if IsEmpty(b) {
		return 0
	}
	return (b.Max.X - b.Min.X) * (b.Max.Y - b.Min.Y) * (b.Max.Z - b.Min.Z)
}

// Center returns the midpoint of b.
func Center(b sdf.Box3) v3.Vec {
	return v3.Vec{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// Expand grows b by d on every side. Empty boxes stay empty.
func Expand(b sdf.Box3, d float64) sdf.Box3 {
	if IsEmpty(b) || d == 0 {
		return b
	}
	return sdf.Box3{
		Min: v3.Vec{X: b.Min.X - d, Y: b.Min.Y - d, Z: b.Min.Z - d},
		Max: v3.Vec{X: b.Max.X + d, Y: b.Max.Y + d, Z: b.Max.Z + d},
	}
}

// Gap returns the largest per-axis separation between a and b; zero or
// negative when they intersect.
func Gap(a, b sdf.Box3) float64 {
	g := math.Inf(-1)
	g = math.Max(g, math.Max(a.Min.X-b.Max.X, b.Min.X-a.Max.X))
	g = math.Max(g, math.Max(a.Min.Y-b.Max.Y, b.Min.Y-a.Max.Y))
	g = math.Max(g, math.Max(a.Min.Z-b.Max.Z, b.Min.Z-a.Max.Z))
	return g
}

// Transform maps b through m and returns the axis-aligned result. A nil
// matrix is the identity.
func Transform(b sdf.Box3, m *sdf.M44) sdf.Box3 {
	if m == nil || IsEmpty(b) {
		return b
	}
	return m.MulBox(b)
}
