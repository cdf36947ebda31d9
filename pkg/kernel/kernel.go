// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling behind this interface so plan
// geometry (walls, elements, room slabs) can be built and meshed without
// the rest of the system knowing which backend is in use.
package kernel

import v2 "github.com/deadsy/sdfx/vec/v2"

// Bounded is anything that can report an axis-aligned bounding box.
// Both kernel solids and meshes satisfy it.
type Bounded interface {
	BoundingBox() (min, max [3]float64)
}

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	Bounded
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Extrude(outline []v2.Vec, height float64) (Solid, error)

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
