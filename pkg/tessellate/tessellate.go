// Package tessellate turns a plan into triangle meshes using a geometry
// kernel. One mesh is produced per wall and per element; detected rooms can
// be added as floor slabs.
package tessellate

import (
	"fmt"

	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/plan"
	"github.com/chazu/plinth/pkg/rooms"
)

// Tessellate builds a mesh for every wall and element of p. Walls and
// elements with a degenerate size are skipped. The plan is never mutated.
func Tessellate(p *plan.Plan, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if p == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, w := range p.Walls() {
		if w.Length() <= 0 || w.Thickness <= 0 || w.Height <= 0 {
			continue
		}
		m, err := k.ToMesh(wallSolid(k, w))
		if err != nil {
			return nil, fmt.Errorf("tessellate: wall %s: %w", w.ID, err)
		}
		m.Name = string(w.ID)
		meshes = append(meshes, m)
	}

	for _, el := range p.Elements {
		if el.Size.X <= 0 || el.Size.Y <= 0 || el.Size.Z <= 0 {
			continue
		}
		m, err := k.ToMesh(elementSolid(k, el))
		if err != nil {
			return nil, fmt.Errorf("tessellate: element #%d: %w", el.ExpressID, err)
		}
		m.Name = elementName(el)
		meshes = append(meshes, m)
	}

	return meshes, nil
}

// Slabs extrudes each room outline into a floor slab of the given
// thickness, hanging below z=0.
func Slabs(rs []*rooms.Room, k kernel.Kernel, thickness float64) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, r := range rs {
		solid, err := k.Extrude(r.Vertices, thickness)
		if err != nil {
			return nil, fmt.Errorf("tessellate: slab %s: %w", r.Name, err)
		}
		m, err := k.ToMesh(k.Translate(solid, 0, 0, -thickness))
		if err != nil {
			return nil, fmt.Errorf("tessellate: slab %s: %w", r.Name, err)
		}
		m.Name = "slab:" + r.Name
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// wallSolid places the wall box the same way plan.WallTransform does:
// centred across the centerline, turned to the wall direction, then moved
// to the start point and elevation.
func wallSolid(k kernel.Kernel, w *plan.Wall) kernel.Solid {
	s := k.Box(w.Length(), w.Thickness, w.Height)
	s = k.Translate(s, 0, -w.Thickness/2, 0)
	if a := w.Angle(); a != 0 {
		s = k.Rotate(s, 0, 0, a)
	}
	return k.Translate(s, w.Start.X, w.Start.Y, w.Elevation)
}

// elementSolid applies rotation first, then translation.
func elementSolid(k kernel.Kernel, el *plan.Element) kernel.Solid {
	s := k.Box(el.Size.X, el.Size.Y, el.Size.Z)
	if r := el.Rotation; r.X != 0 || r.Y != 0 || r.Z != 0 {
		s = k.Rotate(s, r.X, r.Y, r.Z)
	}
	return k.Translate(s, el.Position.X, el.Position.Y, el.Position.Z)
}

func elementName(el *plan.Element) string {
	if el.Name != "" {
		return el.Name
	}
	return fmt.Sprintf("#%d", el.ExpressID)
}
