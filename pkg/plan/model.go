package plan

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/plinth/pkg/clash"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/kernel/sdfx"
)

// WallType is the IFC type walls are reported as.
const WallType = "IfcWallStandardCase"

// Model exposes one named model of a plan to the clash manager. Walls
// belong to DefaultModel; elements belong to the model they name.
type Model struct {
	name     string
	kernel   kernel.Kernel
	walls    map[int]*Wall
	elements map[int]*Element
}

var _ clash.Model = (*Model)(nil)

// NewModels splits p into one Model per model name, in ModelNames order.
// Geometry is built with k on demand.
func NewModels(p *Plan, k kernel.Kernel) []*Model {
	byName := make(map[string]*Model)
	var models []*Model
	for _, name := range p.ModelNames() {
		m := &Model{
			name:     name,
			kernel:   k,
			walls:    make(map[int]*Wall),
			elements: make(map[int]*Element),
		}
		byName[name] = m
		models = append(models, m)
	}
	for _, w := range p.Walls() {
		byName[DefaultModel].walls[w.ExpressID] = w
	}
	for _, el := range p.Elements {
		byName[el.Model].elements[el.ExpressID] = el
	}
	return models
}

func (m *Model) ID() string { return m.name }

// Len returns the number of elements in the model.
func (m *Model) Len() int { return len(m.walls) + len(m.elements) }

func (m *Model) Properties(ctx context.Context) (map[int]clash.Properties, error) {
	props := make(map[int]clash.Properties, m.Len())
	for id, w := range m.walls {
		props[id] = clash.Properties{
			Type: WallType,
			Name: wallName(w),
			Attributes: map[string]string{
				"length":    formatFloat(w.Length()),
				"thickness": formatFloat(w.Thickness),
				"height":    formatFloat(w.Height),
			},
		}
	}
	for id, el := range m.elements {
		props[id] = clash.Properties{Type: el.Type, Name: el.Name}
	}
	return props, nil
}

// Fragments returns a single box fragment for walls and elements. Degenerate
// sizes have no geometry.
func (m *Model) Fragments(ctx context.Context, expressID int) ([]clash.Fragment, error) {
	if w, ok := m.walls[expressID]; ok {
		if w.Length() <= 0 || w.Thickness <= 0 || w.Height <= 0 {
			return nil, nil
		}
		xf := WallTransform(w)
		return []clash.Fragment{{
			Geometry:  m.kernel.Box(w.Length(), w.Thickness, w.Height),
			Transform: &xf,
		}}, nil
	}
	if el, ok := m.elements[expressID]; ok {
		if el.Size.X <= 0 || el.Size.Y <= 0 || el.Size.Z <= 0 {
			return nil, nil
		}
		xf := ElementTransform(el)
		return []clash.Fragment{{
			Geometry:  m.kernel.Box(el.Size.X, el.Size.Y, el.Size.Z),
			Transform: &xf,
		}}, nil
	}
	return nil, fmt.Errorf("plan: model %s has no element %d", m.name, expressID)
}

// WallTransform places a length x thickness x height box (min corner at the
// origin) on the wall's centerline: the box is centred across the wall,
// rotated to the wall direction and lifted to its elevation.
func WallTransform(w *Wall) sdf.M44 {
	angle := w.Angle() * math.Pi / 180
	return sdf.Translate3d(v3.Vec{X: w.Start.X, Y: w.Start.Y, Z: w.Elevation}).
		Mul(sdf.RotateZ(angle)).
		Mul(sdf.Translate3d(v3.Vec{Y: -w.Thickness / 2}))
}

// ElementTransform rotates an element about its minimum corner and moves it
// to Position.
func ElementTransform(el *Element) sdf.M44 {
	return sdf.Translate3d(el.Position).
		Mul(sdfx.RotationMatrix(el.Rotation.X, el.Rotation.Y, el.Rotation.Z))
}

func wallName(w *Wall) string {
	if w.Name != "" {
		return w.Name
	}
	return string(w.ID)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
