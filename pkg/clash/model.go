package clash

import (
	"context"
	"fmt"

	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/kernel"
)

// Properties describes one element of a model.
type Properties struct {
	Type       string
	Name       string
	Attributes map[string]string
}

// Fragment is one piece of an element's geometry. Transform places the
// geometry in world space; nil means identity.
type Fragment struct {
	Geometry  kernel.Bounded
	Transform *sdf.M44
}

// Model is a loaded building model the manager can check.
type Model interface {
	// ID returns a stable identifier, unique among loaded models.
	ID() string
	// Properties returns every element keyed by express id.
	Properties(ctx context.Context) (map[int]Properties, error)
	// Fragments returns the geometry for one element. An element with no
	// geometry returns an empty slice.
	Fragments(ctx context.Context, expressID int) ([]Fragment, error)
}

// elementBox computes the world-space bounding box of an element from its
// first fragment. Missing geometry yields an empty box. Panics inside a
// model's geometry are converted to errors.
func elementBox(ctx context.Context, m Model, expressID int) (box sdf.Box3, err error) {
	defer func() {
		if r := recover(); r != nil {
			box = geom.EmptyBox()
			err = fmt.Errorf("clash: geometry for %s:%d panicked: %v", m.ID(), expressID, r)
		}
	}()

	frags, err := m.Fragments(ctx, expressID)
	if err != nil {
		return geom.EmptyBox(), fmt.Errorf("clash: fragments for %s:%d: %w", m.ID(), expressID, err)
	}
	if len(frags) == 0 || frags[0].Geometry == nil {
		return geom.EmptyBox(), nil
	}
	f := frags[0]
	return geom.Transform(geom.BoxFromArrays(f.Geometry.BoundingBox()), f.Transform), nil
}
