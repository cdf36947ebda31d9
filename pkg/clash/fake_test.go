package clash

import (
	"context"
	"errors"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// boxGeom is a kernel.Bounded with a fixed box.
type boxGeom struct {
	box sdf.Box3
}

func (g boxGeom) BoundingBox() (min, max [3]float64) {
	return [3]float64{g.box.Min.X, g.box.Min.Y, g.box.Min.Z},
		[3]float64{g.box.Max.X, g.box.Max.Y, g.box.Max.Z}
}

func box(x0, y0, z0, x1, y1, z1 float64) sdf.Box3 {
	return sdf.Box3{Min: v3.Vec{X: x0, Y: y0, Z: z0}, Max: v3.Vec{X: x1, Y: y1, Z: z1}}
}

var errNoGeometry = errors.New("geometry unavailable")

type fakeElement struct {
	typ     string
	name    string
	box     *sdf.Box3
	xform   *sdf.M44
	err     error
	doPanic bool
}

// fakeModel is an in-memory Model.
type fakeModel struct {
	id       string
	elements map[int]fakeElement
	// gate, when set, blocks Properties until it is closed.
	gate    chan struct{}
	entered chan struct{}
	propErr error
}

func newFakeModel(id string) *fakeModel {
	return &fakeModel{id: id, elements: make(map[int]fakeElement)}
}

func (f *fakeModel) add(expressID int, typ string, b sdf.Box3) *fakeModel {
	f.elements[expressID] = fakeElement{typ: typ, box: &b}
	return f
}

func (f *fakeModel) ID() string { return f.id }

func (f *fakeModel) Properties(ctx context.Context) (map[int]Properties, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.propErr != nil {
		return nil, f.propErr
	}
	out := make(map[int]Properties, len(f.elements))
	for id, el := range f.elements {
		out[id] = Properties{Type: el.typ, Name: el.name}
	}
	return out, nil
}

func (f *fakeModel) Fragments(ctx context.Context, expressID int) ([]Fragment, error) {
	el, ok := f.elements[expressID]
	if !ok {
		return nil, errNoGeometry
	}
	if el.doPanic {
		panic("corrupt geometry")
	}
	if el.err != nil {
		return nil, el.err
	}
	if el.box == nil {
		return nil, nil
	}
	return []Fragment{{Geometry: boxGeom{box: *el.box}, Transform: el.xform}}, nil
}

func hardRule(id string, a, b []string, tol float64) ClashRule {
	return ClashRule{
		ID:        id,
		Name:      id,
		Enabled:   true,
		SetA:      ElementFilter{Types: a},
		SetB:      ElementFilter{Types: b},
		Tolerance: tol,
		CheckType: CheckHard,
	}
}
