package plan

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EntityID names a plan entity.
type EntityID string

// EntityKind enumerates the 2D entity types of a plan.
type EntityKind int

const (
	EntityWall     EntityKind = iota // wall with thickness and height
	EntityLine                       // single sketch line
	EntityPolyline                   // open or closed sketch polyline
)

func (k EntityKind) String() string {
	switch k {
	case EntityWall:
		return "wall"
	case EntityLine:
		return "line"
	case EntityPolyline:
		return "polyline"
	default:
		return "unknown"
	}
}

// Segment is one straight piece of an entity.
type Segment struct {
	Start  v2.Vec
	End    v2.Vec
	Source EntityID
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.End.Sub(s.Start).Length()
}

// Entity is the interface room detection consumes.
type Entity interface {
	EntityID() EntityID
	Kind() EntityKind
	Segments() []Segment
}

// Wall is a straight wall defined by its centerline.
type Wall struct {
	ID        EntityID `json:"id"`
	Name      string   `json:"name,omitempty"`
	ExpressID int      `json:"express_id"`
	Start     v2.Vec   `json:"start"`
	End       v2.Vec   `json:"end"`
	Thickness float64  `json:"thickness"`
	Height    float64  `json:"height"`
	Elevation float64  `json:"elevation"` // base z
}

func (w *Wall) EntityID() EntityID { return w.ID }
func (w *Wall) Kind() EntityKind   { return EntityWall }

func (w *Wall) Segments() []Segment {
	return []Segment{{Start: w.Start, End: w.End, Source: w.ID}}
}

// Length returns the centerline length.
func (w *Wall) Length() float64 {
	return w.End.Sub(w.Start).Length()
}

// Angle returns the centerline direction in degrees, counter-clockwise from +X.
func (w *Wall) Angle() float64 {
	d := w.End.Sub(w.Start)
	return math.Atan2(d.Y, d.X) * 180 / math.Pi
}

// Line is a sketch line with no thickness.
type Line struct {
	ID    EntityID `json:"id"`
	Start v2.Vec   `json:"start"`
	End   v2.Vec   `json:"end"`
}

func (l *Line) EntityID() EntityID { return l.ID }
func (l *Line) Kind() EntityKind   { return EntityLine }

func (l *Line) Segments() []Segment {
	return []Segment{{Start: l.Start, End: l.End, Source: l.ID}}
}

// Polyline is a chain of points, optionally closed back to the first one.
type Polyline struct {
	ID     EntityID `json:"id"`
	Points []v2.Vec `json:"points"`
	Closed bool     `json:"closed"`
}

func (p *Polyline) EntityID() EntityID { return p.ID }
func (p *Polyline) Kind() EntityKind   { return EntityPolyline }

func (p *Polyline) Segments() []Segment {
	if len(p.Points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(p.Points))
	for i := 0; i+1 < len(p.Points); i++ {
		segs = append(segs, Segment{Start: p.Points[i], End: p.Points[i+1], Source: p.ID})
	}
	if p.Closed && len(p.Points) > 2 {
		segs = append(segs, Segment{Start: p.Points[len(p.Points)-1], End: p.Points[0], Source: p.ID})
	}
	return segs
}

// Element is a placed box-shaped IFC product (beam, duct, pipe...) used
// for clash checking. Position is the minimum corner before rotation;
// Rotation holds Euler angles in degrees applied about that corner.
type Element struct {
	ExpressID int    `json:"express_id"`
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Model     string `json:"model,omitempty"`
	Size      v3.Vec `json:"size"`
	Position  v3.Vec `json:"position"`
	Rotation  v3.Vec `json:"rotation"`
}
