package rooms

import (
	"fmt"
	"math"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/plinth/pkg/plan"
)

// RoomType labels what a room is used for.
type RoomType int

const (
	TypeUndefined RoomType = iota
	TypeLiving
	TypeBedroom
	TypeKitchen
	TypeBathroom
	TypeHallway
	TypeDining
	TypeOffice
	TypeStorage
	TypeUtility
)

var roomTypeNames = []string{
	"undefined", "living", "bedroom", "kitchen", "bathroom",
	"hallway", "dining", "office", "storage", "utility",
}

func (t RoomType) String() string {
	if t < 0 || int(t) >= len(roomTypeNames) {
		return fmt.Sprintf("RoomType(%d)", int(t))
	}
	return roomTypeNames[t]
}

// ParseRoomType converts a name such as "bedroom" to a RoomType.
func ParseRoomType(s string) (RoomType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range roomTypeNames {
		if name == s {
			return RoomType(i), nil
		}
	}
	return TypeUndefined, fmt.Errorf("rooms: unknown room type %q", s)
}

func (t RoomType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *RoomType) UnmarshalText(b []byte) error {
	v, err := ParseRoomType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Room is a closed region bounded by plan entities. Vertices run
// counter-clockwise and do not repeat the first vertex. A wall that reaches
// into the room from its boundary is walked out and back, so its vertices
// appear twice; Perimeter counts it once.
type Room struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       RoomType        `json:"type"`
	Vertices   []v2.Vec        `json:"vertices"`
	SignedArea float64         `json:"signed_area"`
	Area       float64         `json:"area"`
	Perimeter  float64         `json:"perimeter"`
	Centroid   v2.Vec          `json:"centroid"`
	Bounds     sdf.Box2        `json:"bounds"`
	WallIDs    []plan.EntityID `json:"wall_ids,omitempty"`
}

// Shape returns the room outline as an sdfx 2D signed distance field.
func (r *Room) Shape() (sdf.SDF2, error) {
	return sdf.Polygon2D(r.Vertices)
}

// Contains reports whether p lies inside the room or on its boundary.
func (r *Room) Contains(p v2.Vec) bool {
	if len(r.Vertices) < 3 {
		return false
	}
	s, err := r.Shape()
	if err != nil {
		return false
	}
	return contains(s, p)
}

func contains(s sdf.SDF2, p v2.Vec) bool {
	return s.Evaluate(p) <= 1e-9
}

// Size returns the width and depth of the room's bounding box.
func (r *Room) Size() v2.Vec {
	return r.Bounds.Max.Sub(r.Bounds.Min)
}

// AspectRatio is the long side of the bounding box over the short side,
// or 0 for a degenerate room.
func (r *Room) AspectRatio() float64 {
	s := r.Size()
	long, short := math.Max(s.X, s.Y), math.Min(s.X, s.Y)
	if short <= 0 {
		return 0
	}
	return long / short
}

func (r *Room) String() string {
	return fmt.Sprintf("%s (%s) area=%.3f perimeter=%.3f", r.Name, r.Type, r.Area, r.Perimeter)
}
