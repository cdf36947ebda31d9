// Package rooms finds closed rooms in a floor plan.
//
// Plan segments are turned into a planar graph: endpoints within a snap
// tolerance are merged, segments are split where they meet or cross, and
// dangling chains are pruned. Each bounded face of the graph becomes a
// Room. Detection is stateless and never fails; degenerate input simply
// yields fewer rooms.
package rooms

import (
	"fmt"
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chazu/plinth/pkg/events"
	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/logger"
	"github.com/chazu/plinth/pkg/metrics"
	"github.com/chazu/plinth/pkg/plan"
)

// Config holds detection tolerances, in plan units.
type Config struct {
	// SnapTolerance merges endpoints closer than this.
	SnapTolerance float64 `yaml:"snap_tolerance" validate:"gt=0"`
	// MinArea rejects rings with a smaller area.
	MinArea float64 `yaml:"min_area" validate:"gte=0"`
	// MatchDistance lets UpdateRooms match rooms whose centroids are this
	// close even when the old centroid falls outside the new outline.
	MatchDistance float64 `yaml:"match_distance" validate:"gte=0"`
	// UnitsPerMeter converts plan units for classification.
	UnitsPerMeter float64 `yaml:"units_per_meter" validate:"gt=0"`
}

// DefaultConfig works for plans in meters.
func DefaultConfig() Config {
	return Config{
		SnapTolerance: 1e-3,
		MinArea:       1e-6,
		MatchDistance: 0,
		UnitsPerMeter: 1,
	}
}

// Detector turns plan entities into rooms.
type Detector struct {
	cfg     Config
	bus     *events.Bus
	log     *logger.Logger
	metrics *metrics.Registry
}

// Option configures a Detector.
type Option func(*Detector)

// WithConfig sets detection tolerances.
func WithConfig(cfg Config) Option {
	return func(d *Detector) { d.cfg = cfg }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(d *Detector) { d.log = l }
}

// WithMetrics records detection passes in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(d *Detector) { d.metrics = r }
}

// NewDetector creates a detector that announces results on bus. A nil bus
// disables events.
func NewDetector(bus *events.Bus, opts ...Option) *Detector {
	d := &Detector{cfg: DefaultConfig(), bus: bus, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the detector's tolerances.
func (d *Detector) Config() Config {
	return d.cfg
}

// DetectRooms returns one room per bounded face of the entities' graph,
// ordered by centroid (bottom to top, then left to right) and named
// "Room 1", "Room 2", ... in that order.
func (d *Detector) DetectRooms(entities []plan.Entity) []*Room {
	rooms := d.detect(entities)
	nameRooms(rooms)
	d.announce(rooms)
	return rooms
}

// UpdateRooms re-runs detection and carries id, name and type over from
// previous rooms. A new room matches the nearest unmatched previous room
// whose centroid lies inside it or within MatchDistance of its centroid.
func (d *Detector) UpdateRooms(entities []plan.Entity, previous []*Room) []*Room {
	rooms := d.detect(entities)
	matched := d.match(rooms, previous)
	nameRooms(rooms)
	d.log.Debug("rooms updated", "rooms", len(rooms), "matched", matched, "previous", len(previous))
	d.announce(rooms)
	return rooms
}

// DetectRoomsWithTypes detects rooms and classifies them.
func (d *Detector) DetectRoomsWithTypes(entities []plan.Entity) []*Room {
	rooms := d.detect(entities)
	nameRooms(rooms)
	ClassifyRooms(rooms, d.cfg.UnitsPerMeter)
	d.announce(rooms)
	return rooms
}

func (d *Detector) announce(rooms []*Room) {
	d.metrics.RecordRooms(len(rooms))
	d.bus.Publish(events.RoomsUpdated, events.RoomsChanged{Rooms: len(rooms)})
}

func (d *Detector) detect(entities []plan.Entity) []*Room {
	var segs []plan.Segment
	for _, e := range entities {
		if e == nil {
			continue
		}
		segs = append(segs, e.Segments()...)
	}
	if len(segs) == 0 {
		return nil
	}

	g := buildGraph(segs, d.cfg.SnapTolerance)
	g.prune()

	var rooms []*Room
	for _, f := range g.faces() {
		if f.area <= 0 {
			continue // outer face of a component
		}
		if f.area <= d.cfg.MinArea {
			d.log.Debug("skipping degenerate ring", "area", f.area, "vertices", len(f.ring))
			continue
		}
		rooms = append(rooms, newRoom(simplify(f.ring, d.cfg.SnapTolerance), g.perimeter(f), g.wallIDs(f)))
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := rooms[i].Centroid, rooms[j].Centroid
		if math.Abs(a.Y-b.Y) > d.cfg.SnapTolerance {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	d.log.Debug("rooms detected", "segments", len(segs), "nodes", len(g.nodes), "rooms", len(rooms))
	return rooms
}

func newRoom(ring []v2.Vec, perimeter float64, walls []plan.EntityID) *Room {
	signed := geom.SignedArea(ring)
	return &Room{
		ID:         uuid.NewString(),
		Type:       TypeUndefined,
		Vertices:   ring,
		SignedArea: signed,
		Area:       math.Abs(signed),
		Perimeter:  perimeter,
		Centroid:   geom.Centroid(ring),
		Bounds:     geom.Bounds2(ring),
		WallIDs:    walls,
	}
}

type candidate struct {
	room, prev int
	dist       float64
}

// match copies identity from previous rooms onto rooms and returns how
// many were matched.
func (d *Detector) match(rooms, previous []*Room) int {
	if len(rooms) == 0 || len(previous) == 0 {
		return 0
	}

	var cands []candidate
	for i, r := range rooms {
		shape, err := r.Shape()
		for j, p := range previous {
			if p == nil {
				continue
			}
			dist := r.Centroid.Sub(p.Centroid).Length()
			inside := err == nil && contains(shape, p.Centroid)
			if inside || dist <= d.cfg.MatchDistance {
				cands = append(cands, candidate{room: i, prev: j, dist: dist})
			}
		}
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })

	usedRoom := make(map[int]bool)
	usedPrev := make(map[int]bool)
	for _, c := range cands {
		if usedRoom[c.room] || usedPrev[c.prev] {
			continue
		}
		usedRoom[c.room], usedPrev[c.prev] = true, true
		r, p := rooms[c.room], previous[c.prev]
		r.ID, r.Name, r.Type = p.ID, p.Name, p.Type
	}
	return len(usedRoom)
}

// nameRooms gives every unnamed room the lowest free "Room N" name.
func nameRooms(rooms []*Room) {
	taken := lo.Associate(rooms, func(r *Room) (string, bool) { return r.Name, true })
	n := 1
	for _, r := range rooms {
		if r.Name != "" {
			continue
		}
		for taken[fmt.Sprintf("Room %d", n)] {
			n++
		}
		r.Name = fmt.Sprintf("Room %d", n)
		taken[r.Name] = true
	}
}
