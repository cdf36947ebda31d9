package plan

import "fmt"

// DefaultModel is the model name walls and unassigned elements belong to.
const DefaultModel = "architecture"

// unitsPerMeter maps the supported plan units to their scale.
var unitsPerMeter = map[string]float64{
	"mm": 1000,
	"cm": 100,
	"m":  1,
}

// UnitsPerMeter returns how many plan units make one meter, and false for
// unknown unit names.
func UnitsPerMeter(units string) (float64, bool) {
	upm, ok := unitsPerMeter[units]
	return upm, ok
}

// Plan is the top-level structure produced by script evaluation.
type Plan struct {
	Entities []Entity   `json:"-"`
	Elements []*Element `json:"elements"`
	Units    string     `json:"units"`

	index       map[EntityID]Entity
	nextExpress int
}

// New creates an empty plan in millimeters.
func New() *Plan {
	return &Plan{
		Units: "mm",
		index: make(map[EntityID]Entity),
	}
}

// AddEntity appends an entity. Walls without an express id are given one.
// Duplicate ids are not rejected here; Validate reports them.
func (p *Plan) AddEntity(e Entity) {
	if w, ok := e.(*Wall); ok && w.ExpressID == 0 {
		w.ExpressID = p.nextExpressID()
	}
	p.Entities = append(p.Entities, e)
	if _, exists := p.index[e.EntityID()]; !exists {
		p.index[e.EntityID()] = e
	}
}

// AddElement appends an element, assigning an express id when missing.
func (p *Plan) AddElement(el *Element) {
	if el.ExpressID == 0 {
		el.ExpressID = p.nextExpressID()
	} else if el.ExpressID > p.nextExpress {
		p.nextExpress = el.ExpressID
	}
	if el.Model == "" {
		el.Model = DefaultModel
	}
	p.Elements = append(p.Elements, el)
}

func (p *Plan) nextExpressID() int {
	p.nextExpress++
	return p.nextExpress
}

// Lookup returns the first entity with the given id, or nil.
func (p *Plan) Lookup(id EntityID) Entity {
	return p.index[id]
}

// MustLookup returns the entity with the given id, or panics.
func (p *Plan) MustLookup(id EntityID) Entity {
	e := p.Lookup(id)
	if e == nil {
		panic(fmt.Sprintf("plan: no entity %q", id))
	}
	return e
}

// Walls returns all walls in insertion order.
func (p *Plan) Walls() []*Wall {
	var walls []*Wall
	for _, e := range p.Entities {
		if w, ok := e.(*Wall); ok {
			walls = append(walls, w)
		}
	}
	return walls
}

// UnitsPerMeter returns the scale of the plan's units, defaulting to
// millimeters when the unit name is unknown.
func (p *Plan) UnitsPerMeter() float64 {
	if upm, ok := UnitsPerMeter(p.Units); ok {
		return upm
	}
	return unitsPerMeter["mm"]
}

// EntityCount returns the number of 2D entities.
func (p *Plan) EntityCount() int {
	return len(p.Entities)
}

// ModelNames returns the distinct model names in first-seen order. The
// default model is listed first when the plan has walls.
func (p *Plan) ModelNames() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	if len(p.Walls()) > 0 {
		add(DefaultModel)
	}
	for _, el := range p.Elements {
		add(el.Model)
	}
	return names
}
