package engine

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/plinth/pkg/plan"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Wall defaults in meters, scaled to the plan's units.
const (
	defaultWallThickness = 0.2
	defaultWallHeight    = 2.7
)

// builder accumulates entities into a plan during one evaluation. Generated
// ids are numbered per kind, so the same script always yields the same ids.
type builder struct {
	p      *plan.Plan
	counts map[string]int
}

func (b *builder) nextID(kind string) plan.EntityID {
	b.counts[kind]++
	return plan.EntityID(fmt.Sprintf("%s-%d", kind, b.counts[kind]))
}

// entityID returns the explicit id from the arguments or a generated one.
func (b *builder) entityID(pa kwArgs, kind string) plan.EntityID {
	if id, ok := pa.id(); ok {
		return id
	}
	return b.nextID(kind)
}

// wallSection reads the cross-section keywords shared by wall and rect.
func (b *builder) wallSection(pa kwArgs) (thickness, height, elevation float64, err error) {
	upm := b.p.UnitsPerMeter()
	if thickness, err = pa.floatArg("thickness", defaultWallThickness*upm); err != nil {
		return
	}
	if height, err = pa.floatArg("height", defaultWallHeight*upm); err != nil {
		return
	}
	elevation, err = pa.floatArg("elevation", 0)
	return
}

func (b *builder) addWall(id plan.EntityID, name string, from, to v2.Vec, thickness, height, elevation float64) {
	b.p.AddEntity(&plan.Wall{
		ID:        id,
		Name:      name,
		Start:     from,
		End:       to,
		Thickness: thickness,
		Height:    height,
		Elevation: elevation,
	})
}

// registerBuiltins installs the plan DSL builtins into a zygomys
// environment. The builtins populate p during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, p *plan.Plan) {
	b := &builder{p: p, counts: make(map[string]int)}

	// -----------------------------------------------------------------------
	// (units :m)
	// -----------------------------------------------------------------------
	env.AddFunction("units", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("units: expected 1 argument, got %d", len(args))
		}
		u, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("units: %w", err)
		}
		if _, ok := plan.UnitsPerMeter(u); !ok {
			return zygo.SexpNull, fmt.Errorf("units: unknown unit %q, expected mm, cm or m", u)
		}
		if p.EntityCount() > 0 || len(p.Elements) > 0 {
			return zygo.SexpNull, fmt.Errorf("units: must be set before any entity")
		}
		p.Units = u
		return &zygo.SexpStr{S: u}, nil
	})

	// -----------------------------------------------------------------------
	// (vec2 x y)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2: expected 2 arguments, got %d", len(args))
		}
		var c [2]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec2: arg %d: %w", i, err)
			}
			c[i] = f
		}
		return &sexpVec2{vec: v2.Vec{X: c[0], Y: c[1]}}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3: expected 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: arg %d: %w", i, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (wall "w1" :from (vec2 0 0) :to (vec2 4000 0) :thickness 200 :height 2700)
	// -----------------------------------------------------------------------
	env.AddFunction("wall", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("wall", args)
		from, err := pa.vec2Arg("from")
		if err != nil {
			return zygo.SexpNull, err
		}
		to, err := pa.vec2Arg("to")
		if err != nil {
			return zygo.SexpNull, err
		}
		thickness, height, elevation, err := b.wallSection(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		label, err := pa.stringArg("name", "")
		if err != nil {
			return zygo.SexpNull, err
		}
		id := b.entityID(pa, "wall")
		b.addWall(id, label, from, to, thickness, height, elevation)
		return &sexpEntityRef{id: id, kind: "wall"}, nil
	})

	// -----------------------------------------------------------------------
	// (line :from (vec2 0 0) :to (vec2 0 3000))
	// -----------------------------------------------------------------------
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("line", args)
		from, err := pa.vec2Arg("from")
		if err != nil {
			return zygo.SexpNull, err
		}
		to, err := pa.vec2Arg("to")
		if err != nil {
			return zygo.SexpNull, err
		}
		id := b.entityID(pa, "line")
		p.AddEntity(&plan.Line{ID: id, Start: from, End: to})
		return &sexpEntityRef{id: id, kind: "line"}, nil
	})

	// -----------------------------------------------------------------------
	// (polyline (list (vec2 0 0) (vec2 10 0) (vec2 10 10)) :closed true)
	// -----------------------------------------------------------------------
	env.AddFunction("polyline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("polyline", args)
		var list zygo.Sexp = zygo.SexpNull
		if v, ok := pa.kw["points"]; ok {
			list = v
		} else {
			for _, a := range pa.positional {
				if _, isStr := a.(*zygo.SexpStr); !isStr {
					list = a
					break
				}
			}
		}
		items, err := sexpListToSlice(list)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polyline: points: %w", err)
		}
		points := make([]v2.Vec, 0, len(items))
		for i, it := range items {
			pt, err := toVec2(it)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("polyline: point %d: %w", i, err)
			}
			points = append(points, pt)
		}
		closed, err := pa.boolArg("closed")
		if err != nil {
			return zygo.SexpNull, err
		}
		id := b.entityID(pa, "polyline")
		p.AddEntity(&plan.Polyline{ID: id, Points: points, Closed: closed})
		return &sexpEntityRef{id: id, kind: "polyline"}, nil
	})

	// -----------------------------------------------------------------------
	// (rect "kitchen" :at (vec2 0 0) :size (vec2 4000 3000))
	// Four walls, counter-clockwise from the corner at :at. Wall ids get the
	// suffixes -s, -e, -n, -w.
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("rect", args)
		var at v2.Vec
		if _, ok := pa.kw["at"]; ok {
			v, err := pa.vec2Arg("at")
			if err != nil {
				return zygo.SexpNull, err
			}
			at = v
		}
		size, err := pa.vec2Arg("size")
		if err != nil {
			return zygo.SexpNull, err
		}
		if size.X <= 0 || size.Y <= 0 {
			return zygo.SexpNull, fmt.Errorf("rect: size (%g, %g) must be positive", size.X, size.Y)
		}
		thickness, height, elevation, err := b.wallSection(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		id := b.entityID(pa, "rect")
		corners := []v2.Vec{
			at,
			{X: at.X + size.X, Y: at.Y},
			{X: at.X + size.X, Y: at.Y + size.Y},
			{X: at.X, Y: at.Y + size.Y},
		}
		for i, side := range []string{"s", "e", "n", "w"} {
			wid := plan.EntityID(fmt.Sprintf("%s-%s", id, side))
			b.addWall(wid, "", corners[i], corners[(i+1)%4], thickness, height, elevation)
		}
		return &sexpEntityRef{id: id, kind: "rect"}, nil
	})

	// -----------------------------------------------------------------------
	// (element "IfcBeam" :name "B1" :model "structure"
	//          :size (vec3 4000 200 300) :at (vec3 0 1000 2400) :rotate 90)
	// :rotate takes a vec3 of Euler angles or a single angle about Z.
	// -----------------------------------------------------------------------
	env.AddFunction("element", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("element", args)
		typ, err := pa.stringArg("type", "")
		if err != nil {
			return zygo.SexpNull, err
		}
		if t, ok := pa.id(); ok && typ == "" {
			typ = string(t)
		}
		if typ == "" {
			return zygo.SexpNull, fmt.Errorf("element: IFC type is required")
		}
		if _, ok := pa.kw["size"]; !ok {
			return zygo.SexpNull, fmt.Errorf("element: :size is required")
		}
		size, err := pa.vec3Arg("size", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, err
		}
		at, err := pa.vec3Arg("at", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, err
		}
		var rot v3.Vec
		if v, ok := pa.kw["rotate"]; ok {
			if z, err := toFloat64(v); err == nil {
				rot = v3.Vec{Z: z}
			} else if rot, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("element: rotate: expected angle or vec3: %w", err)
			}
		}
		label, err := pa.stringArg("name", "")
		if err != nil {
			return zygo.SexpNull, err
		}
		model, err := pa.stringArg("model", "")
		if err != nil {
			return zygo.SexpNull, err
		}
		express, err := pa.intArg("express", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		el := &plan.Element{
			ExpressID: express,
			Type:      typ,
			Name:      label,
			Model:     model,
			Size:      size,
			Position:  at,
			Rotation:  rot,
		}
		p.AddElement(el)
		return &sexpEntityRef{id: plan.EntityID(fmt.Sprintf("#%d", el.ExpressID)), kind: "element"}, nil
	})
}
