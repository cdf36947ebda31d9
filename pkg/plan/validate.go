package plan

import (
	"fmt"

	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/ifc"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ValidationSeverity indicates whether a validation finding blocks
// downstream processing or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks detection
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	EntityID EntityID           // which entity has the problem (empty if plan-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.EntityID, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	EntityID EntityID
	Message  string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from both validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks and returns the findings. An empty
// slice means the plan is valid. The plan is never mutated.
func Validate(p *Plan) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateIDs(p)...)
	errs = append(errs, validateWalls(p)...)
	errs = append(errs, validateSketch(p)...)
	errs = append(errs, validateElements(p)...)
	return errs
}

// ValidateAll runs structural and geometric checks. tol is the distance
// under which two endpoints count as connected.
func ValidateAll(p *Plan, tol float64) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(p) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{EntityID: e.EntityID, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	result.Warnings = append(result.Warnings, validateDanglingWalls(p, tol)...)
	result.Warnings = append(result.Warnings, validateDuplicateWalls(p, tol)...)
	return result
}

// ---------------------------------------------------------------------------
// Tier 1: structural
// ---------------------------------------------------------------------------

// validateIDs checks that entity ids are non-empty and unique, and that
// element express ids are unique.
func validateIDs(p *Plan) []ValidationError {
	var errs []ValidationError

	seen := make(map[EntityID]int)
	for _, e := range p.Entities {
		if e.EntityID() == "" {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("%s has an empty id", e.Kind()),
				Severity: SeverityError,
			})
			continue
		}
		seen[e.EntityID()]++
	}
	for id, n := range seen {
		if n > 1 {
			errs = append(errs, ValidationError{
				EntityID: id,
				Message:  fmt.Sprintf("id used by %d entities", n),
				Severity: SeverityError,
			})
		}
	}

	express := make(map[int]bool)
	for _, w := range p.Walls() {
		express[w.ExpressID] = true
	}
	for _, el := range p.Elements {
		if express[el.ExpressID] {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("express id %d is used more than once", el.ExpressID),
				Severity: SeverityError,
			})
		}
		express[el.ExpressID] = true
	}

	return errs
}

// validateWalls checks wall dimensions.
func validateWalls(p *Plan) []ValidationError {
	var errs []ValidationError

	for _, w := range p.Walls() {
		if w.Length() == 0 {
			errs = append(errs, ValidationError{
				EntityID: w.ID,
				Message:  "wall has zero length",
				Severity: SeverityError,
			})
		}
		if w.Thickness <= 0 {
			errs = append(errs, ValidationError{
				EntityID: w.ID,
				Message:  fmt.Sprintf("wall thickness is %.4f, must be positive", w.Thickness),
				Severity: SeverityError,
			})
		}
		if w.Height <= 0 {
			errs = append(errs, ValidationError{
				EntityID: w.ID,
				Message:  fmt.Sprintf("wall height is %.4f, must be positive", w.Height),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateSketch checks lines and polylines.
func validateSketch(p *Plan) []ValidationError {
	var errs []ValidationError

	for _, e := range p.Entities {
		switch v := e.(type) {
		case *Line:
			if v.End.Sub(v.Start).Length() == 0 {
				errs = append(errs, ValidationError{
					EntityID: v.ID,
					Message:  "line has zero length",
					Severity: SeverityWarning,
				})
			}
		case *Polyline:
			if len(v.Points) < 2 {
				errs = append(errs, ValidationError{
					EntityID: v.ID,
					Message:  fmt.Sprintf("polyline has %d points, needs at least 2", len(v.Points)),
					Severity: SeverityError,
				})
			} else if v.Closed && len(v.Points) < 3 {
				errs = append(errs, ValidationError{
					EntityID: v.ID,
					Message:  "closed polyline needs at least 3 points",
					Severity: SeverityWarning,
				})
			}
		}
	}

	return errs
}

// validateElements checks element sizes and types.
func validateElements(p *Plan) []ValidationError {
	var errs []ValidationError

	for _, el := range p.Elements {
		id := EntityID(fmt.Sprintf("#%d", el.ExpressID))
		if el.Type == "" {
			errs = append(errs, ValidationError{
				EntityID: id,
				Message:  "element has no IFC type",
				Severity: SeverityError,
			})
		} else if !ifc.Known(el.Type) {
			errs = append(errs, ValidationError{
				EntityID: id,
				Message:  fmt.Sprintf("IFC type %q is not in the type hierarchy; it only matches itself", el.Type),
				Severity: SeverityWarning,
			})
		}
		if el.Size.X <= 0 || el.Size.Y <= 0 || el.Size.Z <= 0 {
			errs = append(errs, ValidationError{
				EntityID: id,
				Message:  fmt.Sprintf("element size (%.4f, %.4f, %.4f) must be positive on every axis", el.Size.X, el.Size.Y, el.Size.Z),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// ---------------------------------------------------------------------------
// Tier 2: geometric warnings
// ---------------------------------------------------------------------------

// touches reports whether p lies within tol of any segment in segs other
// than those from the excluded entity.
func touches(p v2.Vec, segs []Segment, exclude EntityID, tol float64) bool {
	for _, s := range segs {
		if s.Source == exclude {
			continue
		}
		_, q := geom.ClosestOnSegment(p, s.Start, s.End)
		if q.Sub(p).Length() <= tol {
			return true
		}
	}
	return false
}

// validateDanglingWalls warns about wall endpoints that meet no other
// entity. Such walls cannot close a room.
func validateDanglingWalls(p *Plan, tol float64) []ValidationWarning {
	var warnings []ValidationWarning

	var segs []Segment
	for _, e := range p.Entities {
		segs = append(segs, e.Segments()...)
	}

	for _, w := range p.Walls() {
		for _, end := range []v2.Vec{w.Start, w.End} {
			if !touches(end, segs, w.ID, tol) {
				warnings = append(warnings, ValidationWarning{
					EntityID: w.ID,
					Message:  fmt.Sprintf("wall endpoint (%.1f, %.1f) is not connected", end.X, end.Y),
				})
			}
		}
	}

	return warnings
}

// validateDuplicateWalls warns when two walls share both endpoints.
func validateDuplicateWalls(p *Plan, tol float64) []ValidationWarning {
	var warnings []ValidationWarning

	walls := p.Walls()
	near := func(a, b v2.Vec) bool { return a.Sub(b).Length() <= tol }
	for i := 0; i < len(walls); i++ {
		for j := i + 1; j < len(walls); j++ {
			a, b := walls[i], walls[j]
			same := (near(a.Start, b.Start) && near(a.End, b.End)) ||
				(near(a.Start, b.End) && near(a.End, b.Start))
			if same {
				warnings = append(warnings, ValidationWarning{
					EntityID: b.ID,
					Message:  fmt.Sprintf("duplicates wall %s", a.ID),
				})
			}
		}
	}

	return warnings
}
