package clash

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/chazu/plinth/pkg/ifc"
)

// ErrInvalidRule wraps every rule validation failure.
var ErrInvalidRule = errors.New("clash: invalid rule")

// validate is a singleton validator instance
var validate = validator.New()

// ElementFilter selects elements by IFC type. An element matches when its
// type is one of Types or a subtype of one of them.
type ElementFilter struct {
	Types []string `yaml:"types" json:"types" validate:"required,min=1,dive,required"`
}

// Matches reports whether an element of IFC type typ passes the filter.
func (f ElementFilter) Matches(typ string) bool {
	return ifc.IsAny(typ, f.Types)
}

// Match returns the subset of elements that pass the filter, in input order.
func (f ElementFilter) Match(elements []ElementRef) MatchResult {
	var refs []ElementRef
	for _, el := range elements {
		if f.Matches(el.Type) {
			refs = append(refs, el)
		}
	}
	return MatchResult{refs: refs}
}

// MatchResult is the immutable outcome of applying a filter.
type MatchResult struct {
	refs []ElementRef
}

// Len returns the number of matched elements.
func (m MatchResult) Len() int { return len(m.refs) }

// At returns the i-th matched element.
func (m MatchResult) At(i int) ElementRef { return m.refs[i] }

// Refs returns a copy of the matched elements.
func (m MatchResult) Refs() []ElementRef {
	out := make([]ElementRef, len(m.refs))
	copy(out, m.refs)
	return out
}

// Contains reports whether the element identified by ref was matched.
func (m MatchResult) Contains(ref ElementRef) bool {
	for _, r := range m.refs {
		if r.same(ref) {
			return true
		}
	}
	return false
}

// ClashRule pairs two element sets with a tolerance and check type.
type ClashRule struct {
	ID        string        `yaml:"id" json:"id" validate:"required,max=64"`
	Name      string        `yaml:"name" json:"name" validate:"required,max=100"`
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	SetA      ElementFilter `yaml:"set_a" json:"set_a"`
	SetB      ElementFilter `yaml:"set_b" json:"set_b"`
	Tolerance float64       `yaml:"tolerance" json:"tolerance" validate:"gte=0"`
	CheckType CheckType     `yaml:"check_type" json:"check_type" validate:"oneof=hard soft"`
}

// Validate checks the rule's fields.
func (r ClashRule) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, formatValidationError(err))
	}
	return nil
}

func (r ClashRule) clone() ClashRule {
	r.SetA.Types = append([]string(nil), r.SetA.Types...)
	r.SetB.Types = append([]string(nil), r.SetB.Types...)
	return r
}

// DefaultRules returns the rules a new Manager starts with. Tolerances are
// in model units (millimeters).
func DefaultRules() []ClashRule {
	return []ClashRule{
		{
			ID:        "structure-vs-mep",
			Name:      "Structure vs MEP",
			Enabled:   true,
			SetA:      ElementFilter{Types: []string{"IfcBeam", "IfcColumn", "IfcSlab", "IfcWall"}},
			SetB:      ElementFilter{Types: []string{"IfcFlowSegment", "IfcFlowFitting"}},
			Tolerance: 0,
			CheckType: CheckHard,
		},
		{
			ID:        "mep-clearance",
			Name:      "MEP clearance",
			Enabled:   true,
			SetA:      ElementFilter{Types: []string{"IfcPipeSegment"}},
			SetB:      ElementFilter{Types: []string{"IfcDuctSegment", "IfcCableCarrierSegment"}},
			Tolerance: 50,
			CheckType: CheckSoft,
		},
		{
			ID:        "walls-vs-structure",
			Name:      "Walls vs structure",
			Enabled:   false,
			SetA:      ElementFilter{Types: []string{"IfcWall"}},
			SetB:      ElementFilter{Types: []string{"IfcBeam", "IfcColumn"}},
			Tolerance: 0,
			CheckType: CheckHard,
		},
	}
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must have at least %s entries", field, e.Param())
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
