package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/plinth/pkg/plan"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec2 wraps a plan-space point.
type sexpVec2 struct {
	vec v2.Vec
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a model-space point, size or rotation.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpEntityRef is returned by the entity builtins so scripts can bind it.
type sexpEntityRef struct {
	id   plan.EntityID
	kind string
}

func (r *sexpEntityRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", r.kind, r.id)
}
func (r *sexpEntityRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	fn         string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. fn names
// the builtin in error messages.
func parseArgs(fn string, args []zygo.Sexp) kwArgs {
	result := kwArgs{fn: fn, kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword is a flag.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

func (a kwArgs) errorf(key string, err error) error {
	return fmt.Errorf("%s: %s: %w", a.fn, key, err)
}

// floatArg returns the numeric keyword value, or def when absent.
func (a kwArgs) floatArg(key string, def float64) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, a.errorf(key, err)
	}
	return f, nil
}

func (a kwArgs) intArg(key string, def int) (int, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	i, ok := v.(*zygo.SexpInt)
	if !ok {
		return 0, a.errorf(key, fmt.Errorf("expected integer, got %s", v.SexpString(nil)))
	}
	return int(i.Val), nil
}

func (a kwArgs) stringArg(key, def string) (string, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	s, err := toString(v)
	if err != nil {
		return "", a.errorf(key, err)
	}
	return s, nil
}

func (a kwArgs) boolArg(key string) (bool, error) {
	v, ok := a.kw[key]
	if !ok {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, a.errorf(key, err)
	}
	return b, nil
}

// vec2Arg returns a required 2D point.
func (a kwArgs) vec2Arg(key string) (v2.Vec, error) {
	v, ok := a.kw[key]
	if !ok {
		return v2.Vec{}, fmt.Errorf("%s: :%s is required", a.fn, key)
	}
	p, err := toVec2(v)
	if err != nil {
		return v2.Vec{}, a.errorf(key, err)
	}
	return p, nil
}

// vec3Arg returns a 3D vector, or def when absent.
func (a kwArgs) vec3Arg(key string, def v3.Vec) (v3.Vec, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	p, err := toVec3(v)
	if err != nil {
		return v3.Vec{}, a.errorf(key, err)
	}
	return p, nil
}

// id returns the leading positional string, used as an explicit entity id.
func (a kwArgs) id() (plan.EntityID, bool) {
	if len(a.positional) == 0 {
		return "", false
	}
	s, ok := a.positional[0].(*zygo.SexpStr)
	if !ok || s.S == "" {
		return "", false
	}
	return plan.EntityID(s.S), true
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_mm) and plain strings ("mm").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toBool accepts booleans, integers (non-zero is true) and nil (false).
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpInt:
		return v.Val != 0, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return false, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

func toVec2(s zygo.Sexp) (v2.Vec, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return v2.Vec{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}
