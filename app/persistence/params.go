package persistence

import (
	"database/sql"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// ParamSet is a single set of query parameters, either Positional or Named
type ParamSet interface {
	args() []any
}

// Positional parameters bound to "?" placeholders in order
type Positional []any

func (p Positional) args() []any { return p }

// Named parameters bound to ":name", "@name" or "$name" placeholders
type Named map[string]any

func (n Named) args() []any {
	res := make([]any, 0, len(n))
	for _, k := range slices.Sorted(maps.Keys(n)) {
		res = append(res, sql.Named(k, n[k]))
	}
	return res
}

type paramsShape int

const (
	shapeNone paramsShape = iota
	shapeSingle
	shapeBatch
)

// Params describes what a query is called with: nothing, one parameter set or a batch of sets.
// The zero value is None.
type Params struct {
	shape paramsShape
	sets  []ParamSet
}

// None makes Params without any parameters
func None() Params { return Params{} }

// Single makes Params with one parameter set. Nil or empty set is the same as None.
func Single(set ParamSet) Params {
	if set == nil || len(set.args()) == 0 {
		return Params{}
	}
	return Params{shape: shapeSingle, sets: []ParamSet{set}}
}

// Args is a shortcut for Single(Positional(args))
func Args(args ...any) Params {
	return Single(Positional(args))
}

// Batch makes Params executing the query once per set. Batch writes don't report row keys.
// Batch without sets is the same as None, the query runs once with no parameters.
func Batch(sets ...ParamSet) Params {
	if len(sets) == 0 {
		return Params{}
	}
	return Params{shape: shapeBatch, sets: sets}
}

// IsNone checks if there are no parameters
func (p Params) IsNone() bool { return p.shape == shapeNone }

// IsBatch checks if params are a batch of sets
func (p Params) IsBatch() bool { return p.shape == shapeBatch }

// Len returns number of parameter sets
func (p Params) Len() int { return len(p.sets) }

// String returns shape of params, used in diagnostics
func (p Params) String() string {
	switch p.shape {
	case shapeSingle:
		return "single"
	case shapeBatch:
		return fmt.Sprintf("batch(%d)", len(p.sets))
	default:
		return "none"
	}
}

// args returns driver arguments for a non-batch call
func (p Params) args() []any {
	if p.shape != shapeSingle {
		return nil
	}
	return p.sets[0].args()
}

// ParamsOf classifies a loosely typed parameters value. A slice or array is a batch only if every
// element is itself a collection (slice, array or map) and not a string; otherwise it is a single
// positional set. Strings are never treated as collections, so "abc" is one parameter,
// not three. []byte is a blob value, not a collection. Maps with string keys are named sets.
func ParamsOf(v any) (Params, error) {
	switch vv := v.(type) {
	case nil:
		return None(), nil
	case Params:
		return vv, nil
	case ParamSet:
		return Single(vv), nil
	case string, []byte:
		return Args(vv), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		set, err := namedFromMap(rv)
		if err != nil {
			return Params{}, err
		}
		return Single(set), nil
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return None(), nil
		}
		if !allCollections(rv) {
			return Single(Positional(elements(rv))), nil
		}
		sets := make([]ParamSet, 0, rv.Len())
		for i := range rv.Len() {
			set, err := setOf(rv.Index(i))
			if err != nil {
				return Params{}, fmt.Errorf("parameter set %d: %w", i, err)
			}
			sets = append(sets, set)
		}
		return Batch(sets...), nil
	default:
		return Params{}, fmt.Errorf("unsupported parameters type %T", v)
	}
}

// isCollection checks if value is a slice, array or map but not a string or []byte
func isCollection(v reflect.Value) bool {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map, reflect.Array:
		return true
	case reflect.Slice:
		return v.Type().Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}

func allCollections(rv reflect.Value) bool {
	for i := range rv.Len() {
		if !isCollection(rv.Index(i)) {
			return false
		}
	}
	return true
}

func elements(rv reflect.Value) []any {
	res := make([]any, 0, rv.Len())
	for i := range rv.Len() {
		res = append(res, rv.Index(i).Interface())
	}
	return res
}

func setOf(v reflect.Value) (ParamSet, error) {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if set, ok := v.Interface().(ParamSet); ok {
		return set, nil
	}
	if v.Kind() == reflect.Map {
		return namedFromMap(v)
	}
	return Positional(elements(v)), nil
}

func namedFromMap(rv reflect.Value) (Named, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("named parameters need string keys, got %s", rv.Type().Key())
	}
	res := make(Named, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		res[iter.Key().String()] = iter.Value().Interface()
	}
	return res, nil
}
