package value

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// Invalid marks Go values that have no JSON-like representation (channels,
	// unsupported func signatures, values nested too deep).
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Map
	Array
	Func
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Map:
		return "map"
	case Array:
		return "array"
	case Func:
		return "func"
	default:
		return "invalid"
	}
}

var (
	// ErrMissing reports a key or index that does not exist on a map or array.
	ErrMissing = errors.New("value: missing key")
	// ErrNotIndexable reports an attempt to index a scalar, null or func value.
	ErrNotIndexable = errors.New("value: not indexable")
)

// Value is a JSON-like tagged union. Map and Array variants wrap their Go
// backing store and convert children lazily on Index, so a Value built from a
// large document costs nothing until a path is walked.
type Value struct {
	kind Kind

	b   bool
	num number
	str string
	m   mapping
	a   sequence
	fn  Callable
}

type number struct {
	f     float64
	i     int64
	isInt bool
}

// NullVal returns the null value.
func NullVal() Value { return Value{kind: Null} }

// BoolVal wraps a boolean.
func BoolVal(b bool) Value { return Value{kind: Bool, b: b} }

// StringVal wraps a string.
func StringVal(s string) Value { return Value{kind: String, str: s} }

// IntVal wraps an integer, preserving its exact decimal form.
func IntVal(i int64) Value {
	return Value{kind: Number, num: number{f: float64(i), i: i, isInt: true}}
}

// FloatVal wraps a floating point number. Integral floats within the int64
// range keep an exact integer form so 42.0 renders as "42".
func FloatVal(f float64) Value {
	n := number{f: f}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		n.i = int64(f)
		n.isInt = true
	}
	return Value{kind: Number, num: n}
}

// MapVal wraps already converted entries.
func MapVal(entries map[string]Value) Value {
	return Value{kind: Map, m: valueMap(entries)}
}

// ArrayVal wraps already converted elements.
func ArrayVal(elems []Value) Value {
	return Value{kind: Array, a: valueSlice(elems)}
}

// FuncVal wraps a callable leaf.
func FuncVal(fn Callable) Value {
	if fn == nil {
		return NullVal()
	}
	return Value{kind: Func, fn: fn}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.kind == Null }

// Bool returns the boolean payload and whether v is a Bool.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == Bool
}

// Float returns the numeric payload and whether v is a Number.
func (v Value) Float() (float64, bool) {
	return v.num.f, v.kind == Number
}

// Str returns the string payload and whether v is a String.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == String
}

// Len returns the number of entries of a Map or elements of an Array, and 0
// for every other variant.
func (v Value) Len() int {
	switch v.kind {
	case Map:
		return len(v.m.keys())
	case Array:
		return v.a.length()
	default:
		return 0
	}
}

// Keys returns the sorted keys of a Map value.
func (v Value) Keys() []string {
	if v.kind != Map {
		return nil
	}
	keys := v.m.keys()
	sort.Strings(keys)
	return keys
}

// Index steps into v by one path segment. Maps are indexed by key, arrays by
// a canonical base-10 index. Every other variant yields ErrNotIndexable.
func (v Value) Index(segment string) (Value, error) {
	switch v.kind {
	case Map:
		child, ok := v.m.lookup(segment)
		if !ok {
			return Value{}, ErrMissing
		}
		return Of(child), nil
	case Array:
		idx, ok := parseIndex(segment)
		if !ok || idx >= v.a.length() {
			return Value{}, ErrMissing
		}
		return Of(v.a.at(idx)), nil
	default:
		return Value{}, ErrNotIndexable
	}
}

// Call invokes a Func value. Calling any other variant returns an error.
func (v Value) Call(path, tag string) (any, error) {
	if v.kind != Func || v.fn == nil {
		return nil, errors.New("value: not callable")
	}
	return v.fn(path, tag)
}

// Text renders String, Number and Bool values as strings. Every other
// variant reports false.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case String:
		return v.str, true
	case Bool:
		return strconv.FormatBool(v.b), true
	case Number:
		return formatNumber(v.num), true
	default:
		return "", false
	}
}

// Raw returns the Go value v wraps without copying: the backing map, slice,
// struct or callable for Map, Array and Func values, the plain scalar
// otherwise. Containers built with MapVal or ArrayVal return their
// map[string]Value or []Value.
func (v Value) Raw() any {
	switch v.kind {
	case Map:
		return v.m.raw()
	case Array:
		return v.a.raw()
	case Func:
		return v.fn
	default:
		return v.scalar()
	}
}

// Interface converts v back into plain Go values: string, int64, float64,
// bool, nil, map[string]any, []any or Callable. Invalid values become nil.
// A container shared by several parents is converted once and reused, so
// cycles in the input come back as cycles in the output.
func (v Value) Interface() any {
	return v.toInterface(0, make(map[ident]any))
}

func (v Value) toInterface(depth int, seen map[ident]any) any {
	if depth > maxDepth {
		return nil
	}
	switch v.kind {
	case Map:
		id := v.m.id()
		if done, ok := seen[id]; ok && id != (ident{}) {
			return done
		}
		keys := v.m.keys()
		out := make(map[string]any, len(keys))
		if id != (ident{}) {
			seen[id] = out
		}
		for _, key := range keys {
			child, _ := v.m.lookup(key)
			out[key] = Of(child).toInterface(depth+1, seen)
		}
		return out
	case Array:
		id := v.a.id()
		if done, ok := seen[id]; ok && id != (ident{}) {
			return done
		}
		out := make([]any, v.a.length())
		if id != (ident{}) {
			seen[id] = out
		}
		for i := range out {
			out[i] = Of(v.a.at(i)).toInterface(depth+1, seen)
		}
		return out
	case Func:
		return v.fn
	default:
		return v.scalar()
	}
}

func (v Value) scalar() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		if v.num.isInt {
			return v.num.i
		}
		return v.num.f
	case String:
		return v.str
	default:
		return nil
	}
}

func parseIndex(segment string) (int, bool) {
	if segment == "" || len(segment) > 1 && segment[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return idx, true
}

func formatNumber(n number) string {
	if n.isInt {
		return strconv.FormatInt(n.i, 10)
	}
	switch {
	case math.IsNaN(n.f):
		return "NaN"
	case math.IsInf(n.f, 1):
		return "Infinity"
	case math.IsInf(n.f, -1):
		return "-Infinity"
	}
	abs := math.Abs(n.f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		// Go pads the exponent to two digits: 1.5e-07 becomes 1.5e-7.
		out := strconv.FormatFloat(n.f, 'g', -1, 64)
		if i := strings.IndexByte(out, 'e'); i >= 0 && i+3 < len(out) && out[i+2] == '0' {
			out = out[:i+2] + out[i+3:]
		}
		return out
	}
	return strconv.FormatFloat(n.f, 'f', -1, 64)
}
