package value

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

const maxDepth = 64

// Callable is the normalized form of a lazy leaf: it receives the placeholder
// path and encoding tag and returns the value to encode.
type Callable func(path, tag string) (any, error)

var (
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
	stringType        = reflect.TypeOf("")
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// Of converts a Go value into a Value. Conversion is shallow: maps, slices
// and arrays are wrapped and their children converted when indexed.
//
// Structs (and pointers to structs) become Map values keyed by their json
// field names; fields are read when indexed, so a func field is a Func leaf
// and an unsupported field only fails on its own. Types implementing
// json.Marshaler or encoding.TextMarshaler go through encoding/json instead.
// Functions taking up to two string arguments (path, tag) and returning a
// value, optionally followed by an error, become Func values. Anything else
// without a JSON-like shape becomes Invalid.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullVal()
	case Value:
		return t
	case bool:
		return BoolVal(t)
	case string:
		return StringVal(t)
	case []byte:
		return StringVal(string(t))
	case int:
		return IntVal(int64(t))
	case int8:
		return IntVal(int64(t))
	case int16:
		return IntVal(int64(t))
	case int32:
		return IntVal(int64(t))
	case int64:
		return IntVal(t)
	case uint8:
		return IntVal(int64(t))
	case uint16:
		return IntVal(int64(t))
	case uint32:
		return IntVal(int64(t))
	case uint:
		return uintVal(uint64(t))
	case uint64:
		return uintVal(t)
	case float32:
		return FloatVal(float64(t))
	case float64:
		return FloatVal(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntVal(i)
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}
		}
		return FloatVal(f)
	case map[string]any:
		if t == nil {
			return NullVal()
		}
		return Value{kind: Map, m: anyMap(t)}
	case map[string]string:
		if t == nil {
			return NullVal()
		}
		return Value{kind: Map, m: stringMap(t)}
	case map[string]Value:
		if t == nil {
			return NullVal()
		}
		return MapVal(t)
	case []any:
		if t == nil {
			return NullVal()
		}
		return Value{kind: Array, a: anySlice(t)}
	case []string:
		if t == nil {
			return NullVal()
		}
		return Value{kind: Array, a: stringSlice(t)}
	case []Value:
		if t == nil {
			return NullVal()
		}
		return ArrayVal(t)
	case Callable:
		return FuncVal(t)
	case func(path, tag string) (any, error):
		return FuncVal(t)
	}
	return ofReflect(reflect.ValueOf(v))
}

func uintVal(u uint64) Value {
	if u > 1<<63-1 {
		return FloatVal(float64(u))
	}
	return IntVal(int64(u))
}

func ofReflect(rv reflect.Value) Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return NullVal()
		}
		if rv.Kind() == reflect.Pointer {
			if marshals(rv.Type()) {
				return ofJSON(rv.Interface())
			}
			if rv.Elem().Kind() == reflect.Struct {
				return Value{kind: Map, m: structMap{rv: rv.Elem(), origin: rv}}
			}
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return BoolVal(rv.Bool())
	case reflect.String:
		return StringVal(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntVal(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintVal(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return FloatVal(rv.Float())
	case reflect.Map:
		if rv.IsNil() {
			return NullVal()
		}
		return Value{kind: Map, m: reflectMap{rv: rv}}
	case reflect.Slice:
		if rv.IsNil() {
			return NullVal()
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return StringVal(string(rv.Bytes()))
		}
		return Value{kind: Array, a: reflectSlice{rv: rv}}
	case reflect.Array:
		return Value{kind: Array, a: reflectSlice{rv: rv}}
	case reflect.Struct:
		if marshals(rv.Type()) {
			return ofJSON(rv.Interface())
		}
		return Value{kind: Map, m: structMap{rv: rv}}
	case reflect.Func:
		if rv.IsNil() {
			return NullVal()
		}
		if fn, ok := callableOf(rv); ok {
			return FuncVal(fn)
		}
	}
	return Value{}
}

func marshals(t reflect.Type) bool {
	return t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType)
}

func ofJSON(v any) Value {
	payload, err := json.Marshal(v)
	if err != nil {
		return Value{}
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return Value{}
	}
	return Of(out)
}

// callableOf adapts func values of the shapes func([path [, tag]]) T and
// func([path [, tag]]) (T, error), including named func types.
func callableOf(rv reflect.Value) (Callable, bool) {
	typ := rv.Type()
	if typ.IsVariadic() || typ.NumIn() > 2 {
		return nil, false
	}
	for i := 0; i < typ.NumIn(); i++ {
		if typ.In(i) != stringType {
			return nil, false
		}
	}
	switch typ.NumOut() {
	case 1:
	case 2:
		if typ.Out(1) != errorType {
			return nil, false
		}
	default:
		return nil, false
	}

	numIn := typ.NumIn()
	return func(path, tag string) (any, error) {
		args := []reflect.Value{reflect.ValueOf(path), reflect.ValueOf(tag)}[:numIn]
		out := rv.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}, true
}

type mapping interface {
	lookup(key string) (any, bool)
	keys() []string
	raw() any
	id() ident
}

type sequence interface {
	at(i int) any
	length() int
	raw() any
	id() ident
}

// ident identifies the backing store of a map, slice or struct pointer. The
// zero ident is untracked.
type ident struct {
	ptr uintptr
	n   int
}

func identOf(rv reflect.Value) ident {
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer:
		if rv.IsNil() {
			return ident{}
		}
		return ident{ptr: rv.Pointer()}
	case reflect.Slice:
		if rv.Len() == 0 {
			return ident{}
		}
		return ident{ptr: rv.Pointer(), n: rv.Len()}
	default:
		return ident{}
	}
}

type anyMap map[string]any

func (m anyMap) lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m anyMap) raw() any  { return map[string]any(m) }
func (m anyMap) id() ident { return identOf(reflect.ValueOf(map[string]any(m))) }

func (m anyMap) keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

type stringMap map[string]string

func (m stringMap) lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m stringMap) raw() any  { return map[string]string(m) }
func (m stringMap) id() ident { return identOf(reflect.ValueOf(map[string]string(m))) }

func (m stringMap) keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

type valueMap map[string]Value

func (m valueMap) lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m valueMap) raw() any  { return map[string]Value(m) }
func (m valueMap) id() ident { return identOf(reflect.ValueOf(map[string]Value(m))) }

func (m valueMap) keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// reflectMap wraps maps of any key type; keys are matched by their fmt
// rendering, so map[int]string answers "1".
type reflectMap struct {
	rv reflect.Value
}

func (m reflectMap) lookup(key string) (any, bool) {
	if m.rv.Type().Key().Kind() == reflect.String {
		k := reflect.ValueOf(key).Convert(m.rv.Type().Key())
		v := m.rv.MapIndex(k)
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	}
	iter := m.rv.MapRange()
	for iter.Next() {
		if formatKey(iter.Key()) == key {
			return iter.Value().Interface(), true
		}
	}
	return nil, false
}

func (m reflectMap) raw() any  { return m.rv.Interface() }
func (m reflectMap) id() ident { return identOf(m.rv) }

func (m reflectMap) keys() []string {
	out := make([]string, 0, m.rv.Len())
	iter := m.rv.MapRange()
	for iter.Next() {
		out = append(out, formatKey(iter.Key()))
	}
	return out
}

func formatKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	default:
		return fmt.Sprint(k.Interface())
	}
}

type anySlice []any

func (s anySlice) at(i int) any { return s[i] }
func (s anySlice) length() int  { return len(s) }
func (s anySlice) raw() any     { return []any(s) }
func (s anySlice) id() ident    { return identOf(reflect.ValueOf([]any(s))) }

type stringSlice []string

func (s stringSlice) at(i int) any { return s[i] }
func (s stringSlice) length() int  { return len(s) }
func (s stringSlice) raw() any     { return []string(s) }
func (s stringSlice) id() ident    { return identOf(reflect.ValueOf([]string(s))) }

type valueSlice []Value

func (s valueSlice) at(i int) any { return s[i] }
func (s valueSlice) length() int  { return len(s) }
func (s valueSlice) raw() any     { return []Value(s) }
func (s valueSlice) id() ident    { return identOf(reflect.ValueOf([]Value(s))) }

type reflectSlice struct {
	rv reflect.Value
}

func (s reflectSlice) at(i int) any { return s.rv.Index(i).Interface() }
func (s reflectSlice) length() int  { return s.rv.Len() }
func (s reflectSlice) raw() any     { return s.rv.Interface() }
func (s reflectSlice) id() ident    { return identOf(s.rv) }

// structMap exposes exported struct fields under their json names. origin is
// the pointer the struct was reached through, if any.
type structMap struct {
	rv     reflect.Value
	origin reflect.Value
}

type structField struct {
	index     []int
	omitEmpty bool
}

var fieldCache sync.Map // reflect.Type -> map[string]structField

func (m structMap) lookup(key string) (any, bool) {
	f, ok := structFields(m.rv.Type())[key]
	if !ok {
		return nil, false
	}
	return m.field(f)
}

func (m structMap) keys() []string {
	fields := structFields(m.rv.Type())
	out := make([]string, 0, len(fields))
	for name, f := range fields {
		if _, ok := m.field(f); ok {
			out = append(out, name)
		}
	}
	return out
}

func (m structMap) raw() any {
	if m.origin.IsValid() {
		return m.origin.Interface()
	}
	return m.rv.Interface()
}

func (m structMap) id() ident {
	if m.origin.IsValid() {
		return identOf(m.origin)
	}
	return ident{}
}

func (m structMap) field(f structField) (any, bool) {
	fv, err := m.rv.FieldByIndexErr(f.index)
	if err != nil || !fv.CanInterface() {
		return nil, false
	}
	if f.omitEmpty && isEmptyValue(fv) {
		return nil, false
	}
	return fv.Interface(), true
}

// structFields resolves json names the way encoding/json does: "-" skips a
// field, untagged embedded structs promote their fields and the shallowest
// field wins a name clash.
func structFields(t reflect.Type) map[string]structField {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]structField)
	}

	fields := make(map[string]structField)
	depth := make(map[string]int)
	for _, sf := range reflect.VisibleFields(t) {
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if d, seen := depth[name]; seen && d <= len(sf.Index) {
			continue
		}
		depth[name] = len(sf.Index)
		fields[name] = structField{
			index:     sf.Index,
			omitEmpty: hasOption(opts, "omitempty"),
		}
	}

	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.(map[string]structField)
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	default:
		return false
	}
}
