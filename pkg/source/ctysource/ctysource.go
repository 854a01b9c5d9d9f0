// Package ctysource builds fulfill sources from go-cty values and HCL files,
// so configuration written in HCL can feed template placeholders directly.
package ctysource

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/goliatone/go-fulfill/pkg/source"
	"github.com/goliatone/go-fulfill/pkg/value"
)

// ErrUnknown is returned for values that are not wholly known.
var ErrUnknown = errors.New("ctysource: value is not known")

// FromValue converts a cty value into a container source.
func FromValue(val cty.Value) (source.Source, error) {
	converted, err := Convert(val)
	if err != nil {
		return source.Source{}, err
	}
	return source.Container(converted), nil
}

// Convert maps a cty value onto the fulfill value model: objects and maps
// become Map, lists, tuples and sets become Array, primitives map directly and
// null becomes Null.
func Convert(val cty.Value) (value.Value, error) {
	val, _ = val.UnmarkDeep()
	if !val.IsWhollyKnown() {
		return value.Value{}, ErrUnknown
	}
	if val.IsNull() {
		return value.NullVal(), nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return value.StringVal(val.AsString()), nil
	case ty == cty.Bool:
		return value.BoolVal(val.True()), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return value.IntVal(i), nil
			}
		}
		f, _ := bf.Float64()
		return value.FloatVal(f), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]value.Value, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := Convert(v)
			if err != nil {
				return value.Value{}, fmt.Errorf("ctysource: %s: %w", k.AsString(), err)
			}
			out[k.AsString()] = converted
		}
		return value.MapVal(out), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]value.Value, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := Convert(v)
			if err != nil {
				return value.Value{}, err
			}
			out = append(out, converted)
		}
		return value.ArrayVal(out), nil
	default:
		return value.Value{}, fmt.Errorf("ctysource: unsupported cty type %s", ty.FriendlyName())
	}
}

// FromHCL parses src as HCL and turns its top-level attributes into a
// container. Attributes are evaluated without variables or functions, so
// only literal expressions are accepted.
func FromHCL(src []byte, filename string) (source.Source, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return source.Source{}, fmt.Errorf("ctysource: parse %s: %s", filename, diags.Error())
	}
	return fromBody(file.Body, filename)
}

// FromHCLFile reads and parses an HCL file from disk.
func FromHCLFile(path string) (source.Source, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return source.Source{}, fmt.Errorf("ctysource: parse %s: %s", path, diags.Error())
	}
	return fromBody(file.Body, path)
}

// Attributes evaluates the top-level attributes of an HCL document into a
// single object value.
func Attributes(src []byte, filename string) (cty.Value, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("ctysource: parse %s: %s", filename, diags.Error())
	}
	return attributes(file.Body, filename)
}

func fromBody(body hcl.Body, filename string) (source.Source, error) {
	obj, err := attributes(body, filename)
	if err != nil {
		return source.Source{}, err
	}
	return FromValue(obj)
}

func attributes(body hcl.Body, filename string) (cty.Value, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("ctysource: %s: %s", filename, diags.Error())
	}

	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return cty.NilVal, fmt.Errorf("ctysource: %s: attribute %q: %s", filename, name, diags.Error())
		}
		values[name] = val
	}
	return cty.ObjectVal(values), nil
}
