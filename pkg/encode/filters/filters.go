package filters

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-fulfill/pkg/encode"
)

var defaultsOnce sync.Once

// Transform applies the pongo2 filter name, with an optional parameter, to the
// resolved value. Filter errors make the placeholder stay verbatim.
func Transform(name string, param any) encode.Transform {
	registerDefaultFilters()
	name = strings.TrimSpace(name)

	return func(value any, _, _ string) (any, error) {
		var paramVal *pongo2.Value
		if param != nil {
			paramVal = pongo2.AsValue(param)
		}
		out, perr := pongo2.ApplyFilter(name, pongo2.AsValue(value), paramVal)
		if perr != nil {
			return nil, fmt.Errorf("filters: apply %q: %w", name, perr)
		}
		return out.Interface(), nil
	}
}

// Tagged builds an encoder whose tags are pongo2 filter names, e.g.
// "{title:upper}" or "{body:striptags}". Names without a registered filter are
// skipped. The untagged entry strips encode.UnsafeChars.
func Tagged(names ...string) encode.Encoder {
	registerDefaultFilters()

	transforms := map[string]encode.Transform{
		"": encode.Strip(encode.UnsafeChars),
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || !pongo2.FilterExists(name) {
			continue
		}
		transforms[name] = Transform(name, nil)
	}
	return encode.Tagged(transforms)
}

// Register adds a custom pongo2 filter usable by Transform and Tagged.
// Registering an existing name is an error.
func Register(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("filters: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("filters: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

// Exists reports whether a filter is registered under name.
func Exists(name string) bool {
	registerDefaultFilters()
	return pongo2.FilterExists(strings.TrimSpace(name))
}

func registerDefaultFilters() {
	defaultsOnce.Do(func() {
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", filterTrim)
		}
		if !pongo2.FilterExists("lowerfirst") {
			_ = pongo2.RegisterFilter("lowerfirst", filterLowerFirst)
		}
	})
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	t := in.String()

	for i, r := range t {
		if strings.ContainsRune(" \t\n\r", r) {
			continue
		}
		size := utf8.RuneLen(r)
		return pongo2.AsValue(t[:i] + strings.ToLower(string(r)) + t[i+size:]), nil
	}
	return pongo2.AsValue(t), nil
}
