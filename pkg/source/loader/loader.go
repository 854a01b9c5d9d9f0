package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fulfill/pkg/source"
	"github.com/goliatone/go-fulfill/pkg/source/ctysource"
	"github.com/goliatone/go-fulfill/pkg/value"
)

// Format names a data document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatOf infers the format from a file extension.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".hcl":
		return FormatHCL, true
	default:
		return "", false
	}
}

// LoadFile reads a JSON, YAML or HCL document from disk into a container.
func LoadFile(name string) (source.Source, error) {
	format, ok := FormatOf(name)
	if !ok {
		return source.Source{}, fmt.Errorf("loader: unsupported data file %s", name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return source.Source{}, fmt.Errorf("loader: read %s: %w", name, err)
	}
	return Load(data, format, name)
}

// Load decodes data in the given format. name is only used in errors.
func Load(data []byte, format Format, name string) (source.Source, error) {
	root, err := decode(data, format, name)
	if err != nil {
		return source.Source{}, err
	}
	return source.Container(root), nil
}

// LoadFS decodes every data file at the root of fsys and exposes each one
// under its base name without extension, so values.yaml answers
// {values.some.key}. Duplicate base names are an error.
func LoadFS(fsys fs.FS) (source.Source, error) {
	entries := make(map[string]value.Value)
	if fsys == nil {
		return source.Container(entries), nil
	}

	dirEntries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return source.Source{}, fmt.Errorf("loader: read dir: %w", err)
	}
	sort.Slice(dirEntries, func(i, j int) bool {
		return dirEntries[i].Name() < dirEntries[j].Name()
	})

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		format, ok := FormatOf(name)
		if !ok {
			continue
		}
		key := strings.TrimSuffix(name, path.Ext(name))
		if _, exists := entries[key]; exists {
			return source.Source{}, fmt.Errorf("loader: duplicate data key %q (file %s)", key, name)
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return source.Source{}, fmt.Errorf("loader: read %s: %w", name, err)
		}
		root, err := decode(data, format, name)
		if err != nil {
			return source.Source{}, err
		}
		entries[key] = root
	}

	return source.Container(value.MapVal(entries)), nil
}

func decode(data []byte, format Format, name string) (value.Value, error) {
	switch format {
	case FormatJSON:
		var out any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return value.Value{}, fmt.Errorf("loader: decode json %s: %w", name, err)
		}
		return value.Of(out), nil
	case FormatYAML:
		var out any
		if err := yaml.Unmarshal(data, &out); err != nil {
			return value.Value{}, fmt.Errorf("loader: decode yaml %s: %w", name, err)
		}
		return value.Of(out), nil
	case FormatHCL:
		obj, err := ctysource.Attributes(data, name)
		if err != nil {
			return value.Value{}, err
		}
		return ctysource.Convert(obj)
	default:
		return value.Value{}, fmt.Errorf("loader: unsupported format %q", format)
	}
}
