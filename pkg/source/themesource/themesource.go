package themesource

import (
	"errors"
	"fmt"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fulfill/pkg/source"
)

// ErrNoManifest is returned when a selection carries no manifest.
var ErrNoManifest = errors.New("themesource: selection has no manifest")

// FromSelection exposes a resolved go-theme selection as a container:
//
//	{theme}    selected theme name
//	{variant}  selected variant ("" for the base theme)
//	{version}  manifest version
//	{tokens.X} design token X, variant tokens overriding the base manifest
//	{vars.X}   token X as a CSS custom property reference, e.g. var(--X)
//
// Token names containing dots stay addressable as flat keys only, so prefer
// dash-separated token names.
func FromSelection(sel *theme.Selection) (source.Source, error) {
	if sel == nil || sel.Manifest == nil {
		return source.Source{}, ErrNoManifest
	}
	return source.Container(Values(sel)), nil
}

// FromSelector resolves name and variant through selector and wraps the
// result with FromSelection.
func FromSelector(selector theme.ThemeSelector, name, variant string) (source.Source, error) {
	if selector == nil {
		return source.Source{}, errors.New("themesource: selector is required")
	}
	sel, err := selector.Select(name, variant)
	if err != nil {
		return source.Source{}, err
	}
	return FromSelection(sel)
}

// Values flattens a selection into the map served by FromSelection.
func Values(sel *theme.Selection) map[string]any {
	if sel == nil || sel.Manifest == nil {
		return map[string]any{}
	}
	manifest := sel.Manifest

	tokens := make(map[string]string, len(manifest.Tokens))
	for name, val := range manifest.Tokens {
		tokens[name] = val
	}
	if variant, ok := manifest.Variants[sel.Variant]; ok {
		for name, val := range variant.Tokens {
			tokens[name] = val
		}
	}

	vars := make(map[string]string, len(tokens))
	for name := range tokens {
		vars[name] = "var(--" + strings.TrimPrefix(name, "--") + ")"
	}

	name := sel.Theme
	if name == "" {
		name = manifest.Name
	}

	return map[string]any{
		"theme":   name,
		"variant": sel.Variant,
		"version": manifest.Version,
		"tokens":  tokens,
		"vars":    vars,
	}
}

type manifestFile struct {
	Name     string            `yaml:"name"`
	Version  string            `yaml:"version"`
	Tokens   map[string]string `yaml:"tokens"`
	Variants map[string]struct {
		Tokens map[string]string `yaml:"tokens"`
	} `yaml:"variants"`
}

// LoadManifest reads a YAML or JSON theme manifest holding name, version,
// tokens and per-variant token overrides.
func LoadManifest(path string) (*theme.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("themesource: read %s: %w", path, err)
	}
	return ParseManifest(data, path)
}

// ParseManifest decodes manifest data. name is only used in errors.
func ParseManifest(data []byte, name string) (*theme.Manifest, error) {
	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("themesource: decode %s: %w", name, err)
	}
	if strings.TrimSpace(file.Name) == "" {
		return nil, fmt.Errorf("themesource: %s: manifest name is required", name)
	}

	manifest := &theme.Manifest{
		Name:    file.Name,
		Version: file.Version,
		Tokens:  file.Tokens,
	}
	if len(file.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(file.Variants))
		for variant, def := range file.Variants {
			manifest.Variants[variant] = theme.Variant{Tokens: def.Tokens}
		}
	}
	return manifest, nil
}

// FromManifestFile loads a manifest and selects variant from it. An unknown
// non-empty variant is an error.
func FromManifestFile(path, variant string) (source.Source, error) {
	manifest, err := LoadManifest(path)
	if err != nil {
		return source.Source{}, err
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return source.Source{}, fmt.Errorf("themesource: %s: unknown variant %q", path, variant)
		}
	}
	return FromSelection(&theme.Selection{
		Theme:    manifest.Name,
		Variant:  variant,
		Manifest: manifest,
	})
}
