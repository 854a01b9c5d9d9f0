package fulfill

import (
	"github.com/goliatone/go-fulfill/pkg/encode"
	"github.com/goliatone/go-fulfill/pkg/fulfiller"
	"github.com/goliatone/go-fulfill/pkg/source"
	"github.com/goliatone/go-fulfill/pkg/value"
)

// Transform aliases encode.Transform for callers wiring custom encoders from
// the top-level package.
type Transform = encode.Transform

// Encoder aliases encode.Encoder.
type Encoder = encode.Encoder

// Source aliases source.Source.
type Source = source.Source

// Generator aliases source.Generator.
type Generator = source.Generator

// Resolution aliases fulfiller.Resolution.
type Resolution = fulfiller.Resolution

// UnsafeChars is the set of characters the default encoder strips.
const UnsafeChars = encode.UnsafeChars

// Option configures a single Fulfill call.
type Option func(*config)

type config struct {
	encoder encode.Encoder
}

// WithEncoder selects the encoder. Without it the default encoder strips
// UnsafeChars.
func WithEncoder(enc encode.Encoder) Option {
	return func(cfg *config) {
		cfg.encoder = enc
	}
}

// WithTransform applies fn to every placeholder regardless of tag.
func WithTransform(fn Transform) Option {
	return func(cfg *config) {
		cfg.encoder = encode.Uniform(fn)
	}
}

// WithTransforms selects transforms by encoding tag; untagged placeholders use
// the "" entry and unknown tags are left verbatim.
func WithTransforms(transforms map[string]Transform) Option {
	return func(cfg *config) {
		cfg.encoder = encode.Tagged(transforms)
	}
}

// Fulfill replaces the placeholders in template using data, which may be a
// Source, a Generator, any func accepted as a callable leaf (invoked with
// path and tag for every placeholder), or a container (maps, slices, structs).
func Fulfill(template string, data any, options ...Option) string {
	cfg := newConfig(options)
	return fulfiller.Fulfill(template, SourceOf(data), cfg.encoder)
}

// Explain reports how each placeholder in template resolves against data.
func Explain(template string, data any, options ...Option) []Resolution {
	cfg := newConfig(options)
	return fulfiller.Explain(template, SourceOf(data), cfg.encoder)
}

// SourceOf classifies data into a container or generator source.
func SourceOf(data any) Source {
	switch v := data.(type) {
	case Source:
		return v
	case Generator:
		return source.FromGenerator(v)
	case func(path, tag string) (any, error):
		return source.FromGenerator(v)
	}
	root := value.Of(data)
	if root.Kind() == value.Func {
		return source.FromGenerator(func(path, tag string) (any, error) {
			return root.Call(path, tag)
		})
	}
	return source.Container(root)
}

func newConfig(options []Option) *config {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	return cfg
}
