package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-fulfill/pkg/value"
)

// Kind tags the variant held by a Source.
type Kind uint8

const (
	// KindContainer walks a nested structure one path segment at a time.
	KindContainer Kind = iota
	// KindGenerator hands (path, tag) to a single callable and skips traversal.
	KindGenerator
)

func (k Kind) String() string {
	if k == KindGenerator {
		return "generator"
	}
	return "container"
}

var (
	// ErrPathMiss reports a path segment that does not exist at its level.
	ErrPathMiss = errors.New("source: path segment not found")
	// ErrNotIndexable reports a path segment applied to a scalar, null or
	// callable value.
	ErrNotIndexable = errors.New("source: value is not indexable")
)

// Generator supplies placeholder values directly from the placeholder path and
// encoding tag.
type Generator func(path, tag string) (any, error)

// Source is the value supply for a fulfill call: either a container or a
// generator. The zero Source is an empty container that resolves nothing.
type Source struct {
	kind Kind
	root value.Value
	gen  Generator
}

// Container wraps a nested map/slice/struct value. Values are converted with
// value.Of, lazily, as paths are walked.
func Container(v any) Source {
	return Source{kind: KindContainer, root: value.Of(v)}
}

// FromGenerator wraps a generator callable. A nil generator behaves like an
// empty container.
func FromGenerator(fn Generator) Source {
	if fn == nil {
		return Source{}
	}
	return Source{kind: KindGenerator, gen: fn}
}

// FromFunc adapts an infallible generator.
func FromFunc(fn func(path, tag string) any) Source {
	if fn == nil {
		return Source{}
	}
	return FromGenerator(func(path, tag string) (any, error) {
		return fn(path, tag), nil
	})
}

// Kind reports whether s is a container or a generator.
func (s Source) Kind() Kind { return s.kind }

// Root returns the container root. Generators report an Invalid value.
func (s Source) Root() value.Value { return s.root }

// Lookup resolves path against the source. Container misses are returned as
// *PathError wrapping ErrPathMiss or ErrNotIndexable; generator errors are
// returned unchanged.
func (s Source) Lookup(path, tag string) (value.Value, error) {
	if s.kind == KindGenerator {
		out, err := s.gen(path, tag)
		if err != nil {
			return value.Value{}, err
		}
		return value.Of(out), nil
	}
	return Walk(s.root, path)
}

// Walk folds path over root, splitting on ".".
func Walk(root value.Value, path string) (value.Value, error) {
	current := root
	for _, segment := range strings.Split(path, ".") {
		next, err := current.Index(segment)
		if err != nil {
			if errors.Is(err, value.ErrMissing) {
				return value.Value{}, &PathError{Path: path, Segment: segment, Err: ErrPathMiss}
			}
			return value.Value{}, &PathError{Path: path, Segment: segment, Err: ErrNotIndexable}
		}
		current = next
	}
	return current, nil
}

// PathError describes where a container walk stopped.
type PathError struct {
	Path    string
	Segment string
	Err     error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v: %q in %q", e.Err, e.Segment, e.Path)
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Merge layers sources: each lookup tries the sources in order and answers
// with the first success. When every source fails, the last error wins.
func Merge(sources ...Source) Source {
	layers := make([]Source, 0, len(sources))
	layers = append(layers, sources...)
	if len(layers) == 1 {
		return layers[0]
	}

	return FromGenerator(func(path, tag string) (any, error) {
		err := error(&PathError{Path: path, Segment: path, Err: ErrPathMiss})
		for _, layer := range layers {
			v, lookupErr := layer.Lookup(path, tag)
			if lookupErr == nil {
				return v, nil
			}
			err = lookupErr
		}
		return nil, err
	})
}
