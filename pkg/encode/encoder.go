package encode

import (
	"strings"
)

// UnsafeChars is the set stripped by the default encoder: characters that are
// unsafe to interpolate raw into markup, URLs or quoted attributes.
const UnsafeChars = "<>&%\"\\"

// LegacyUnsafeChars strips angle brackets only.
const LegacyUnsafeChars = "<>"

// Transform maps a resolved value to its replacement. value is the Go value
// found at the path as-is: maps, slices and structs are passed by reference,
// not copied. Returning anything other than a string, number or boolean
// leaves the placeholder untouched; so does returning an error.
type Transform func(value any, path, tag string) (any, error)

// Kind tags the variant held by an Encoder.
type Kind uint8

const (
	// KindDefault strips UnsafeChars from string values.
	KindDefault Kind = iota
	// KindUniform applies one transform to every placeholder.
	KindUniform
	// KindTagged selects a transform by the placeholder's encoding tag.
	KindTagged
)

func (k Kind) String() string {
	switch k {
	case KindUniform:
		return "uniform"
	case KindTagged:
		return "tagged"
	default:
		return "default"
	}
}

// Encoder chooses the transform applied to each placeholder. The zero value is
// the default encoder.
type Encoder struct {
	kind    Kind
	uniform Transform
	tagged  map[string]Transform
}

var defaultTransform = Strip(UnsafeChars)

// Default returns the default encoder.
func Default() Encoder { return Encoder{} }

// DefaultWith returns a uniform encoder stripping chars instead of UnsafeChars.
func DefaultWith(chars string) Encoder {
	return Uniform(Strip(chars))
}

// Uniform applies fn to every placeholder regardless of its tag. A nil fn
// yields the default encoder.
func Uniform(fn Transform) Encoder {
	if fn == nil {
		return Encoder{}
	}
	return Encoder{kind: KindUniform, uniform: fn}
}

// Tagged selects transforms by encoding tag; placeholders without a tag use
// the "" entry. The map is copied.
func Tagged(transforms map[string]Transform) Encoder {
	copied := make(map[string]Transform, len(transforms))
	for tag, fn := range transforms {
		if fn == nil {
			continue
		}
		copied[tag] = fn
	}
	return Encoder{kind: KindTagged, tagged: copied}
}

// Identity returns a uniform encoder that leaves values untouched.
func Identity() Encoder {
	return Uniform(identity)
}

// Kind reports the encoder variant.
func (e Encoder) Kind() Kind { return e.kind }

// Tags lists the tags a tagged encoder answers to.
func (e Encoder) Tags() []string {
	if e.kind != KindTagged {
		return nil
	}
	out := make([]string, 0, len(e.tagged))
	for tag := range e.tagged {
		out = append(out, tag)
	}
	return out
}

// Select returns the transform for tag. Only tagged encoders can miss.
func (e Encoder) Select(tag string) (Transform, bool) {
	switch e.kind {
	case KindUniform:
		return e.uniform, true
	case KindTagged:
		fn, ok := e.tagged[tag]
		return fn, ok
	default:
		return defaultTransform, true
	}
}

// With returns a tagged encoder extended with tag. Uniform and default
// encoders become the "" entry of the result.
func (e Encoder) With(tag string, fn Transform) Encoder {
	merged := make(map[string]Transform, len(e.tagged)+1)
	switch e.kind {
	case KindTagged:
		for k, v := range e.tagged {
			merged[k] = v
		}
	default:
		base, _ := e.Select("")
		merged[""] = base
	}
	if fn != nil {
		merged[tag] = fn
	}
	return Encoder{kind: KindTagged, tagged: merged}
}

// Merge combines transform maps; later maps win on duplicate tags.
func Merge(sets ...map[string]Transform) map[string]Transform {
	out := make(map[string]Transform)
	for _, set := range sets {
		for tag, fn := range set {
			out[tag] = fn
		}
	}
	return out
}

// Strip removes every rune in chars from string values. Other values pass
// through unchanged.
func Strip(chars string) Transform {
	return func(value any, _, _ string) (any, error) {
		s, ok := value.(string)
		if !ok || chars == "" {
			return value, nil
		}
		return strings.Map(func(r rune) rune {
			if strings.ContainsRune(chars, r) {
				return -1
			}
			return r
		}, s), nil
	}
}

// Chain runs transforms left to right, feeding each result into the next.
func Chain(transforms ...Transform) Transform {
	return func(value any, path, tag string) (any, error) {
		current := value
		for _, fn := range transforms {
			if fn == nil {
				continue
			}
			next, err := fn(current, path, tag)
			if err != nil {
				return nil, err
			}
			current = next
		}
		return current, nil
	}
}

func identity(value any, _, _ string) (any, error) {
	return value, nil
}
