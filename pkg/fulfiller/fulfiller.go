// Package fulfiller replaces {path} and {path:tag} placeholders in a template
// with values looked up in a source.Source and passed through an
// encode.Encoder. A placeholder that cannot be resolved, for any reason, stays
// in the output exactly as written; Explain reports why.
package fulfiller

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-fulfill/pkg/encode"
	"github.com/goliatone/go-fulfill/pkg/source"
	"github.com/goliatone/go-fulfill/pkg/value"
)

// placeholderPattern matches {path} and {path:tag}. Path and tag exclude
// braces, colons and whitespace; the class spells out the Unicode spaces
// RE2's \s does not cover.
var placeholderPattern = regexp.MustCompile(`\{([^{}:\s\v\p{Z}\x{FEFF}]+)(?::([^{}:\s\v\p{Z}\x{FEFF}]+))?\}`)

// Reason classifies the outcome of resolving one placeholder.
type Reason uint8

const (
	Resolved Reason = iota
	// PathMiss: a path segment does not exist at its container level.
	PathMiss
	// NotIndexable: a path segment was applied to a scalar or null.
	NotIndexable
	// EncoderMiss: a tagged encoder has no transform for the tag.
	EncoderMiss
	// TransformThrow: a generator, callable leaf or transform failed.
	TransformThrow
	// NonStringResult: the final value is not a string, number or boolean.
	NonStringResult
)

func (r Reason) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case PathMiss:
		return "path_miss"
	case NotIndexable:
		return "not_indexable"
	case EncoderMiss:
		return "encoder_miss"
	case TransformThrow:
		return "transform_error"
	case NonStringResult:
		return "non_string_result"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// Placeholder is one occurrence of {path} or {path:tag} in a template.
type Placeholder struct {
	// Text is the placeholder as written, braces included.
	Text  string
	Path  string
	Tag   string
	Start int
	End   int
}

// Resolution is the outcome for one placeholder. Output is always what the
// placeholder renders as: the replacement when Reason is Resolved, Text
// otherwise.
type Resolution struct {
	Placeholder
	Output string
	Reason Reason
	Err    error
}

// OK reports whether the placeholder was replaced.
func (r Resolution) OK() bool { return r.Reason == Resolved }

// Fulfiller replaces placeholders in templates. It holds no mutable state and
// is safe for concurrent use.
type Fulfiller struct {
	pattern *regexp.Regexp
}

// New returns a Fulfiller using the standard placeholder grammar.
func New() *Fulfiller {
	return &Fulfiller{pattern: placeholderPattern}
}

var shared = New()

// Fulfill resolves every placeholder in template with the shared Fulfiller.
func Fulfill(template string, src source.Source, enc encode.Encoder) string {
	return shared.Fulfill(template, src, enc)
}

// Explain reports how each placeholder in template resolves, using the
// shared Fulfiller.
func Explain(template string, src source.Source, enc encode.Encoder) []Resolution {
	return shared.Explain(template, src, enc)
}

// Placeholders lists the placeholders found in template, in order.
func (f *Fulfiller) Placeholders(template string) []Placeholder {
	matches := f.pattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		ph := Placeholder{
			Text:  template[m[0]:m[1]],
			Path:  template[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		}
		if m[4] >= 0 {
			ph.Tag = template[m[4]:m[5]]
		}
		out = append(out, ph)
	}
	return out
}

// Fulfill returns template with every resolvable placeholder replaced.
// Unresolvable placeholders are kept verbatim; Fulfill never fails.
func (f *Fulfiller) Fulfill(template string, src source.Source, enc encode.Encoder) string {
	return Render(template, f.Explain(template, src, enc))
}

// Render splices resolutions produced by Explain back into template.
func Render(template string, resolutions []Resolution) string {
	if len(resolutions) == 0 {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	last := 0
	for _, res := range resolutions {
		b.WriteString(template[last:res.Start])
		b.WriteString(res.Output)
		last = res.End
	}
	b.WriteString(template[last:])
	return b.String()
}

// Explain resolves each placeholder independently and reports the outcome.
func (f *Fulfiller) Explain(template string, src source.Source, enc encode.Encoder) []Resolution {
	placeholders := f.Placeholders(template)
	if len(placeholders) == 0 {
		return nil
	}
	out := make([]Resolution, 0, len(placeholders))
	for _, ph := range placeholders {
		out = append(out, resolve(ph, src, enc))
	}
	return out
}

func resolve(ph Placeholder, src source.Source, enc encode.Encoder) (res Resolution) {
	res = Resolution{Placeholder: ph, Output: ph.Text}

	defer func() {
		if recovered := recover(); recovered != nil {
			res = Resolution{
				Placeholder: ph,
				Output:      ph.Text,
				Reason:      TransformThrow,
				Err:         fmt.Errorf("fulfill: panic resolving %q: %v", ph.Text, recovered),
			}
		}
	}()

	raw, err := src.Lookup(ph.Path, ph.Tag)
	if err != nil {
		return fail(res, lookupReason(err), err)
	}

	if raw.Kind() == value.Func {
		called, err := raw.Call(ph.Path, ph.Tag)
		if err != nil {
			return fail(res, TransformThrow, err)
		}
		raw = value.Of(called)
	}

	transform, ok := enc.Select(ph.Tag)
	if !ok {
		return fail(res, EncoderMiss, fmt.Errorf("fulfill: no encoder for tag %q", ph.Tag))
	}

	encoded, err := transform(raw.Raw(), ph.Path, ph.Tag)
	if err != nil {
		return fail(res, TransformThrow, err)
	}

	final := value.Of(encoded)
	text, ok := final.Text()
	if !ok {
		return fail(res, NonStringResult, fmt.Errorf("fulfill: %q resolved to %s", ph.Text, final.Kind()))
	}

	res.Output = text
	return res
}

func lookupReason(err error) Reason {
	switch {
	case errors.Is(err, source.ErrPathMiss):
		return PathMiss
	case errors.Is(err, source.ErrNotIndexable):
		return NotIndexable
	default:
		return TransformThrow
	}
}

func fail(res Resolution, reason Reason, err error) Resolution {
	res.Reason = reason
	res.Err = err
	res.Output = res.Text
	return res
}
