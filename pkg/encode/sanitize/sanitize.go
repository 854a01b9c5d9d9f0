package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-fulfill/pkg/encode"
)

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy

	ugcOnce   sync.Once
	ugcPolicy *bluemonday.Policy
)

// Strict removes all markup from string values.
func Strict() encode.Transform {
	return Policy(strictSanitizer())
}

// UGC keeps the safe subset of formatting markup bluemonday allows for user
// generated content and drops everything else.
func UGC() encode.Transform {
	return Policy(ugcSanitizer())
}

// Policy wraps a caller-supplied bluemonday policy. Policies are safe for
// concurrent use once configured; do not mutate p afterwards. A nil policy
// falls back to Strict.
func Policy(p *bluemonday.Policy) encode.Transform {
	if p == nil {
		p = strictSanitizer()
	}
	return encode.OnString(func(raw string) string {
		if strings.TrimSpace(raw) == "" {
			return raw
		}
		return p.Sanitize(raw)
	})
}

// Encoders returns tagged transforms for markup contexts: "" and "html" strip
// all markup, "ugc" keeps the user content subset. Merge with
// encode.Standard() to get both sets.
func Encoders() map[string]encode.Transform {
	strict := Strict()
	return map[string]encode.Transform{
		"":     strict,
		"html": strict,
		"ugc":  UGC(),
	}
}

func strictSanitizer() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

func ugcSanitizer() *bluemonday.Policy {
	ugcOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		ugcPolicy = policy
	})
	return ugcPolicy
}
