package encode

import (
	"encoding/json"
	"html"
	"net/url"
	"strings"
)

// Standard returns the built-in tagged transforms:
//
//	""     strip UnsafeChars
//	raw    no change
//	upper  upper-case strings
//	lower  lower-case strings
//	trim   trim surrounding whitespace
//	url    query-escape
//	path   path-segment-escape
//	json   JSON string literal, quotes included
//	html   HTML entity escape
//
// A fresh map is returned on every call so callers can extend it.
func Standard() map[string]Transform {
	return map[string]Transform{
		"":      defaultTransform,
		"raw":   identity,
		"upper": OnString(strings.ToUpper),
		"lower": OnString(strings.ToLower),
		"trim":  OnString(strings.TrimSpace),
		"url":   OnString(url.QueryEscape),
		"path":  OnString(url.PathEscape),
		"json":  jsonString,
		"html":  OnString(html.EscapeString),
	}
}

// OnString lifts a string function into a Transform. Non-string values pass
// through unchanged.
func OnString(fn func(string) string) Transform {
	return func(value any, _, _ string) (any, error) {
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		return fn(s), nil
	}
}

func jsonString(value any, _, _ string) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}
