package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fulfill/pkg/encode"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("  \n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Encoder != EncoderDefault {
		t.Fatalf("expected default encoder, got %q", cfg.Encoder)
	}
}

func TestParse_FullDocument(t *testing.T) {
	t.Parallel()

	doc := `
encoder: Standard
strip: "<>"
theme: theme.yaml
theme_variant: dark
data:
  - values.yaml
  - infra.hcl
secret_tags: [secret]
report: true
interactive: true
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	strip := "<>"
	want := Config{
		Encoder:      EncoderStandard,
		Strip:        &strip,
		Data:         []string{"values.yaml", "infra.hcl"},
		Theme:        "theme.yaml",
		ThemeVariant: "dark",
		SecretTags:   []string{"secret"},
		Report:       true,
		Interactive:  true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown key":      "colour: red\n",
		"unknown encoder":  "encoder: rot13\n",
		"filters required": "encoder: filters\n",
		"unknown filter":   "encoder: filters\nfilters: [no_such_filter]\n",
		"malformed yaml":   "encoder: [\n",
		"orphan variant":   "theme_variant: dark\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fulfill.yaml")
	if err := os.WriteFile(path, []byte("encoder: raw\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Encoder != EncoderRaw {
		t.Fatalf("unexpected encoder %q", cfg.Encoder)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestBuildEncoder(t *testing.T) {
	t.Parallel()

	apply := func(t *testing.T, enc encode.Encoder, tag string, in any) (any, bool) {
		t.Helper()
		fn, ok := enc.Select(tag)
		if !ok {
			return nil, false
		}
		out, err := fn(in, "p", tag)
		if err != nil {
			t.Fatalf("transform %q: %v", tag, err)
		}
		return out, true
	}

	custom := "x"
	cases := []struct {
		name string
		cfg  Config
		tag  string
		in   string
		want string
		miss bool
	}{
		{name: "default", cfg: Config{}, in: `<a&"b">`, want: "ab"},
		{name: "default custom strip", cfg: Config{Strip: &custom}, in: "<x>", want: "<>"},
		{name: "legacy", cfg: Config{Encoder: EncoderLegacy}, in: `<a&"b">`, want: `a&"b"`},
		{name: "raw", cfg: Config{Encoder: EncoderRaw}, in: "<b>", want: "<b>"},
		{name: "html untagged", cfg: Config{Encoder: EncoderHTML}, in: "<b>bold</b>", want: "bold"},
		{name: "html ugc", cfg: Config{Encoder: EncoderHTML}, tag: "ugc", in: "<b>bold</b>", want: "<b>bold</b>"},
		{name: "html upper", cfg: Config{Encoder: EncoderHTML}, tag: "upper", in: "a", want: "A"},
		{name: "standard strip", cfg: Config{Encoder: EncoderStandard, Strip: &custom}, in: "xyx", want: "y"},
		{name: "standard miss", cfg: Config{Encoder: EncoderStandard}, tag: "nope", miss: true},
		{name: "filters", cfg: Config{Encoder: EncoderFilters, Filters: []string{"upper"}}, tag: "upper", in: "ok", want: "OK"},
		{name: "filters miss", cfg: Config{Encoder: EncoderFilters, Filters: []string{"upper"}}, tag: "lower", miss: true},
	}
	for _, tc := range cases {
		enc, err := tc.cfg.BuildEncoder()
		if err != nil {
			t.Fatalf("%s: build: %v", tc.name, err)
		}
		out, ok := apply(t, enc, tc.tag, tc.in)
		if tc.miss {
			if ok {
				t.Fatalf("%s: expected encoder miss", tc.name)
			}
			continue
		}
		if !ok || out != tc.want {
			t.Fatalf("%s: want %q, got %v (%v)", tc.name, tc.want, out, ok)
		}
	}

	if _, err := (Config{Encoder: "bogus"}).BuildEncoder(); err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("expected unknown encoder error, got %v", err)
	}
}
