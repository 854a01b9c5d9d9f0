package encode

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault_StripsUnsafeChars(t *testing.T) {
	t.Parallel()

	enc := Default()
	if enc.Kind() != KindDefault {
		t.Fatalf("expected default kind, got %s", enc.Kind())
	}
	fn, ok := enc.Select("anything")
	if !ok {
		t.Fatalf("default encoder should never miss")
	}

	out, err := fn(`<a href="x">&100%\</a>`, "p", "")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out != "a href=x100/a" {
		t.Fatalf("unexpected output %q", out)
	}

	out, _ = fn(42, "p", "")
	if out != 42 {
		t.Fatalf("non-string values should pass through, got %v", out)
	}
}

func TestDefaultWith_Legacy(t *testing.T) {
	t.Parallel()

	fn, _ := DefaultWith(LegacyUnsafeChars).Select("")
	out, _ := fn(`<b>"&"</b>`, "p", "")
	if out != `b"&"/b` {
		t.Fatalf("legacy set should only strip angle brackets, got %q", out)
	}
}

func TestUniform_NilFallsBackToDefault(t *testing.T) {
	t.Parallel()

	if Uniform(nil).Kind() != KindDefault {
		t.Fatalf("nil transform should yield default encoder")
	}
}

func TestTagged_SelectAndMiss(t *testing.T) {
	t.Parallel()

	enc := Tagged(map[string]Transform{
		"raw":  identity,
		"skip": nil,
	})
	if _, ok := enc.Select("raw"); !ok {
		t.Fatalf("expected raw transform")
	}
	if _, ok := enc.Select(""); ok {
		t.Fatalf("untagged lookup should miss without a \"\" entry")
	}
	if _, ok := enc.Select("skip"); ok {
		t.Fatalf("nil transforms should be dropped")
	}

	tags := enc.Tags()
	sort.Strings(tags)
	if diff := cmp.Diff([]string{"raw"}, tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestTagged_CopiesInput(t *testing.T) {
	t.Parallel()

	m := map[string]Transform{"a": identity}
	enc := Tagged(m)
	delete(m, "a")
	if _, ok := enc.Select("a"); !ok {
		t.Fatalf("encoder should not observe caller mutations")
	}
}

func TestWith_ExtendsEncoders(t *testing.T) {
	t.Parallel()

	shout := OnString(func(s string) string { return s + "!" })

	enc := Default().With("shout", shout)
	if enc.Kind() != KindTagged {
		t.Fatalf("expected tagged encoder")
	}
	base, ok := enc.Select("")
	if !ok {
		t.Fatalf("default transform should become the untagged entry")
	}
	if out, _ := base("<x>", "", ""); out != "x" {
		t.Fatalf("unexpected untagged output %v", out)
	}
	fn, _ := enc.Select("shout")
	if out, _ := fn("hey", "", "shout"); out != "hey!" {
		t.Fatalf("unexpected shout output %v", out)
	}

	original := Tagged(map[string]Transform{"a": identity})
	_ = original.With("b", identity)
	if _, ok := original.Select("b"); ok {
		t.Fatalf("With must not mutate the receiver")
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	fn := Chain(Strip("<>"), OnString(func(s string) string { return "[" + s + "]" }), nil)
	out, err := fn("<b>", "", "")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if out != "[b]" {
		t.Fatalf("unexpected output %v", out)
	}

	boom := errors.New("boom")
	failing := Chain(func(any, string, string) (any, error) { return nil, boom }, identity)
	if _, err := failing("x", "", ""); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestStandard(t *testing.T) {
	t.Parallel()

	std := Standard()
	cases := []struct {
		tag  string
		in   any
		want any
	}{
		{"", "<i>x</i>", "ix/i"},
		{"raw", "<i>", "<i>"},
		{"upper", "ok", "OK"},
		{"lower", "OK", "ok"},
		{"trim", "  x ", "x"},
		{"url", "a b&c", "a+b%26c"},
		{"path", "a b/c", "a%20b%2Fc"},
		{"json", `say "hi"`, `"say \"hi\""`},
		{"html", `<a href="x">`, "&lt;a href=&#34;x&#34;&gt;"},
		{"upper", 7, 7},
	}
	for _, tc := range cases {
		fn, ok := std[tc.tag]
		if !ok {
			t.Fatalf("missing standard tag %q", tc.tag)
		}
		got, err := fn(tc.in, "p", tc.tag)
		if err != nil {
			t.Fatalf("%s: %v", tc.tag, err)
		}
		if got != tc.want {
			t.Fatalf("%s: want %v, got %v", tc.tag, tc.want, got)
		}
	}

	std["extra"] = identity
	if _, ok := Standard()["extra"]; ok {
		t.Fatalf("Standard must return a fresh map")
	}
}

func TestMerge_LaterWins(t *testing.T) {
	t.Parallel()

	a := map[string]Transform{"x": Strip("a")}
	b := map[string]Transform{"x": identity, "y": identity}
	merged := Merge(a, b)
	if len(merged) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(merged))
	}
	if out, _ := merged["x"]("aaa", "", ""); out != "aaa" {
		t.Fatalf("later map should win, got %v", out)
	}
}
