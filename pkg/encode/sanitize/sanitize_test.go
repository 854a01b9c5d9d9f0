package sanitize

import (
	"strings"
	"testing"

	"github.com/microcosm-cc/bluemonday"
)

func TestStrict_RemovesMarkup(t *testing.T) {
	t.Parallel()

	out, err := Strict()(`<b>bold</b> <script>alert(1)</script>text`, "p", "html")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	got := out.(string)
	if strings.ContainsAny(got, "<>") {
		t.Fatalf("markup survived: %q", got)
	}
	if !strings.Contains(got, "bold") || !strings.Contains(got, "text") {
		t.Fatalf("text content lost: %q", got)
	}
	if strings.Contains(got, "alert") {
		t.Fatalf("script body survived: %q", got)
	}
}

func TestUGC_KeepsFormatting(t *testing.T) {
	t.Parallel()

	out, err := UGC()(`<b>bold</b><iframe src="https://example.com"></iframe>`, "p", "ugc")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	got := out.(string)
	if !strings.Contains(got, "<b>bold</b>") {
		t.Fatalf("formatting dropped: %q", got)
	}
	if strings.Contains(got, "iframe") {
		t.Fatalf("iframe survived: %q", got)
	}
}

func TestPolicy_NonStringsAndBlank(t *testing.T) {
	t.Parallel()

	fn := Policy(nil)
	if out, _ := fn(12, "", ""); out != 12 {
		t.Fatalf("non-string should pass through, got %v", out)
	}
	if out, _ := fn("   ", "", ""); out != "   " {
		t.Fatalf("blank input should pass through, got %q", out)
	}

	custom := bluemonday.NewPolicy()
	custom.AllowElements("em")
	out, _ := Policy(custom)("<em>x</em><b>y</b>", "", "")
	if out != "<em>x</em>y" {
		t.Fatalf("custom policy not applied, got %q", out)
	}
}

func TestEncoders_Tags(t *testing.T) {
	t.Parallel()

	set := Encoders()
	for _, tag := range []string{"", "html", "ugc"} {
		if set[tag] == nil {
			t.Fatalf("missing tag %q", tag)
		}
	}
}
