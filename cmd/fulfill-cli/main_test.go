package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-fulfill/internal/ctxlog"
	"github.com/goliatone/go-fulfill/pkg/encode"
	"github.com/goliatone/go-fulfill/pkg/fulfiller"
	"github.com/goliatone/go-fulfill/pkg/prompt"
	"github.com/goliatone/go-fulfill/pkg/testsupport"
)

type fakeDriver struct {
	answers map[string]string
	asked   []string
	secrets []string
}

func (d *fakeDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	return d.lookup(cfg.Message)
}

func (d *fakeDriver) Password(_ context.Context, cfg prompt.InputConfig) (string, error) {
	d.secrets = append(d.secrets, cfg.Message)
	return d.lookup(cfg.Message)
}

func (d *fakeDriver) lookup(message string) (string, error) {
	for path, answer := range d.answers {
		if strings.Contains(message, " "+path+" ") || strings.Contains(message, " "+path+":") {
			return answer, nil
		}
	}
	return "", prompt.ErrPromptCancelled
}

func TestRun_GoldenWithDataFiles(t *testing.T) {
	var stdout bytes.Buffer
	err := run(testsupport.Context(), []string{
		"-template", filepath.Join("testdata", "greeting.tmpl"),
		"-config", filepath.Join("testdata", "fulfill.yaml"),
	}, strings.NewReader(""), &stdout, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	golden := filepath.Join("testdata", "greeting.golden")
	if testsupport.WriteMaybeGolden(t, golden, stdout.Bytes()) {
		return
	}
	want := testsupport.MustReadGoldenString(t, golden)
	if diff := testsupport.CompareGolden(want, stdout.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_TextFromFlagsAndStdin(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-text", "{user.name} <{user.bio:raw}>",
		"-encoder", "standard",
		"-data", filepath.Join("testdata", "user.yaml"),
	}, nil, &stdout, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stdout.String(); got != `Ada <<b>"math" & engines</b>>` {
		t.Fatalf("unexpected output %q", got)
	}

	stdout.Reset()
	err = run(context.Background(), []string{
		"-template", "-",
		"-data", filepath.Join("testdata", "user.yaml"),
		"-strip", "a",
	}, strings.NewReader("{user.name}"), &stdout, nil)
	if err != nil {
		t.Fatalf("run stdin: %v", err)
	}
	if got := stdout.String(); got != "Ad" {
		t.Fatalf("custom strip not applied, got %q", got)
	}
}

func TestRun_WritesOutputFile(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out.txt")
	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-text", "{infra.region}",
		"-data", filepath.Join("testdata", "infra.hcl"),
		"-output", out,
	}, nil, &stdout, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout should stay empty, got %q", stdout.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "eu-west-1" {
		t.Fatalf("unexpected output %q", data)
	}
}

func TestRun_InteractivePromptsOncePerPath(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{answers: map[string]string{
		"name":     "Ada",
		"password": "hunter2",
	}}
	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-text", "{name}/{name}/{password:secret}/{other}",
		"-interactive",
		"-encoder", "raw",
		"-config", writeConfig(t, "secret_tags: [secret]\n"),
	}, nil, &stdout, driver)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stdout.String(); got != "Ada/Ada/hunter2/{other}" {
		t.Fatalf("unexpected output %q", got)
	}
	if len(driver.asked) != 2 {
		t.Fatalf("expected two visible prompts (name, other), got %v", driver.asked)
	}
	if len(driver.secrets) != 1 {
		t.Fatalf("expected one secret prompt, got %v", driver.secrets)
	}
}

func TestRun_ReportLogsUnresolved(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	var stdout bytes.Buffer
	err := run(ctx, []string{"-text", "{a} {b}", "-report"}, nil, &stdout, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text := logs.String()
	for _, want := range []string{"unresolved placeholder", "placeholder={a}", "reason=path_miss", "unresolved=2"} {
		if !strings.Contains(text, want) {
			t.Fatalf("log output missing %q:\n%s", want, text)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"no template":      {},
		"both templates":   {"-text", "x", "-template", "y"},
		"missing template": {"-template", filepath.Join("testdata", "nope.tmpl")},
		"bad encoder":      {"-text", "x", "-encoder", "rot13"},
		"bad data file":    {"-text", "x", "-data", "values.txt"},
		"missing config":   {"-text", "x", "-config", "nope.yaml"},
		"unknown flag":     {"-bogus"},
	}
	for name, args := range cases {
		var stdout bytes.Buffer
		if err := run(context.Background(), args, nil, &stdout, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	err := run(context.Background(), []string{"-h"}, nil, &bytes.Buffer{}, nil)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fulfill.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestFixtures_ResolveWithoutCLI(t *testing.T) {
	t.Parallel()

	src := testsupport.MustLoadSource(t, filepath.Join("testdata", "infra.hcl"))
	got := fulfiller.Fulfill("{infra.region}x{infra.replicas}", src, encode.Default())
	if got != "eu-west-1x3" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRun_ThemeManifestTokens(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-text", "{theme}@{version}:{variant} {tokens.brand} {tokens.surface} {vars.surface} {user.name}",
		"-theme", filepath.Join("testdata", "theme.yaml"),
		"-theme-variant", "dark",
		"-data", filepath.Join("testdata", "user.yaml"),
	}, nil, &stdout, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "acme@1.2.0:dark #123456 #000000 var(--surface) Ada"
	if got := stdout.String(); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}

	err = run(context.Background(), []string{
		"-text", "{theme}",
		"-theme", filepath.Join("testdata", "theme.yaml"),
		"-theme-variant", "sepia",
	}, nil, &bytes.Buffer{}, nil)
	if err == nil || !strings.Contains(err.Error(), "sepia") {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
}
