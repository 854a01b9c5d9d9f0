package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-fulfill/internal/config"
	"github.com/goliatone/go-fulfill/internal/ctxlog"
	"github.com/goliatone/go-fulfill/pkg/fulfiller"
	"github.com/goliatone/go-fulfill/pkg/prompt"
	"github.com/goliatone/go-fulfill/pkg/source"
	"github.com/goliatone/go-fulfill/pkg/source/loader"
	"github.com/goliatone/go-fulfill/pkg/source/themesource"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, nil); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("fulfill: %v", err)
	}
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

type options struct {
	templatePath string
	text         string
	configPath   string
	output       string
	encoder      string
	strip        string
	data         stringList
	theme        string
	themeVariant string
	filters      stringList
	report       bool
	interactive  bool
}

// run executes the CLI. driver is used for -interactive prompts; nil selects
// the terminal driver.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, driver prompt.Driver) error {
	opts, set, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(opts, set)
	if err != nil {
		return err
	}

	template, err := readTemplate(opts, stdin)
	if err != nil {
		return err
	}

	enc, err := cfg.BuildEncoder()
	if err != nil {
		return fmt.Errorf("encoder: %w", err)
	}

	layers := make([]source.Source, 0, len(cfg.Data)+2)
	for _, path := range cfg.Data {
		src, err := loader.LoadFile(path)
		if err != nil {
			return err
		}
		layers = append(layers, src)
	}
	if cfg.Theme != "" {
		src, err := themesource.FromManifestFile(cfg.Theme, cfg.ThemeVariant)
		if err != nil {
			return err
		}
		layers = append(layers, src)
	}
	if cfg.Interactive {
		layers = append(layers, source.FromGenerator(prompt.Generator(ctx, driver, prompt.WithSecretTags(cfg.SecretTags...))))
	}

	resolutions := fulfiller.Explain(template, source.Merge(layers...), enc)
	if cfg.Report {
		report(ctx, resolutions)
	}
	rendered := fulfiller.Render(template, resolutions)

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	_, err = io.WriteString(stdout, rendered)
	return err
}

func parseFlags(args []string) (options, map[string]bool, error) {
	var opts options
	fs := flag.NewFlagSet("fulfill-cli", flag.ContinueOnError)
	fs.StringVar(&opts.templatePath, "template", "", "template file (\"-\" reads stdin)")
	fs.StringVar(&opts.text, "text", "", "inline template text")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.StringVar(&opts.output, "output", "", "output file (stdout if empty)")
	fs.StringVar(&opts.encoder, "encoder", "", "encoder: default|legacy|raw|html|standard|filters")
	fs.StringVar(&opts.strip, "strip", "", "characters stripped by the default encoder")
	fs.Var(&opts.data, "data", "JSON/YAML/HCL data file (repeatable)")
	fs.StringVar(&opts.theme, "theme", "", "go-theme manifest (YAML/JSON) exposed as {theme}, {tokens.X}, {vars.X}")
	fs.StringVar(&opts.themeVariant, "theme-variant", "", "theme variant whose tokens override the manifest")
	fs.Var(&opts.filters, "filters", "pongo2 filters exposed as tags (comma separated)")
	fs.BoolVar(&opts.report, "report", false, "log unresolved placeholders to stderr")
	fs.BoolVar(&opts.interactive, "interactive", false, "prompt for values missing from data files")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return opts, set, nil
}

func resolveConfig(opts options, set map[string]bool) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if set["encoder"] {
		cfg.Encoder = opts.encoder
	}
	if set["strip"] {
		strip := opts.strip
		cfg.Strip = &strip
	}
	if set["theme"] {
		cfg.Theme = opts.theme
	}
	if set["theme-variant"] {
		cfg.ThemeVariant = opts.themeVariant
	}
	if set["filters"] {
		cfg.Filters = opts.filters
	}
	if set["report"] {
		cfg.Report = opts.report
	}
	if set["interactive"] {
		cfg.Interactive = opts.interactive
	}
	cfg.Data = append(cfg.Data, opts.data...)
	return cfg, nil
}

func readTemplate(opts options, stdin io.Reader) (string, error) {
	switch {
	case opts.text != "" && opts.templatePath != "":
		return "", errors.New("use either -text or -template, not both")
	case opts.text != "":
		return opts.text, nil
	case opts.templatePath == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case opts.templatePath != "":
		data, err := os.ReadFile(opts.templatePath)
		if err != nil {
			return "", fmt.Errorf("read template: %w", err)
		}
		return string(data), nil
	default:
		return "", errors.New("a template is required (-template or -text)")
	}
}

func report(ctx context.Context, resolutions []fulfiller.Resolution) {
	logger := ctxlog.FromContext(ctx)
	unresolved := 0
	for _, res := range resolutions {
		if res.OK() {
			continue
		}
		unresolved++
		logger.Warn("unresolved placeholder",
			"placeholder", res.Text,
			"offset", res.Start,
			"reason", res.Reason.String(),
			"error", res.Err,
		)
	}
	logger.Info("fulfill complete", "placeholders", len(resolutions), "unresolved", unresolved)
}
