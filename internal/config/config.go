package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fulfill/pkg/encode"
	"github.com/goliatone/go-fulfill/pkg/encode/filters"
	"github.com/goliatone/go-fulfill/pkg/encode/sanitize"
)

// Encoder names accepted by the CLI.
const (
	EncoderDefault  = "default"
	EncoderLegacy   = "legacy"
	EncoderRaw      = "raw"
	EncoderHTML     = "html"
	EncoderStandard = "standard"
	EncoderFilters  = "filters"
)

// Config mirrors the fulfill.yaml file read by the CLI.
type Config struct {
	Encoder      string   `yaml:"encoder"`
	Strip        *string  `yaml:"strip"`
	Data         []string `yaml:"data"`
	Theme        string   `yaml:"theme"`
	ThemeVariant string   `yaml:"theme_variant"`
	Filters      []string `yaml:"filters"`
	SecretTags   []string `yaml:"secret_tags"`
	Report       bool     `yaml:"report"`
	Interactive  bool     `yaml:"interactive"`
}

// Load reads and validates a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg.withDefaults(), nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the encoder name, filter list and theme settings.
func (c Config) Validate() error {
	switch c.Encoder {
	case EncoderDefault, EncoderLegacy, EncoderRaw, EncoderHTML, EncoderStandard:
	case EncoderFilters:
		if len(c.Filters) == 0 {
			return fmt.Errorf("encoder %q requires at least one filter", c.Encoder)
		}
		for _, name := range c.Filters {
			if !filters.Exists(name) {
				return fmt.Errorf("unknown filter %q", name)
			}
		}
	default:
		return fmt.Errorf("unknown encoder %q", c.Encoder)
	}
	if c.ThemeVariant != "" && c.Theme == "" {
		return fmt.Errorf("theme_variant %q requires a theme manifest", c.ThemeVariant)
	}
	return nil
}

// BuildEncoder turns the config into an encoder. A custom strip set replaces
// the untagged transform of the default, standard and filters encoders.
func (c Config) BuildEncoder() (encode.Encoder, error) {
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return encode.Encoder{}, err
	}

	strip := encode.Strip(encode.UnsafeChars)
	if c.Strip != nil {
		strip = encode.Strip(*c.Strip)
	}

	switch c.Encoder {
	case EncoderLegacy:
		return encode.DefaultWith(encode.LegacyUnsafeChars), nil
	case EncoderRaw:
		return encode.Identity(), nil
	case EncoderHTML:
		return encode.Tagged(encode.Merge(encode.Standard(), sanitize.Encoders())), nil
	case EncoderStandard:
		return encode.Tagged(encode.Standard()).With("", strip), nil
	case EncoderFilters:
		return filters.Tagged(c.Filters...).With("", strip), nil
	default:
		if c.Strip != nil {
			return encode.DefaultWith(*c.Strip), nil
		}
		return encode.Default(), nil
	}
}

func (c Config) withDefaults() Config {
	c.Encoder = strings.ToLower(strings.TrimSpace(c.Encoder))
	if c.Encoder == "" {
		c.Encoder = EncoderDefault
	}
	return c
}
