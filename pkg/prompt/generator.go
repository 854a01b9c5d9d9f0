// Package prompt supplies placeholder values interactively. The generator it
// builds asks once per path and remembers the answer for the rest of its
// lifetime, so a template repeating {name} prompts a single time.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-fulfill/pkg/source"
)

// ErrEmptyAnswer marks a prompt answered with an empty string; the
// placeholder stays verbatim.
var ErrEmptyAnswer = errors.New("prompt: empty answer")

// Option configures a prompting generator.
type Option func(*config)

type config struct {
	message    func(path, tag string) string
	help       string
	secretTags map[string]struct{}
	defaults   map[string]string
	validator  func(string) error
}

// WithMessage customizes the question shown for each placeholder.
func WithMessage(fn func(path, tag string) string) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.message = fn
		}
	}
}

// WithHelp sets the help text shown with "?".
func WithHelp(help string) Option {
	return func(cfg *config) {
		cfg.help = strings.TrimSpace(help)
	}
}

// WithSecretTags asks for placeholders carrying one of tags without echoing
// the answer, e.g. {db.password:secret}.
func WithSecretTags(tags ...string) Option {
	return func(cfg *config) {
		for _, tag := range tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			cfg.secretTags[tag] = struct{}{}
		}
	}
}

// WithDefaults pre-fills answers keyed by path.
func WithDefaults(defaults map[string]string) Option {
	return func(cfg *config) {
		for path, val := range defaults {
			cfg.defaults[strings.TrimSpace(path)] = val
		}
	}
}

// WithValidator rejects answers before they are accepted.
func WithValidator(fn func(string) error) Option {
	return func(cfg *config) {
		cfg.validator = fn
	}
}

// Generator returns a source.Generator asking driver for each placeholder
// value. Answers are memoized per path; failures are not, so a cancelled
// prompt is asked again for the next occurrence.
func Generator(ctx context.Context, driver Driver, options ...Option) source.Generator {
	cfg := &config{
		message:    defaultMessage,
		secretTags: make(map[string]struct{}),
		defaults:   make(map[string]string),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if driver == nil {
		driver = SurveyDriver()
	}

	var (
		mu      sync.Mutex
		answers = make(map[string]string)
	)

	return func(path, tag string) (any, error) {
		mu.Lock()
		defer mu.Unlock()

		if answer, ok := answers[path]; ok {
			return answer, nil
		}

		input := InputConfig{
			Message:   cfg.message(path, tag),
			Default:   cfg.defaults[path],
			Help:      cfg.help,
			Validator: cfg.validator,
		}

		ask := driver.Input
		if _, secret := cfg.secretTags[tag]; secret {
			ask = driver.Password
		}

		answer, err := ask(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("prompt: %s: %w", path, err)
		}
		if answer == "" {
			return nil, ErrEmptyAnswer
		}
		answers[path] = answer
		return answer, nil
	}
}

func defaultMessage(path, tag string) string {
	if tag == "" {
		return fmt.Sprintf("Value for %s:", path)
	}
	return fmt.Sprintf("Value for %s (%s):", path, tag)
}
