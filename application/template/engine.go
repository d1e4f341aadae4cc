// Package template renders profile themes with pongo2 and the markdown filters.
package template

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
	"github.com/go-playground/validator/v10"

	"github.com/reglet-dev/theme-sdk/domain/entities"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/reglet-dev/theme-sdk/domain/ports"
)

// DefaultMaxOutputSize limits the rendered document (4MB).
const DefaultMaxOutputSize = 4 * 1024 * 1024

// validate is a package-level singleton; creating a validator per call is expensive.
var validate = validator.New()

// engineConfig holds configuration for the Engine.
type engineConfig struct {
	maxOutputSize int
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		maxOutputSize: DefaultMaxOutputSize,
	}
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithMaxOutputSize limits the size of a rendered document. Exceeding the
// limit is an evaluation fault.
func WithMaxOutputSize(n int) Option {
	return func(c *engineConfig) {
		c.maxOutputSize = n
	}
}

// Engine implements ports.TemplateEngine using pongo2.
// Every Render builds a fresh template set; nothing is cached between calls.
type Engine struct {
	config engineConfig
}

var _ ports.TemplateEngine = (*Engine)(nil)

// NewEngine creates a new Engine.
func NewEngine(opts ...Option) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	registerFilters()
	return &Engine{config: cfg}
}

// Render decodes the profile, compiles the theme and executes it.
func (e *Engine) Render(profileJSON, theme []byte) (string, error) {
	profile, err := DecodeProfile(profileJSON)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(theme) {
		return "", &domainerrors.DecodeError{Input: "theme", Err: fmt.Errorf("theme is not valid UTF-8")}
	}

	set := pongo2.NewSet("theme", sandboxLoader{})
	tpl, err := set.FromBytes(theme)
	if err != nil {
		return "", &domainerrors.CompileError{Err: err, Line: errorLine(err)}
	}

	out := newOutputWriter(e.config.maxOutputSize)
	err = tpl.ExecuteWriter(pongo2.Context(profile.Context()), out)
	if out.exceeded {
		return "", &domainerrors.EvaluateError{
			Err: fmt.Errorf("%w: output exceeds %d bytes", errOutputLimit, e.config.maxOutputSize),
		}
	}
	if err != nil {
		return "", &domainerrors.EvaluateError{Err: err, Filter: failedFilter(err)}
	}
	return out.String(), nil
}

// DecodeProfile decodes and validates the profile JSON document.
// Absent optional fields are not an error.
func DecodeProfile(data []byte) (entities.ProfileData, error) {
	var profile entities.ProfileData
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, &domainerrors.DecodeError{Input: "profile", Err: err}
	}
	if err := validate.Struct(profile); err != nil {
		return profile, &domainerrors.DecodeError{Input: "profile", Err: fmt.Errorf("validation failed: %w", err)}
	}
	return profile, nil
}

func errorLine(err error) int {
	var perr *pongo2.Error
	if stderrors.As(err, &perr) {
		return perr.Line
	}
	return 0
}

func failedFilter(err error) string {
	var perr *pongo2.Error
	if stderrors.As(err, &perr) {
		switch perr.Sender {
		case filterSender(FilterMarkdown):
			return FilterMarkdown
		case filterSender(FilterMarkdownText):
			return FilterMarkdownText
		}
	}
	return ""
}
