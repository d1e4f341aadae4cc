package host

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/theme-sdk/domain/ports"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	fs           afero.Fs
	validator    ports.ProfileValidator
	maxInputSize int64
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		fs:           afero.NewOsFs(),
		maxInputSize: 16 * 1024 * 1024,
	}
}

// Loader reads render inputs and module binaries from disk.
type Loader struct {
	config loaderConfig
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithValidator checks every loaded profile against v.
func WithValidator(v ports.ProfileValidator) LoaderOption {
	return func(c *loaderConfig) {
		c.validator = v
	}
}

// WithFS reads inputs from fs instead of the operating system.
func WithFS(fs afero.Fs) LoaderOption {
	return func(c *loaderConfig) {
		c.fs = fs
	}
}

// WithMaxInputSize limits the size of any single file the loader reads.
func WithMaxInputSize(n int64) LoaderOption {
	return func(c *loaderConfig) {
		c.maxInputSize = n
	}
}

// NewLoader creates a new Loader with defaults.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader{config: cfg}
}

// RenderInput is a profile document and theme ready to hand to a renderer.
type RenderInput struct {
	Profile []byte
	Theme   []byte
}

// LoadInput reads the profile and theme files. A profilePath of "" yields an
// empty profile object. Profiles ending in .yaml or .yml are converted to
// JSON.
func (l *Loader) LoadInput(profilePath, themePath string) (RenderInput, error) {
	var in RenderInput

	in.Profile = []byte(`{}`)
	if profilePath != "" {
		data, err := l.readFile(profilePath)
		if err != nil {
			return in, fmt.Errorf("failed to read profile: %w", err)
		}
		if isYAML(profilePath) {
			if data, err = yamlToJSON(data); err != nil {
				return in, fmt.Errorf("failed to convert profile %s: %w", profilePath, err)
			}
		}
		in.Profile = data
	}
	if l.config.validator != nil {
		if err := l.config.validator.Validate(in.Profile); err != nil {
			return in, fmt.Errorf("profile %s: %w", profilePath, err)
		}
	}

	theme, err := l.readFile(themePath)
	if err != nil {
		return in, fmt.Errorf("failed to read theme: %w", err)
	}
	in.Theme = theme
	return in, nil
}

// LoadModule reads a compiled theme module.
func (l *Loader) LoadModule(path string) ([]byte, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	return data, nil
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := l.config.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.config.maxInputSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.config.maxInputSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, l.config.maxInputSize)
	}
	return data, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(doc)
}
