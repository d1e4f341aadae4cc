package template

import (
	"fmt"
	"io"
)

// sandboxLoader backs the per-render template set. Themes are single
// documents: include, extends and import cannot reach any file.
type sandboxLoader struct{}

func (sandboxLoader) Abs(_, name string) string {
	return name
}

func (sandboxLoader) Get(path string) (io.Reader, error) {
	return nil, fmt.Errorf("theme cannot load %q: external templates are not available", path)
}
