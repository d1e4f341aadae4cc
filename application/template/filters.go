package template

import (
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/reglet-dev/theme-sdk/application/markdown"
)

// Filter names available to themes.
const (
	FilterMarkdown     = "markdown"
	FilterMarkdownText = "markdown_text"
)

var registerOnce sync.Once

// registerFilters installs the markdown filters into pongo2's global filter
// registry, replacing pongo2's own markdown filter. Autoescaping is disabled
// because themes produce both HTML and plain text.
func registerFilters() {
	registerOnce.Do(func() {
		pongo2.SetAutoescape(false)
		mustRegister(FilterMarkdown, filterMarkdown)
		mustRegister(FilterMarkdownText, filterMarkdownText)
	})
}

func mustRegister(name string, fn pongo2.FilterFunction) {
	var err error
	if pongo2.FilterExists(name) {
		err = pongo2.ReplaceFilter(name, fn)
	} else {
		err = pongo2.RegisterFilter(name, fn)
	}
	if err != nil {
		panic(err)
	}
}

func filterSender(name string) string {
	return "filter:" + name
}

func filterMarkdown(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	html, err := markdown.ToHTML(in.String())
	if err != nil {
		return nil, &pongo2.Error{
			Sender:    filterSender(FilterMarkdown),
			OrigError: err,
		}
	}
	return pongo2.AsSafeValue(html), nil
}

func filterMarkdownText(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(markdown.ToText(in.String())), nil
}
