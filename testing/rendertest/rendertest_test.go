package rendertest_test

import (
	"log/slog"
	"testing"

	"github.com/reglet-dev/theme-sdk/domain/entities"
	"github.com/reglet-dev/theme-sdk/guest"
	"github.com/reglet-dev/theme-sdk/internal/guard"
	wasmlog "github.com/reglet-dev/theme-sdk/log"
	"github.com/reglet-dev/theme-sdk/testing/rendertest"
	"github.com/stretchr/testify/assert"
)

func newModule(t *testing.T) *guest.Module {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	g := guard.New(guard.WithHandler(func() slog.Handler {
		return wasmlog.NewHandler(wasmlog.WithSink(func([]byte) {}))
	}))
	return guest.New(guest.WithGuard(g))
}

func TestRunRenderTests_Module(t *testing.T) {
	m := newModule(t)
	bio := "Hello *world*, see [docs](https://docs.example)"

	rendertest.RunRenderTests(t, rendertest.ForModule(t, m), []rendertest.TestCase{
		{
			Name: "struct profile",
			Profile: entities.ProfileData{
				Instance: entities.InstanceInfo{URL: "https://example.com"},
				Handle:   "alice",
				Bio:      &bio,
			},
			Theme: `@{{ handle }} on {{ instance.url }}`,
			Validate: func(t *testing.T, r entities.RenderResult) {
				rendertest.AssertOutput(t, r, "@alice on https://example.com")
			},
		},
		{
			Name:    "markdown filters",
			Profile: entities.ProfileData{Bio: &bio},
			Theme:   `{{ bio | markdown }}|{{ bio | markdown_text }}`,
			Validate: func(t *testing.T, r entities.RenderResult) {
				rendertest.AssertOutputContains(t, r,
					`<em>world</em>`,
					`<a href="https://docs.example">docs</a>`,
					`|Hello world, see docs`,
				)
			},
		},
		{
			Name:    "raw json profile",
			Profile: `{"handle":"bob","tags":["a","b"]}`,
			Theme:   `{% for t in tags %}[{{ t }}]{% endfor %}`,
			Validate: func(t *testing.T, r entities.RenderResult) {
				rendertest.AssertOutput(t, r, "[a][b]")
			},
		},
		{
			Name:  "nil profile renders empty defaults",
			Theme: `{{ tags|length }}`,
			Validate: func(t *testing.T, r entities.RenderResult) {
				rendertest.AssertOutput(t, r, "0")
			},
		},
		{
			Name:    "decode failure",
			Profile: `[1, 2]`,
			Theme:   `x`,
			Validate: func(t *testing.T, r entities.RenderResult) {
				rendertest.AssertFailure(t, r, entities.ErrorTypeDecode)
			},
		},
		{
			Name:    "compile failure",
			Profile: `{}`,
			Theme:   `{% for l in links %}`,
			Validate: func(t *testing.T, r entities.RenderResult) {
				rendertest.AssertFailure(t, r, entities.ErrorTypeCompile)
			},
		},
	})

	assert.Zero(t, m.LiveOutputs(), "every output was released")
	count, _ := m.Allocator().Stats()
	assert.Zero(t, count, "every input was freed")
}
