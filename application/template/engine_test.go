package template_test

import (
	"strings"
	"testing"

	"github.com/reglet-dev/theme-sdk/application/template"
	"github.com/reglet-dev/theme-sdk/domain/entities"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullProfile = `{
	"instance": {"url": "https://pub.example"},
	"handle": "alice",
	"display_name": "Alice Liddell",
	"tags": ["go", "wasm"],
	"bio": "# Hello\n\nI write **Go**.",
	"social_links": [{"url": "https://git.example/alice", "platform_name": "Git"}],
	"links": [{"url": "https://alice.dev", "label": "Blog"}, {"url": "https://bare.example"}],
	"pages": [{"slug": "about", "name": "About"}]
}`

func TestEngine_Render(t *testing.T) {
	engine := template.NewEngine()

	t.Run("Handle Interpolation", func(t *testing.T) {
		out, err := engine.Render([]byte(`{"handle":"alice"}`), []byte("{{handle}}"))
		require.NoError(t, err)
		assert.Equal(t, "alice", out)
	})

	t.Run("Literal Theme Is Verbatim", func(t *testing.T) {
		literal := "<html>\n  <body>plain text, no expressions</body>\n</html>\n"
		for _, profile := range []string{`{}`, `{"handle":"bob"}`, fullProfile} {
			out, err := engine.Render([]byte(profile), []byte(literal))
			require.NoError(t, err)
			assert.Equal(t, literal, out)
		}
	})

	t.Run("Absent Optional Fields Render Empty", func(t *testing.T) {
		theme := `[{{ bio }}][{{ display_name }}][{{ bio|markdown }}][{{ bio|markdown_text }}]` +
			`{% if bio %}has bio{% else %}no bio{% endif %}[{{ instance.url }}]`
		out, err := engine.Render([]byte(`{"handle":"alice"}`), []byte(theme))
		require.NoError(t, err)
		assert.Equal(t, "[][][][]no bio[]", out)
	})

	t.Run("Markdown Filters", func(t *testing.T) {
		theme := `{{ bio | markdown }}|{{ bio | markdown_text }}`
		out, err := engine.Render([]byte(fullProfile), []byte(theme))
		require.NoError(t, err)
		assert.Equal(t, "<h1>Hello</h1>\n<p>I write <strong>Go</strong>.</p>\n|Hello\n\nI write Go.\n\n", out)
	})

	t.Run("Loops Over Lists", func(t *testing.T) {
		theme := `{% for l in links %}{{ l.url }}={{ l.label|default:"-" }};{% endfor %}` +
			`{% for t in tags %}#{{ t }}{% endfor %}` +
			`{% for s in social_links %}{{ s.platform_name }}{% endfor %}` +
			`{% for p in pages %}/{{ p.slug }}{% endfor %}`
		out, err := engine.Render([]byte(fullProfile), []byte(theme))
		require.NoError(t, err)
		assert.Equal(t, "https://alice.dev=Blog;https://bare.example=-;#go#wasmGit/about", out)
	})

	t.Run("No Autoescape", func(t *testing.T) {
		out, err := engine.Render([]byte(`{"handle":"<b>al</b>"}`), []byte("{{ handle }}"))
		require.NoError(t, err)
		assert.Equal(t, "<b>al</b>", out)
	})
}

func TestEngine_Faults(t *testing.T) {
	engine := template.NewEngine()

	tests := []struct {
		name     string
		profile  string
		theme    []byte
		wantType string
	}{
		{name: "malformed profile", profile: `{"handle":`, theme: []byte("x"), wantType: entities.ErrorTypeDecode},
		{name: "wrong field type", profile: `{"tags":"go"}`, theme: []byte("x"), wantType: entities.ErrorTypeDecode},
		{name: "link without url", profile: `{"links":[{"label":"x"}]}`, theme: []byte("x"), wantType: entities.ErrorTypeDecode},
		{name: "invalid utf8 theme", profile: `{}`, theme: []byte{'a', 0xff, 0xfe}, wantType: entities.ErrorTypeDecode},
		{name: "syntax error", profile: `{}`, theme: []byte("{% for x in %}"), wantType: entities.ErrorTypeCompile},
		{name: "unclosed block", profile: `{}`, theme: []byte("{% if handle %}open"), wantType: entities.ErrorTypeCompile},
		{name: "unknown filter", profile: `{}`, theme: []byte("{{ handle|nope }}"), wantType: entities.ErrorTypeCompile},
		{name: "include refused", profile: `{}`, theme: []byte(`{% include "other.html" %}`), wantType: entities.ErrorTypeCompile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := engine.Render([]byte(tt.profile), tt.theme)
			require.Error(t, err)
			assert.Empty(t, out)
			assert.Equal(t, tt.wantType, domainerrors.ToErrorDetail(err).Type)
		})
	}
}

func TestEngine_MaxOutputSize(t *testing.T) {
	engine := template.NewEngine(template.WithMaxOutputSize(8))

	out, err := engine.Render([]byte(`{}`), []byte("short"))
	require.NoError(t, err)
	assert.Equal(t, "short", out)

	_, err = engine.Render([]byte(`{}`), []byte(strings.Repeat("x", 9)))
	require.Error(t, err)
	var evalErr *domainerrors.EvaluateError
	require.ErrorAs(t, err, &evalErr)
	assert.Contains(t, evalErr.Error(), "exceeds 8 bytes")
}

func TestDecodeProfile(t *testing.T) {
	profile, err := template.DecodeProfile([]byte(fullProfile))
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Handle)
	require.NotNil(t, profile.DisplayName)
	assert.Equal(t, "Alice Liddell", *profile.DisplayName)
	assert.Len(t, profile.Links, 2)

	empty, err := template.DecodeProfile([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, empty.Bio)
	assert.Empty(t, empty.Tags)
}
