package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileData_ContextMinimal(t *testing.T) {
	var p ProfileData
	require.NoError(t, json.Unmarshal([]byte(`{"handle":"alice"}`), &p))

	ctx := p.Context()
	assert.Equal(t, "alice", ctx["handle"])
	assert.Equal(t, map[string]any{"url": ""}, ctx["instance"])
	assert.Equal(t, []string{}, ctx["tags"])
	assert.Empty(t, ctx["links"])

	_, hasBio := ctx["bio"]
	assert.False(t, hasBio, "absent optional fields stay undefined")
	_, hasName := ctx["display_name"]
	assert.False(t, hasName)
}

func TestProfileData_ContextFull(t *testing.T) {
	doc := `{
		"instance": {"url": "https://example.social"},
		"handle": "alice",
		"display_name": "Alice",
		"tags": ["go", "wasm"],
		"bio": "hello *world*",
		"social_links": [{"url": "https://git.example/alice", "platform_name": "git", "icon_name": "git"}],
		"links": [{"url": "https://alice.dev", "label": "blog"}, {"url": "https://b.example"}],
		"pages": [{"slug": "about", "name": "About"}]
	}`
	var p ProfileData
	require.NoError(t, json.Unmarshal([]byte(doc), &p))

	ctx := p.Context()
	assert.Equal(t, "Alice", ctx["display_name"])
	assert.Equal(t, "hello *world*", ctx["bio"])
	assert.Equal(t, []string{"go", "wasm"}, ctx["tags"])
	assert.Equal(t, map[string]any{"url": "https://example.social"}, ctx["instance"])

	social := ctx["social_links"].([]map[string]any)
	require.Len(t, social, 1)
	assert.Equal(t, "git", social[0]["platform_name"])
	_, hasLabel := social[0]["label"]
	assert.False(t, hasLabel)

	links := ctx["links"].([]map[string]any)
	require.Len(t, links, 2)
	assert.Equal(t, "blog", links[0]["label"])
	assert.Equal(t, "https://b.example", links[1]["url"])

	pages := ctx["pages"].([]map[string]any)
	assert.Equal(t, "About", pages[0]["name"])
}
