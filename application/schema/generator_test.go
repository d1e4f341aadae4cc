package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema_SimpleStruct(t *testing.T) {
	type SimpleConfig struct {
		Host string `json:"host" jsonschema:"required"`
		Port int    `json:"port"`
	}

	schema, err := GenerateSchema(SimpleConfig{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "host")
	assert.Contains(t, props, "port")
	assert.Equal(t, []any{"host"}, decoded["required"])
}

func TestProfileSchema(t *testing.T) {
	schema, err := ProfileSchema()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{"instance", "handle", "display_name", "bio", "tags", "social_links", "links", "pages"} {
		assert.Contains(t, props, field)
	}
	assert.NotContains(t, decoded, "required", "no top-level field is required")

	again, err := ProfileSchema()
	require.NoError(t, err)
	assert.Equal(t, schema, again)
}
