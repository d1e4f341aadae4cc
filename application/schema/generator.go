// Package schema provides JSON schema generation for the profile document.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/reglet-dev/theme-sdk/domain/entities"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
)

// GenerateSchema creates a JSON schema (Draft 2020-12) from a Go struct.
// Only fields tagged `jsonschema:"required"` are required and unknown
// properties are allowed, matching how the render pipeline decodes.
func GenerateSchema(v interface{}) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, &domainerrors.SchemaError{Type: fmt.Sprintf("%T", v), Err: err}
	}

	return jsonBytes, nil
}

var profileSchema = sync.OnceValues(func() ([]byte, error) {
	return GenerateSchema(&entities.ProfileData{})
})

// ProfileSchema returns the schema of entities.ProfileData. It is generated
// once and shared; callers must not modify the returned slice.
func ProfileSchema() ([]byte, error) {
	return profileSchema()
}
