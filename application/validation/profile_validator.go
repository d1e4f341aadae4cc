// Package validation checks profile documents against the generated JSON schema
// before they cross into the sandbox.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/theme-sdk/application/schema"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/reglet-dev/theme-sdk/domain/ports"
)

const profileSchemaURL = "profile.schema.json"

// ProfileValidator implements ports.ProfileValidator using JSON schemas.
type ProfileValidator struct {
	schema *jsonschema.Schema
}

var _ ports.ProfileValidator = (*ProfileValidator)(nil)

// NewProfileValidator compiles the profile schema.
func NewProfileValidator() (*ProfileValidator, error) {
	raw, err := schema.ProfileSchema()
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(profileSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, &domainerrors.SchemaError{Type: "profile", Err: fmt.Errorf("failed to add schema resource: %w", err)}
	}
	sch, err := compiler.Compile(profileSchemaURL)
	if err != nil {
		return nil, &domainerrors.SchemaError{Type: "profile", Err: fmt.Errorf("invalid schema: %w", err)}
	}
	return &ProfileValidator{schema: sch}, nil
}

// Validate checks profileJSON against the schema. Failures are DecodeErrors
// listing every violated location.
func (v *ProfileValidator) Validate(profileJSON []byte) error {
	var doc any
	if err := json.Unmarshal(profileJSON, &doc); err != nil {
		return &domainerrors.DecodeError{Input: "profile", Err: err}
	}

	if err := v.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &domainerrors.DecodeError{Input: "profile", Err: errors.New(summarize(ve))}
		}
		return &domainerrors.DecodeError{Input: "profile", Err: err}
	}
	return nil
}

// summarize flattens the validation tree into "location: message" lines.
func summarize(ve *jsonschema.ValidationError) string {
	var lines []string
	for _, unit := range ve.BasicOutput().Errors {
		if unit.Error == "" {
			continue
		}
		loc := unit.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", loc, unit.Error))
	}
	if len(lines) == 0 {
		return ve.Error()
	}
	return strings.Join(lines, "; ")
}
