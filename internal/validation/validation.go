// Package validation checks user-supplied configuration documents
// against embedded JSON schemas before anything trusts their contents.
package validation

import (
	"embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed *.json
var schemaFS embed.FS

// ValidationError represents a schema validation error
type ValidationError struct {
	Errors []string
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Errors[0])
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ValidateJSON validates a data structure against an embedded JSON schema.
// schemaName is the filename of the schema (e.g. "compliance-profile.json");
// data is the parsed YAML/JSON document as interface{}.
func ValidateJSON(schemaName string, data interface{}) error {
	schemaData, err := schemaFS.ReadFile(schemaName)
	if err != nil {
		return fmt.Errorf("failed to load schema %s: %w", schemaName, err)
	}

	schema, err := jsonschema.CompileString(schemaName, string(schemaData))
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", schemaName, err)
	}

	err = schema.Validate(data)
	if err != nil {
		var validationErrors []string
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			for _, cause := range validationErr.Causes {
				validationErrors = append(validationErrors, cause.Message)
			}
			if len(validationErrors) == 0 {
				validationErrors = append(validationErrors, validationErr.Message)
			}
		} else {
			validationErrors = append(validationErrors, err.Error())
		}
		return ValidationError{Errors: validationErrors}
	}

	return nil
}

// ValidateYAML validates raw YAML content against an embedded JSON
// schema.
func ValidateYAML(schemaName string, yamlContent []byte) error {
	var data interface{}
	if err := yaml.Unmarshal(yamlContent, &data); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return ValidateJSON(schemaName, data)
}
