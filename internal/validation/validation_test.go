package validation

import (
	"strings"
	"testing"
)

func TestValidateYAML_ValidProfile(t *testing.T) {
	validYAML := `
name: team-gate
cutoff: 80
blocking_categories:
  - regulatory
  - structural
severity_weights:
  info: 0.5
  warning: 2
  critical: 12
thresholds:
  max_nesting_depth: 3
  max_function_lines: 50
`

	err := ValidateYAML("compliance-profile.json", []byte(validYAML))
	if err != nil {
		t.Fatalf("Expected valid profile to pass validation, got error: %v", err)
	}
}

func TestValidateYAML_PartialProfileIsValid(t *testing.T) {
	err := ValidateYAML("compliance-profile.json", []byte("cutoff: 55\n"))
	if err != nil {
		t.Fatalf("Partial profiles overlay defaults and must validate, got: %v", err)
	}
}

func TestValidateYAML_InvalidProfiles(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "cutoff above range",
			yaml: "cutoff: 150\n",
		},
		{
			name: "unknown top-level key",
			yaml: "cuttoff: 70\n",
		},
		{
			name: "unknown blocking category",
			yaml: "blocking_categories:\n  - style\n",
		},
		{
			name: "negative severity weight",
			yaml: "severity_weights:\n  warning: -1\n",
		},
		{
			name: "unknown threshold key",
			yaml: "thresholds:\n  max_nesting: 4\n",
		},
		{
			name: "non-integer count threshold",
			yaml: "thresholds:\n  max_function_lines: 60.5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYAML("compliance-profile.json", []byte(tt.yaml))
			if err == nil {
				t.Fatalf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestValidateYAML_BadYAML(t *testing.T) {
	err := ValidateYAML("compliance-profile.json", []byte("cutoff: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "YAML") {
		t.Fatalf("Expected YAML parse error, got: %v", err)
	}
}

func TestValidateJSON_MissingSchema(t *testing.T) {
	err := ValidateJSON("no-such-schema.json", map[string]interface{}{})
	if err == nil {
		t.Fatal("Expected error for missing schema")
	}
}

func TestValidationError_MessageJoining(t *testing.T) {
	err := ValidationError{Errors: []string{"first", "second"}}
	msg := err.Error()
	if !strings.Contains(msg, "first") || !strings.Contains(msg, "second") {
		t.Fatalf("Expected both causes in message, got: %s", msg)
	}
}
