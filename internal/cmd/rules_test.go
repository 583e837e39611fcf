package cmd

import (
	"strings"
	"testing"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
)

func TestRulesResultToText(t *testing.T) {
	result := &RulesResult{
		Profile: "default",
		Rules: []RuleInfo{
			{ID: "direct-recursion", Category: "regulatory", Enabled: true, Blocking: true},
			{ID: "nesting-depth", Category: "structural", Enabled: true, Blocking: false},
			{ID: "theater-print", Category: "fabrication", Enabled: false, Blocking: false},
		},
	}

	var sb strings.Builder
	result.ToText(&sb)
	out := sb.String()

	for _, want := range []string{
		"direct-recursion",
		"enabled, blocking",
		"nesting-depth",
		"disabled",
		"Total: 3 rules (profile default)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rules text output missing %q:\n%s", want, out)
		}
	}
}

func TestRuleInfoStates(t *testing.T) {
	profile, err := config.LoadProfile("")
	if err != nil {
		t.Fatal(err)
	}
	profile.DisabledRules = append(profile.DisabledRules, "theater-print")

	tests := []struct {
		name     string
		id       string
		category findings.Category
		enabled  bool
		blocking bool
	}{
		{"enabled non-blocking", "nesting-depth", findings.CategoryStructural, true, false},
		{"blocking category", "direct-recursion", findings.CategoryRegulatory, true, true},
		{"disabled by profile", "theater-print", findings.CategoryFabrication, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ruleInfo(profile, tt.id, tt.category)
			if got.Enabled != tt.enabled {
				t.Errorf("ruleInfo(%q).Enabled = %v, want %v", tt.id, got.Enabled, tt.enabled)
			}
			if got.Blocking != tt.blocking {
				t.Errorf("ruleInfo(%q).Blocking = %v, want %v", tt.id, got.Blocking, tt.blocking)
			}
			if got.Category != string(tt.category) {
				t.Errorf("ruleInfo(%q).Category = %q, want %q", tt.id, got.Category, tt.category)
			}
		})
	}
}
