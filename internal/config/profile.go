package config

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/validation"
)

//go:embed profiles
var profilesFS embed.FS

const profileSchema = "compliance-profile.json"

// Thresholds are the numeric knobs detectors read. One struct instead
// of a free-form map so a typo'd key fails schema validation instead of
// silently using a zero.
type Thresholds struct {
	MaxNestingDepth        int     `yaml:"max_nesting_depth" json:"max_nesting_depth"`
	MaxFunctionLines       int     `yaml:"max_function_lines" json:"max_function_lines"`
	MaxPositionalParams    int     `yaml:"max_positional_params" json:"max_positional_params"`
	MinAssertionDensity    float64 `yaml:"min_assertion_density" json:"min_assertion_density"`
	MinAssertableLines     int     `yaml:"min_assertable_lines" json:"min_assertable_lines"`
	MinLiteralSites        int     `yaml:"min_literal_sites" json:"min_literal_sites"`
	GodObjectMethods       int     `yaml:"god_object_methods" json:"god_object_methods"`
	GodObjectFields        int     `yaml:"god_object_fields" json:"god_object_fields"`
	GodObjectLines         int     `yaml:"god_object_lines" json:"god_object_lines"`
	DuplicationShingleSize int     `yaml:"duplication_shingle_size" json:"duplication_shingle_size"`
	DuplicationSimilarity  float64 `yaml:"duplication_similarity" json:"duplication_similarity"`
	DuplicationMinTokens   int     `yaml:"duplication_min_tokens" json:"duplication_min_tokens"`
	MaxPrintDensity        float64 `yaml:"max_print_density" json:"max_print_density"`
	MinTheaterConfidence   float64 `yaml:"min_theater_confidence" json:"min_theater_confidence"`
}

// Profile is an immutable compliance profile: which rules run, how
// findings weigh into the score, and where the pass cutoff sits.
// Loaded once per scan and never mutated afterwards.
type Profile struct {
	Name               string             `yaml:"name" json:"name"`
	DisabledRules      []string           `yaml:"disabled_rules,omitempty" json:"disabled_rules,omitempty"`
	BlockingCategories []string           `yaml:"blocking_categories,omitempty" json:"blocking_categories,omitempty"`
	Cutoff             float64            `yaml:"cutoff" json:"cutoff"`
	SeverityWeights    map[string]float64 `yaml:"severity_weights" json:"severity_weights"`
	CategoryWeights    map[string]float64 `yaml:"category_weights" json:"category_weights"`
	Thresholds         Thresholds         `yaml:"thresholds" json:"thresholds"`
}

// BuiltinProfiles lists the names of embedded profiles.
func BuiltinProfiles() []string {
	entries, err := profilesFS.ReadDir("profiles")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// LoadProfile resolves nameOrPath as a built-in profile name first,
// then as a path to a profile file. Partial files overlay the default
// profile, so users only write the knobs they change.
func LoadProfile(nameOrPath string) (*Profile, error) {
	if nameOrPath == "" {
		nameOrPath = "default"
	}

	if content, err := profilesFS.ReadFile("profiles/" + nameOrPath + ".yaml"); err == nil {
		return parseProfile(content, nameOrPath)
	}

	content, err := os.ReadFile(nameOrPath)
	if err != nil {
		return nil, Errorf("profile %q is neither a built-in (%s) nor a readable file", nameOrPath, strings.Join(BuiltinProfiles(), ", "))
	}
	return parseProfile(content, nameOrPath)
}

func parseProfile(content []byte, origin string) (*Profile, error) {
	if err := validation.ValidateYAML(profileSchema, content); err != nil {
		return nil, WrapError(fmt.Sprintf("profile %s failed validation", origin), err)
	}

	// overlay on top of the defaults: absent keys keep their default
	profile := defaultProfile()
	if err := yaml.Unmarshal(content, profile); err != nil {
		return nil, WrapError(fmt.Sprintf("profile %s is not valid YAML", origin), err)
	}

	if err := profile.check(); err != nil {
		return nil, err
	}
	return profile, nil
}

// defaultProfile mirrors profiles/default.yaml so partial profiles
// have sane values for everything they omit.
func defaultProfile() *Profile {
	return &Profile{
		Name:               "default",
		DisabledRules:      []string{},
		BlockingCategories: []string{string(findings.CategoryRegulatory)},
		Cutoff:             70,
		SeverityWeights: map[string]float64{
			"info":     0.5,
			"warning":  2,
			"critical": 10,
		},
		CategoryWeights: map[string]float64{
			string(findings.CategoryCoupling):    1,
			string(findings.CategoryStructural):  1,
			string(findings.CategoryRegulatory):  1.5,
			string(findings.CategoryFabrication): 1,
		},
		Thresholds: Thresholds{
			MaxNestingDepth:        4,
			MaxFunctionLines:       60,
			MaxPositionalParams:    5,
			MinAssertionDensity:    0.02,
			MinAssertableLines:     10,
			MinLiteralSites:        3,
			GodObjectMethods:       20,
			GodObjectFields:        15,
			GodObjectLines:         250,
			DuplicationShingleSize: 16,
			DuplicationSimilarity:  0.85,
			DuplicationMinTokens:   60,
			MaxPrintDensity:        0.4,
			MinTheaterConfidence:   0.5,
		},
	}
}

func (p *Profile) check() error {
	if p.Cutoff < 0 || p.Cutoff > 100 {
		return Errorf("profile %s: cutoff must be in [0,100], got %g", p.Name, p.Cutoff)
	}
	for _, cat := range p.BlockingCategories {
		if !findings.ValidCategory(findings.Category(cat)) {
			return Errorf("profile %s: unknown blocking category %q", p.Name, cat)
		}
	}
	for cat := range p.CategoryWeights {
		if !findings.ValidCategory(findings.Category(cat)) {
			return Errorf("profile %s: unknown category weight key %q", p.Name, cat)
		}
	}
	for sev := range p.SeverityWeights {
		if _, err := findings.ParseSeverity(sev); err != nil {
			return Errorf("profile %s: unknown severity weight key %q", p.Name, sev)
		}
	}
	return nil
}

// RuleEnabled reports whether a rule id runs under this profile.
func (p *Profile) RuleEnabled(ruleID string) bool {
	for _, disabled := range p.DisabledRules {
		if disabled == ruleID {
			return false
		}
	}
	return true
}

// Blocking reports whether a category hard-fails the gate on critical
// findings regardless of score.
func (p *Profile) Blocking(category findings.Category) bool {
	for _, cat := range p.BlockingCategories {
		if cat == string(category) {
			return true
		}
	}
	return false
}

// SeverityWeight returns the score weight of a severity.
func (p *Profile) SeverityWeight(s findings.Severity) float64 {
	return p.SeverityWeights[s.String()]
}

// CategoryWeight returns the score weight of a category, defaulting
// to 1 so unknown-at-weight-time categories still count.
func (p *Profile) CategoryWeight(c findings.Category) float64 {
	if w, ok := p.CategoryWeights[string(c)]; ok {
		return w
	}
	return 1
}

// Fingerprint returns a stable digest of everything in the profile
// that can change findings. It feeds the detector-set version, so
// editing a threshold invalidates cached results.
func (p *Profile) Fingerprint() string {
	data, err := json.Marshal(p)
	if err != nil {
		return "unfingerprintable"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}
