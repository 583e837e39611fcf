package findings

import (
	"encoding/json"
	"fmt"
)

// Severity orders findings by impact. The zero value is SeverityInfo.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInfo:     "info",
	SeverityWarning:  "warning",
	SeverityCritical: "critical",
}

// String returns the wire name of the severity
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalJSON encodes the severity as its wire name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity from its wire name
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a wire name back to a Severity
func ParseSeverity(name string) (Severity, error) {
	for sev, n := range severityNames {
		if n == name {
			return sev, nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// Category groups findings for weighting and gating. The set is closed:
// policy evaluation and report consumers rely on these four values.
type Category string

const (
	CategoryCoupling    Category = "coupling"
	CategoryStructural  Category = "structural"
	CategoryRegulatory  Category = "regulatory"
	CategoryFabrication Category = "fabrication"
)

// Categories lists all categories in report order.
func Categories() []Category {
	return []Category{CategoryCoupling, CategoryStructural, CategoryRegulatory, CategoryFabrication}
}

// ValidCategory reports whether c is one of the closed category set.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryCoupling, CategoryStructural, CategoryRegulatory, CategoryFabrication:
		return true
	}
	return false
}

// Evidence carries optional supporting detail for a finding.
type Evidence struct {
	Snippet   string         `json:"snippet,omitempty"`
	ClusterID string         `json:"clusterId,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
}

// Finding is one rule violation at one location. Findings are immutable
// once emitted; detectors return fresh values on every run.
type Finding struct {
	RuleID     string    `json:"ruleId"`
	Category   Category  `json:"category"`
	Severity   Severity  `json:"severity"`
	File       string    `json:"file"`
	StartLine  int       `json:"startLine"`
	EndLine    int       `json:"endLine"`
	Message    string    `json:"message"`
	Confidence float64   `json:"confidence,omitempty"`
	Evidence   *Evidence `json:"evidence,omitempty"`
}

// Key identifies a finding for deduplication: same rule at the same
// location is the same finding no matter how many times it is reported.
type Key struct {
	File      string
	StartLine int
	EndLine   int
	RuleID    string
}

// Key returns the deduplication key of the finding.
func (f Finding) Key() Key {
	return Key{File: f.File, StartLine: f.StartLine, EndLine: f.EndLine, RuleID: f.RuleID}
}

// Less is the canonical report order: file path, then start line, then
// rule identifier. Two scans of the same tree produce findings in
// exactly this order regardless of worker scheduling.
func Less(a, b Finding) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	return a.EndLine < b.EndLine
}

// Span is a contiguous line range in one file.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// DuplicateCluster is a set of spans whose token streams are near
// duplicates of each other. Members is kept in report order.
type DuplicateCluster struct {
	ID         string  `json:"id"`
	Members    []Span  `json:"members"`
	Similarity float64 `json:"similarity"`
	Signature  uint64  `json:"signature"`
}

// ParseFailure records a file the engine walked but could not analyze.
type ParseFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}
